package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{PathEnvVar}
	for k := range envMappings {
		keys = append(keys, strings.ToUpper(k))
	}
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, old) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.DB.Path != "data/blogfeed.db" {
		t.Errorf("DB.Path = %q, want data/blogfeed.db", cfg.DB.Path)
	}
	if cfg.Cache.Window != 20*time.Second {
		t.Errorf("Cache.Window = %v, want 20s", cfg.Cache.Window)
	}
	if cfg.Cache.Backend != CacheMemory {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Auth.GitHubCallbackURL != "http://localhost:8080/auth/github/callback" {
		t.Errorf("Auth.GitHubCallbackURL = %q", cfg.Auth.GitHubCallbackURL)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true without a JWT secret")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/blog.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CACHE_WINDOW", "45s")
	t.Setenv("CACHE_BACKEND", "badger")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.DB.Path != "/tmp/blog.db" {
		t.Errorf("DB.Path = %q", cfg.DB.Path)
	}
	if cfg.Cache.Window != 45*time.Second {
		t.Errorf("Cache.Window = %v, want 45s", cfg.Cache.Window)
	}
	if cfg.Cache.Backend != CacheBadger {
		t.Errorf("Cache.Backend = %q, want badger", cfg.Cache.Backend)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled() = false with a JWT secret")
	}
	if cfg.Auth.GitHubCallbackURL != "http://localhost:9090/auth/github/callback" {
		t.Errorf("Auth.GitHubCallbackURL = %q", cfg.Auth.GitHubCallbackURL)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "blogfeed.yaml")
	yaml := `
server:
  port: 7000
cache:
  window: 1m
media:
  dir: /srv/media
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PathEnvVar, path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want 7001 (env beats file)", cfg.Server.Port)
	}
	if cfg.Cache.Window != time.Minute {
		t.Errorf("Cache.Window = %v, want 1m from file", cfg.Cache.Window)
	}
	if cfg.Media.Dir != "/srv/media" {
		t.Errorf("Media.Dir = %q, want /srv/media", cfg.Media.Dir)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(PathEnvVar, filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Load() with a missing config file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero window", func(c *Config) { c.Cache.Window = 0 }, "cache.window"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"badger without path", func(c *Config) {
			c.Cache.Backend = CacheBadger
			c.Cache.BadgerPath = ""
		}, "cache.badger_path"},
		{"half github config", func(c *Config) { c.Auth.GitHubClientID = "id" }, "github_client_secret"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
