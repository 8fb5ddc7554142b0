// Package config loads server configuration.
//
// LAYERING:
// Configuration is assembled by koanf from three sources, later ones winning:
//
//  1. Defaults: the values in defaultConfig()
//  2. Config file: optional YAML file named by BLOGFEED_CONFIG
//  3. Environment: PORT, DB_PATH, JWT_SECRET, ... (see envMappings)
//
// The old way of doing this (one os.Getenv + strconv per setting in main.go)
// does not scale past a handful of settings and cannot read a file. koanf
// gives us both, and unmarshals straight into typed structs, including
// time.Duration values written as "20s".
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable holding the YAML config path.
const PathEnvVar = "BLOGFEED_CONFIG"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	DB     DBConfig     `koanf:"db"`
	Auth   AuthConfig   `koanf:"auth"`
	Cache  CacheConfig  `koanf:"cache"`
	Media  MediaConfig  `koanf:"media"`
	Log    LogConfig    `koanf:"log"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// BaseURL is used to build the default GitHub callback URL.
	BaseURL string `koanf:"base_url"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig holds session and OAuth settings. An empty JWTSecret disables
// login entirely; the site is then read-only for everyone.
type AuthConfig struct {
	JWTSecret          string        `koanf:"jwt_secret"`
	TokenTTL           time.Duration `koanf:"token_ttl"`
	GitHubClientID     string        `koanf:"github_client_id"`
	GitHubClientSecret string        `koanf:"github_client_secret"`
	GitHubCallbackURL  string        `koanf:"github_callback_url"`
}

type CacheConfig struct {
	Window     time.Duration `koanf:"window"`
	Backend    string        `koanf:"backend"`
	BadgerPath string        `koanf:"badger_path"`
}

type MediaConfig struct {
	Dir string `koanf:"dir"`
	// MaxUploadBytes caps a single image upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		DB:     DBConfig{Path: "data/blogfeed.db"},
		Auth:   AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		Cache: CacheConfig{
			Window:     20 * time.Second,
			Backend:    CacheMemory,
			BadgerPath: "data/cache",
		},
		Media: MediaConfig{
			Dir:            "data/media",
			MaxUploadBytes: 5 << 20, // 5MB
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// envMappings maps (lower-cased) environment variable names to config keys.
var envMappings = map[string]string{
	"port":                 "server.port",
	"base_url":             "server.base_url",
	"db_path":              "db.path",
	"jwt_secret":           "auth.jwt_secret",
	"token_ttl":            "auth.token_ttl",
	"github_client_id":     "auth.github_client_id",
	"github_client_secret": "auth.github_client_secret",
	"github_callback_url":  "auth.github_callback_url",
	"cache_window":         "cache.window",
	"cache_backend":        "cache.backend",
	"cache_badger_path":    "cache.badger_path",
	"media_dir":            "media.dir",
	"media_max_upload":     "media.max_upload_bytes",
	"log_level":            "log.level",
	"log_format":           "log.format",
}

// envTransform returns "" for unknown variables so that koanf skips them;
// the rest of the process environment never leaks into the config.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load builds the configuration from defaults, the optional config file and
// the environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDerived() {
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Auth.GitHubCallbackURL == "" {
		c.Auth.GitHubCallbackURL = strings.TrimRight(c.Server.BaseURL, "/") + "/auth/github/callback"
	}
}

// Validate reports every problem at once, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if (c.Auth.GitHubClientID == "") != (c.Auth.GitHubClientSecret == "") {
		errs = append(errs, errors.New("auth.github_client_id and auth.github_client_secret must be set together"))
	}
	if c.Cache.Window <= 0 {
		errs = append(errs, errors.New("cache.window must be positive"))
	}
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheBadger:
		if c.Cache.BadgerPath == "" {
			errs = append(errs, errors.New("cache.badger_path is required for the badger backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of memory, badger", c.Cache.Backend))
	}
	if c.Media.Dir == "" {
		errs = append(errs, errors.New("media.dir is required"))
	}
	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("media.max_upload_bytes must be positive"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// AuthEnabled reports whether sessions can be issued.
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

// GitHubEnabled reports whether GitHub login is configured.
func (c *Config) GitHubEnabled() bool {
	return c.AuthEnabled() && c.Auth.GitHubClientID != ""
}
