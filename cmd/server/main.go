// Package main is the entry point for the blogfeed web server.
//
// main stays minimal: load the configuration, build the logger, hand both
// to the server and block until it stops. Everything else lives under
// internal/.
//
// Configuration comes from defaults, an optional YAML file named by
// BLOGFEED_CONFIG, and environment variables (see internal/config):
//
//	JWT_SECRET=$(openssl rand -hex 32) PORT=8080 go run ./cmd/server
//
// Send SIGHUP to flush the global feed cache; SIGINT or SIGTERM to stop.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/blogfeed/internal/config"
	"github.com/sakif/blogfeed/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds the process logger. Level and format were validated by
// config.Load.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
