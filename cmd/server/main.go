// Package main is the entry point for the task list web server.
//
// main only reads configuration, opens the item store and starts the
// server; all behaviour lives under internal/.
//
// The admin CLI lives next door in cmd/tasklist and shares the same
// configuration and storage packages.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/tasklist/internal/config"
	"github.com/sakif/tasklist/internal/server"
	"github.com/sakif/tasklist/internal/storage"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// Every setting comes from an environment variable with a default,
	// e.g. PORT=9000 STORAGE_DRIVER=postgres POSTGRES_DSN=postgres://...
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// === 3. OPEN THE ITEM STORE ===
	// Bounded so an unreachable Postgres fails startup instead of hanging it.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := storage.Open(ctx, cfg.Storage, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open item store",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, store, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	// and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
