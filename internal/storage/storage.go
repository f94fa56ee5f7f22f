// Package storage opens the item store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/tasklist/internal/config"
	"github.com/sakif/tasklist/internal/repository"
	"github.com/sakif/tasklist/internal/repository/memory"
	"github.com/sakif/tasklist/internal/repository/postgres"
	sqliteRepo "github.com/sakif/tasklist/internal/repository/sqlite"
)

// Open returns the backend named by cfg.Driver. The caller owns the store
// and must Close it.
//
//	sqlite   → cfg.SQLitePath (parent directory created if missing)
//	postgres → cfg.PostgresDSN
//	memory   → process-local, lost on exit
func Open(ctx context.Context, cfg config.Storage, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory item store; data will not survive a restart")
		return memory.New(), nil

	case config.DriverSQLite, "":
		if cfg.SQLitePath != ":memory:" {
			// os.MkdirAll works like `mkdir -p`.
			dir := filepath.Dir(cfg.SQLitePath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("storage: creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("item store opened", slog.String("driver", config.DriverSQLite), slog.String("path", cfg.SQLitePath))
		return db, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("item store opened", slog.String("driver", config.DriverPostgres))
		return db, nil

	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
