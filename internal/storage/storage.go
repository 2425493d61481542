// Package storage opens the persistence backend selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dimitrije/capacity-planner/internal/config"
	"github.com/dimitrije/capacity-planner/internal/database"
	"github.com/dimitrije/capacity-planner/internal/filestore"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/sqlitestore"
)

// Open returns the configured backend and a func that releases it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (persist.Backend, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("storage ready", "backend", cfg.StorageBackend)
		return database.NewBackend(db), db.Close, nil

	case config.BackendSQLite:
		store, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("storage ready", "backend", cfg.StorageBackend, "path", cfg.SQLitePath)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing sqlite store", "error", err)
			}
		}, nil

	case config.BackendFile:
		logger.Info("storage ready", "backend", cfg.StorageBackend, "path", cfg.DataFile)
		return filestore.New(cfg.DataFile), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
