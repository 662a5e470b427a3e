package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/custom-icon-badges/custom-icon-badges/internal/config"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db/repositories"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore/blobstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore/redisstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore/sqlite"
	"github.com/custom-icon-badges/custom-icon-badges/internal/storage"
	"github.com/custom-icon-badges/custom-icon-badges/internal/telemetry"

	// Import storage backends to register them
	_ "github.com/custom-icon-badges/custom-icon-badges/internal/storage/azure"
	_ "github.com/custom-icon-badges/custom-icon-badges/internal/storage/gcs"
	_ "github.com/custom-icon-badges/custom-icon-badges/internal/storage/local"
	_ "github.com/custom-icon-badges/custom-icon-badges/internal/storage/s3"
)

// containerEnsurer is implemented by blob backends that can create their bucket/container.
type containerEnsurer interface {
	EnsureContainer(ctx context.Context) error
}

// openIconStore builds the configured icon store. The returned close function
// releases its connections and is never nil.
func openIconStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (iconstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.IconStore.Backend {
	case config.IconStoreMemory, "":
		logger.Warn("using in-memory icon store; submitted icons are lost on restart")
		return iconstore.NewMemoryStore(), noop, nil

	case config.IconStorePostgres:
		database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

		if err := db.RunMigrations(database, "up"); err != nil {
			database.Close()
			return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}
		if version, dirty, err := db.GetMigrationVersion(database); err != nil {
			logger.Warn("failed to get migration version", "error", err)
		} else {
			logger.Info("database schema ready", "version", version, "dirty", dirty)
		}

		telemetry.StartDBStatsCollector(database)
		return repositories.NewIconRepository(sqlx.NewDb(database, "postgres")), database.Close, nil

	case config.IconStoreSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, noop, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("opened sqlite icon store", "path", cfg.SQLite.Path)
		return store, store.Close, nil

	case config.IconStoreRedis:
		store, err := redisstore.Dial(ctx, &cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return store, store.Close, nil

	case config.IconStoreBlob:
		blobs, err := storage.NewStorage(cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize storage backend: %w", err)
		}
		if e, ok := blobs.(containerEnsurer); ok {
			if err := e.EnsureContainer(ctx); err != nil {
				return nil, noop, err
			}
		}
		logger.Info("initialized blob icon store", "backend", cfg.Storage.DefaultBackend)
		return blobstore.New(blobs), noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported icon store backend: %s", cfg.IconStore.Backend)
	}
}
