package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/problem-browser/internal/config"
)

// Open creates the backend selected by cfg.Progress.Backend
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	key := cfg.Progress.StorageKey

	slog.Info("opening progress backend", "backend", cfg.Progress.Backend, "key", key)

	switch cfg.Progress.Backend {
	case config.BackendFile:
		return NewFileBackend(cfg.Progress.FilePath)
	case config.BackendSQLite:
		return NewSQLiteBackend(ctx, cfg.Progress.SQLitePath, key)
	case config.BackendRedis:
		return NewRedisBackend(ctx, RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      key,
		})
	case config.BackendPostgres:
		return NewPostgresBackend(ctx, PostgresConfig{
			DSN:          cfg.Database.DSN,
			Key:          key,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Progress.Backend)
	}
}
