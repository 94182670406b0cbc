package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps the document in a JSONB row of progress_documents
type PostgresBackend struct {
	pool *pgxpool.Pool
	key  string
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	Key          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresBackend creates the pool, pings the database and applies
// migrations
func NewPostgresBackend(ctx context.Context, cfg PostgresConfig) (*PostgresBackend, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 4
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 1
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(ctx, pool, migrationFiles); err != nil {
		pool.Close()
		return nil, err
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	return &PostgresBackend{pool: pool, key: key}, nil
}

// Load reads the document row
func (b *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var doc string
	err := b.pool.QueryRow(ctx,
		`SELECT document::text FROM progress_documents WHERE storage_key = $1`, b.key,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return []byte(doc), nil
}

// Save upserts the document row
func (b *PostgresBackend) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO progress_documents (storage_key, document, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (storage_key) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`
	if _, err := b.pool.Exec(ctx, query, b.key, string(data)); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close closes the database connection pool
func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
