// Package kvcache connects to the configured key/value cache backend.
//
// The cache holds serialized archive indexes and alias resolutions with
// per-entry TTLs. Every backend reports a miss as storyhost.ErrNotFound and
// is safe for concurrent use. Losing the cache is never fatal to the
// serving pipeline, so backends favor simplicity over durability.
package kvcache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/previewhq/storyhost"
	"github.com/previewhq/storyhost/kvcache/memory"
	"github.com/previewhq/storyhost/kvcache/postgres"
	"github.com/previewhq/storyhost/kvcache/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the configuration for connecting to a cache backend.
type Config struct {
	// Type specifies the cache type: "memory", "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=memory sqlite postgres"`
	// DSN is the data source name (connection string); unused for "memory"
	DSN string `mapstructure:"dsn"`
	// Table is the name of the key/value table; unused for "memory"
	Table string `mapstructure:"table"`
}

// Connect establishes a connection to the configured cache backend, runs
// migrations, validates the schema, and returns a storyhost.Cache. The
// returned cleanup function should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (storyhost.Cache, func(), error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), func() {}, nil
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, cfg.Table)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, cfg.Table)
	default:
		return nil, nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn, table string) (storyhost.Cache, func(), error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = sqlite.Migrate(ctx, db, table); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	cache, err := sqlite.NewCache(db, table)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create sqlite cache: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return cache, cleanup, nil
}

func connectPostgres(ctx context.Context, dsn, table string) (storyhost.Cache, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = postgres.Migrate(ctx, pool, table); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	cache, err := postgres.NewCache(pool, table)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create postgres cache: %w", err)
	}

	return cache, pool.Close, nil
}
