// Package postgres implements the cache interface using PostgreSQL.
//
// A shared postgres cache lets a fleet of serving instances reuse each
// other's archive indexes instead of rebuilding per instance.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/previewhq/storyhost"
)

type cache struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewCache creates a cache backed by the named table. The table must
// already exist; call Migrate first.
func NewCache(pool *pgxpool.Pool, tableName string) (storyhost.Cache, error) {
	if !storyhost.IsValidTableName(tableName) {
		return nil, fmt.Errorf("new cache: invalid table name: %s", tableName)
	}
	return &cache{pool: pool, tableName: tableName}, nil
}

func (c *cache) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`
		SELECT value, expires_at FROM %s WHERE key = $1
	`, c.tableName)

	var value []byte
	var expiresAt *time.Time

	err := c.pool.QueryRow(ctx, query, key).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storyhost.ErrNotFound
		}
		return nil, fmt.Errorf("get: %w", err)
	}

	if expiresAt != nil && time.Now().After(*expiresAt) {
		// Lazy expiry; a failed cleanup still reads as a miss.
		_ = c.Delete(ctx, key)
		return nil, storyhost.ErrNotFound
	}

	return value, nil
}

func (c *cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl).UTC()
		expiresAt = &t
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, c.tableName)

	if _, err := c.pool.Exec(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

func (c *cache) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, c.tableName)

	tag, err := c.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", storyhost.ErrNotFound)
	}

	return nil
}
