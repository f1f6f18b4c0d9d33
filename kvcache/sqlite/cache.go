// Package sqlite implements the cache interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/previewhq/storyhost"
)

type cache struct {
	db        *sql.DB
	tableName string
}

// NewCache creates a cache backed by the named table. The table must
// already exist; call Migrate first.
func NewCache(db *sql.DB, tableName string) (storyhost.Cache, error) {
	if !storyhost.IsValidTableName(tableName) {
		return nil, fmt.Errorf("new cache: invalid table name: %s", tableName)
	}
	return &cache{db: db, tableName: tableName}, nil
}

func (c *cache) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT value, expires_at FROM %s WHERE key = ?`, quoteIdentifier(c.tableName))

	var value []byte
	var expiresAt sql.NullString

	err := c.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storyhost.ErrNotFound
		}
		return nil, fmt.Errorf("get: %w", err)
	}

	if expiresAt.Valid {
		exp, parseErr := time.Parse(time.RFC3339Nano, expiresAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("get: parse expires_at: %w", parseErr)
		}
		if time.Now().After(exp) {
			// Lazy expiry; a failed cleanup still reads as a miss.
			_ = c.Delete(ctx, key)
			return nil, storyhost.ErrNotFound
		}
	}

	return value, nil
}

func (c *cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UTC().Format(time.RFC3339Nano)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, expires_at = excluded.expires_at`,
		quoteIdentifier(c.tableName))

	if _, err := c.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

func (c *cache) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE key = ?`, quoteIdentifier(c.tableName))

	result, err := c.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", storyhost.ErrNotFound)
	}

	return nil
}
