package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/previewhq/storyhost"
)

// Migrate creates the key/value table and its indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	if !storyhost.IsValidTableName(tableName) {
		return fmt.Errorf("migrate: invalid table name: %s", tableName)
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT NOT NULL PRIMARY KEY,
			value BYTEA NOT NULL,
			expires_at TIMESTAMPTZ
		)
	`, tableName)

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("migrate: create table %s: %w", tableName, err)
	}

	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_expires_at ON %s (expires_at)
	`, tableName, tableName)

	if _, err := pool.Exec(ctx, indexSQL); err != nil {
		return fmt.Errorf("migrate: create index expires_at: %w", err)
	}

	return nil
}

// DropTable removes the key/value table.
func DropTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	if !storyhost.IsValidTableName(tableName) {
		return fmt.Errorf("drop: invalid table name: %s", tableName)
	}

	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := pool.Exec(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", tableName, err)
	}
	return nil
}
