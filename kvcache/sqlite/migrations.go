package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/previewhq/storyhost"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the key/value table and its indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, tableName string) error {
	if !storyhost.IsValidTableName(tableName) {
		return fmt.Errorf("migrate: invalid table name: %s", tableName)
	}

	quotedTable := quoteIdentifier(tableName)
	indexExpiresAt := quoteIdentifier(fmt.Sprintf("idx_%s_expires_at", tableName))

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT NOT NULL PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at TEXT
		)
	`, quotedTable)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("migrate: create table %s: %w", tableName, err)
	}

	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s ON %s (expires_at)
	`, indexExpiresAt, quotedTable)

	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("migrate: create index expires_at: %w", err)
	}

	return nil
}

// DropTable removes the key/value table.
func DropTable(ctx context.Context, db *sql.DB, tableName string) error {
	if !storyhost.IsValidTableName(tableName) {
		return fmt.Errorf("drop: invalid table name: %s", tableName)
	}

	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("drop table %s: %w", tableName, err)
	}
	return nil
}
