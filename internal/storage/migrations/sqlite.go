package migrations

import (
	"context"
	"fmt"

	"yieldcurve-lab/internal/storage/sqlite"
)

// RunSqliteMigrations applies all embedded SQLite migrations, one statement at a time.
func RunSqliteMigrations(ctx context.Context, db *sqlite.DB) error {
	files, err := sqlFiles(SqliteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, file := range files {
		stmts, err := readStatements(SqliteFS, "sqlite/"+file)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}
	return nil
}
