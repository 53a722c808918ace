package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations[i] upgrades the schema from version i to i+1. Statements are
// only ever appended.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS preferences (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			id              TEXT PRIMARY KEY,
			path            TEXT    NOT NULL,
			title           TEXT    NOT NULL DEFAULT '',
			notification_id INTEGER NOT NULL DEFAULT 0,
			endpoint        TEXT    NOT NULL DEFAULT '',
			mime_type       TEXT    NOT NULL DEFAULT '',
			detected_mime   TEXT    NOT NULL DEFAULT '',
			size            INTEGER NOT NULL DEFAULT 0,
			outcome         TEXT    NOT NULL,
			error_kind      TEXT    NOT NULL DEFAULT '',
			error           TEXT    NOT NULL DEFAULT '',
			started_at      TEXT    NOT NULL,
			finished_at     TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_finished ON deliveries(finished_at)`,
	},
}

func schemaVersion() int {
	return len(migrations)
}

// migrate brings the schema up to schemaVersion, one version per
// transaction.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	for v := current; v < schemaVersion(); v++ {
		if err := applyMigration(ctx, db, v+1, migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migration %d: %w\nstatement: %s", version, err, stmt)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("sqlite: record schema version %d: %w", version, err)
	}
	return tx.Commit()
}
