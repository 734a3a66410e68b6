package store

import (
	"database/sql"
	"fmt"

	"nutriplan/internal/logging"
)

// Schema versions, tracked in PRAGMA user_version:
// v1: kv table
// v2: updated_at index for export ordering
const CurrentSchemaVersion = 2

var migrations = []string{
	1: `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	2: `CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at)`,
}

// SchemaVersion reads the database's user_version.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// migrate applies every migration newer than the stored version, each in its
// own transaction together with the version bump.
func migrate(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "migrate")
	defer timer.Stop()

	from, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if from > CurrentSchemaVersion {
		return fmt.Errorf("database schema v%d is newer than supported v%d", from, CurrentSchemaVersion)
	}

	for v := from + 1; v <= CurrentSchemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration v%d: %w", v, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d: %w", v, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration v%d: %w", v, err)
		}
		logging.StoreDebug("Applied schema migration v%d", v)
	}

	if from < CurrentSchemaVersion {
		logging.Store("Schema migrated from v%d to v%d", from, CurrentSchemaVersion)
	}
	return nil
}
