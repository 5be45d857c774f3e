package store

import "database/sql"

// runMigrations creates the snapshot schema if it does not exist.
func runMigrations(db *sql.DB) error {
	migrations := []string{
		// Examples table - one row per labeled feature vector, seq is insertion order
		`CREATE TABLE IF NOT EXISTS examples (
			seq INTEGER PRIMARY KEY,
			label TEXT NOT NULL CHECK(label <> ''),
			vector BLOB NOT NULL
		)`,

		// Snapshot metadata - format version, dimension, snapshot id, save time
		`CREATE TABLE IF NOT EXISTS snapshot_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
