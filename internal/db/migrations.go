package db

import (
	"database/sql"
	"fmt"
)

// schema holds one statement per schema version. Version n has applied
// schema[:n]; the current version is kept in PRAGMA user_version. Append
// only.
var schema = []string{
	`CREATE TABLE recent_searches (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		storage_key   TEXT     NOT NULL,
		label         TEXT     NOT NULL COLLATE NOCASE,
		kind          TEXT     NOT NULL DEFAULT 'keyword',
		fragment_json TEXT     NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (storage_key, label)
	)`,
	`CREATE TABLE geocode_cache (
		query        TEXT     PRIMARY KEY,
		lat          REAL     NOT NULL CHECK (lat >= -90 AND lat <= 90),
		lon          REAL     NOT NULL CHECK (lon >= -180 AND lon <= 180),
		geohash      TEXT     NOT NULL,
		display_name TEXT     NOT NULL DEFAULT '',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX idx_geocode_cache_geohash ON geocode_cache (geohash)`,
	`CREATE INDEX idx_geocode_cache_expires ON geocode_cache (expires_at)`,
}

// SchemaVersion is the version a freshly migrated database reports.
var SchemaVersion = len(schema)

// migrate applies every schema step above the stored version, one
// transaction per step.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(schema) {
		return fmt.Errorf("schema version %d is newer than this build supports (%d)", version, len(schema))
	}

	for v := version; v < len(schema); v++ {
		if err := step(db, v+1, schema[v]); err != nil {
			return err
		}
	}
	return nil
}

func step(db *sql.DB, version int, stmt string) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting migration %d: %w", version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(stmt); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err = tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("recording schema version %d: %w", version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}
