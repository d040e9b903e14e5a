// Package db provides the local SQLite store for client-side state:
// recent searches and cached geocoding results.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath returns the default database path: ~/.rumah-finder/rumah.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".rumah-finder", "rumah.db"), nil
}

// dsnOptions are applied to every connection in the pool. The backend and
// the CLI may have the same file open at once.
var dsnOptions = url.Values{
	"_busy_timeout": {"5000"},
	"_journal_mode": {"WAL"},
	"_txlock":       {"immediate"},
}

// Open opens (or creates) the database at path and brings its schema up to
// date.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?"+dsnOptions.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("migrating %s: %w (also failed to close: %v)", path, err, closeErr)
		}
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	return db, nil
}
