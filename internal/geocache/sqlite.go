// Package geocache stores geocoding hits so repeated address lookups do not
// reach the geocoding service.
package geocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evcraddock/rumah-finder/internal/geocode"
)

// DefaultTTL is how long a cached hit stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// SQLite caches geocoding hits in the local database.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite creates a cache on db. A non-positive ttl uses DefaultTTL.
func NewSQLite(db *sql.DB, ttl time.Duration) *SQLite {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}
}

// Get returns the cached hit for query if it has not expired.
func (c *SQLite) Get(ctx context.Context, query string) (geocode.Result, bool, error) {
	var res geocode.Result
	err := c.db.QueryRowContext(ctx,
		`SELECT lat, lon, display_name FROM geocode_cache WHERE query = ? AND expires_at > ?`,
		query, c.now().UTC(),
	).Scan(&res.Lat, &res.Lon, &res.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return geocode.Result{}, false, nil
	}
	if err != nil {
		return geocode.Result{}, false, fmt.Errorf("reading geocode cache: %w", err)
	}
	return res, true, nil
}

// Put stores res for query, replacing any previous entry.
func (c *SQLite) Put(ctx context.Context, query string, res geocode.Result) error {
	now := c.now().UTC()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query, lat, lon, geohash, display_name, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET
			lat = excluded.lat,
			lon = excluded.lon,
			geohash = excluded.geohash,
			display_name = excluded.display_name,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		query, res.Lat, res.Lon, res.Geohash(), res.DisplayName, now, now.Add(c.ttl),
	)
	if err != nil {
		return fmt.Errorf("writing geocode cache: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *SQLite) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE expires_at <= ?`, c.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning geocode cache: %w", err)
	}
	return res.RowsAffected()
}

// Near returns cached hits whose geohash shares the given prefix.
func (c *SQLite) Near(ctx context.Context, prefix string) (results []geocode.Result, err error) {
	if prefix == "" {
		return nil, fmt.Errorf("geohash prefix is required")
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT lat, lon, display_name FROM geocode_cache
		 WHERE geohash LIKE ? || '%' AND expires_at > ? ORDER BY query`,
		prefix, c.now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying geocode cache: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var r geocode.Result
		if err := rows.Scan(&r.Lat, &r.Lon, &r.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning geocode cache: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
