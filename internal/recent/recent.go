// Package recent keeps the most recent committed searches, newest first.
package recent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/rumah-finder/internal/filter"
)

// StorageKey namespaces recent searches in the local store.
const StorageKey = "rumah.recent-searches"

// Capacity is the number of entries kept.
const Capacity = 5

// Entry is one committed search.
type Entry struct {
	Label     string          `json:"label"`
	Kind      string          `json:"kind,omitempty"`
	Fragment  filter.Fragment `json:"filter_params"`
	CreatedAt time.Time       `json:"created_at"`
}

// Push returns entries with e in front, any entry with the same label
// (case-insensitive) removed, and the list capped at Capacity.
func Push(entries []Entry, e Entry) []Entry {
	out := make([]Entry, 0, Capacity)
	out = append(out, e)
	for _, old := range entries {
		if len(out) == Capacity {
			break
		}
		if strings.EqualFold(old.Label, e.Label) {
			continue
		}
		out = append(out, old)
	}
	return out
}

// Store persists recent searches in SQLite under a storage key.
type Store struct {
	db  *sql.DB
	key string
}

// NewStore creates a store for the default storage key.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, key: StorageKey}
}

// List returns the stored entries, newest first.
func (s *Store) List(ctx context.Context) (entries []Entry, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, kind, fragment_json, created_at FROM recent_searches
		 WHERE storage_key = ? ORDER BY id DESC LIMIT ?`,
		s.key, Capacity,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent searches: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var e Entry
		var raw string
		if err := rows.Scan(&e.Label, &e.Kind, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recent search: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Fragment); err != nil {
			return nil, fmt.Errorf("decoding filter params for %q: %w", e.Label, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recent searches: %w", err)
	}

	return entries, nil
}

// Push stores e as the newest entry, replacing any entry with the same
// label and trimming the list to Capacity.
func (s *Store) Push(ctx context.Context, e Entry) (err error) {
	e.Label = strings.TrimSpace(e.Label)
	if e.Label == "" {
		return fmt.Errorf("label is required")
	}
	if e.Kind == "" {
		e.Kind = "keyword"
	}
	raw, err := json.Marshal(e.Fragment)
	if err != nil {
		return fmt.Errorf("marshaling filter params: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM recent_searches WHERE storage_key = ? AND label = ?`,
		s.key, e.Label,
	); err != nil {
		return fmt.Errorf("removing duplicate: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO recent_searches (storage_key, label, kind, fragment_json) VALUES (?, ?, ?, ?)`,
		s.key, e.Label, e.Kind, string(raw),
	); err != nil {
		return fmt.Errorf("inserting recent search: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM recent_searches WHERE storage_key = ? AND id NOT IN (
			SELECT id FROM recent_searches WHERE storage_key = ? ORDER BY id DESC LIMIT ?
		)`,
		s.key, s.key, Capacity,
	); err != nil {
		return fmt.Errorf("trimming recent searches: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing recent search: %w", err)
	}
	return nil
}

// Clear removes every entry under the storage key.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recent_searches WHERE storage_key = ?`, s.key); err != nil {
		return fmt.Errorf("clearing recent searches: %w", err)
	}
	return nil
}
