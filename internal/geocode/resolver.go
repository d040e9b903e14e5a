package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// State is the detection state of a Resolver.
type State int

const (
	Idle State = iota
	Detecting
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Detecting:
		return "detecting"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "idle"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Source records which input produced the current coordinate.
type Source string

const (
	SourceDetect Source = "detect"
	SourceManual Source = "manual"
	SourceClick  Source = "click"
	SourceDrag   Source = "drag"
)

// Address holds the structured address fields of a listing form.
type Address struct {
	Address  string `json:"address"`
	District string `json:"district"`
	Regency  string `json:"regency"`
	Province string `json:"province"`
}

// HasRegion reports whether any of district, regency or province is set.
func (a Address) HasRegion() bool {
	return strings.TrimSpace(a.District) != "" ||
		strings.TrimSpace(a.Regency) != "" ||
		strings.TrimSpace(a.Province) != ""
}

// Queries returns the fallback query strings in the order they are tried:
// full address, district+regency+province, regency+province. A level equal
// to the one before it is dropped.
func (a Address) Queries() []string {
	levels := []string{
		joinParts(a.Address, a.District, a.Regency, a.Province),
		joinParts(a.District, a.Regency, a.Province),
		joinParts(a.Regency, a.Province),
	}

	var out []string
	for _, q := range levels {
		if q == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == q {
			continue
		}
		out = append(out, q)
	}
	return out
}

func joinParts(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// Snapshot is the observable state of a Resolver.
type Snapshot struct {
	State       State       `json:"state"`
	Coordinate  *Coordinate `json:"coordinate,omitempty"`
	Source      Source      `json:"source,omitempty"`
	Query       string      `json:"query,omitempty"`
	DisplayName string      `json:"display_name,omitempty"`
	Err         error       `json:"-"`
}

// Resolver owns the coordinate of an address form. Coordinates come from
// Detect, typed entry, map clicks or marker drags; the latest input wins.
type Resolver struct {
	mu       sync.Mutex
	searcher Searcher
	logger   *slog.Logger
	snap     Snapshot
	gen      uint64
	onChange func(Snapshot)
}

// NewResolver creates a resolver backed by s.
func NewResolver(s Searcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{searcher: s, logger: logger}
}

// OnChange registers fn to be called with every new snapshot. fn must not
// call back into the resolver.
func (r *Resolver) OnChange(fn func(Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Snapshot returns the current state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Detect geocodes addr, trying each fallback level until one returns a
// match inside Indonesia. It fails with ErrMissingRegion before any network
// call when no region field is set, and with ErrNotFound when every level
// comes back empty. If another input replaces the coordinate while Detect
// is running, the detected result is returned but not applied.
func (r *Resolver) Detect(ctx context.Context, addr Address) (Result, error) {
	if !addr.HasRegion() {
		return Result{}, ErrMissingRegion
	}

	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.snap.State = Detecting
	r.snap.Err = nil
	r.notifyLocked()
	r.mu.Unlock()

	var lastErr error
	for _, q := range addr.Queries() {
		res, found, err := r.searcher.Search(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				r.fail(gen, ctxErr)
				return Result{}, ctxErr
			}
			r.logger.Warn("geocoding query failed", "query", q, "error", err)
			lastErr = err
			continue
		}
		if !found {
			r.logger.Debug("geocoding query returned nothing", "query", q)
			continue
		}
		if !res.InIndonesia() {
			r.logger.Warn("geocoding result outside Indonesia", "query", q, "coordinate", res.Coordinate.String())
			continue
		}

		r.mu.Lock()
		if gen == r.gen {
			c := res.Coordinate
			r.snap = Snapshot{
				State:       Resolved,
				Coordinate:  &c,
				Source:      SourceDetect,
				Query:       q,
				DisplayName: res.DisplayName,
			}
			r.notifyLocked()
		}
		r.mu.Unlock()
		return res, nil
	}

	err := ErrNotFound
	if lastErr != nil {
		err = fmt.Errorf("%w: %w", ErrNotFound, lastErr)
	}
	r.fail(gen, err)
	return Result{}, err
}

func (r *Resolver) fail(gen uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	r.snap.State = Failed
	r.snap.Err = err
	r.notifyLocked()
}

// SetManual accepts a typed coordinate. Values outside Indonesia are
// rejected with ErrOutOfBounds and leave the state untouched.
func (r *Resolver) SetManual(lat, lon float64) (Coordinate, error) {
	return r.accept(lat, lon, SourceManual)
}

// Click moves the marker to a clicked map point and accepts it.
func (r *Resolver) Click(lat, lon float64) (Coordinate, error) {
	return r.accept(lat, lon, SourceClick)
}

// Drag accepts the position a marker was dragged to.
func (r *Resolver) Drag(lat, lon float64) (Coordinate, error) {
	return r.accept(lat, lon, SourceDrag)
}

func (r *Resolver) accept(lat, lon float64, src Source) (Coordinate, error) {
	c, err := NewCoordinate(lat, lon)
	if err != nil {
		return Coordinate{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.snap = Snapshot{State: Resolved, Coordinate: &c, Source: src}
	r.notifyLocked()
	return c, nil
}

// Reset clears the coordinate and returns to Idle. A Detect still running
// is discarded.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.snap = Snapshot{State: Idle}
	r.notifyLocked()
}

func (r *Resolver) notifyLocked() {
	if r.onChange != nil {
		r.onChange(r.snap)
	}
}

// IsValidation reports whether err is a local validation failure rather
// than a lookup failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingRegion) || errors.Is(err, ErrOutOfBounds)
}
