package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/rumah-finder/internal/debounce"
	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/recent"
)

// DefaultDelay is the debounce window for non-empty queries.
const DefaultDelay = 300 * time.Millisecond

// Key is a keyboard input handled by the dropdown.
type Key int

const (
	KeyNone Key = iota
	KeyDown
	KeyUp
	KeyEnter
	KeyEscape
)

// ParseKey maps a DOM key name to a Key.
func ParseKey(name string) Key {
	switch name {
	case "ArrowDown", "down":
		return KeyDown
	case "ArrowUp", "up":
		return KeyUp
	case "Enter", "enter":
		return KeyEnter
	case "Escape", "Esc", "escape":
		return KeyEscape
	}
	return KeyNone
}

// RecentStore persists committed searches.
type RecentStore interface {
	List(ctx context.Context) ([]recent.Entry, error)
	Push(ctx context.Context, e recent.Entry) error
}

// View is what the dropdown renders.
type View struct {
	Open   bool    `json:"open"`
	Query  string  `json:"query"`
	Groups []Group `json:"groups"`
	Cursor int     `json:"cursor"`
}

// Highlighted returns the item under the cursor.
func (v View) Highlighted() (Item, bool) {
	if v.Cursor < 0 {
		return Item{}, false
	}
	i := 0
	for _, g := range v.Groups {
		for _, it := range g.Items {
			if i == v.Cursor {
				return it, true
			}
			i++
		}
	}
	return Item{}, false
}

// Dropdown drives the autocomplete box: it rebuilds suggestions as the query
// changes, tracks a flat keyboard cursor and commits selections to the
// recent search store. Builds that finish after a newer one started are
// dropped.
type Dropdown struct {
	engine    *Engine
	recents   RecentStore
	logger    *slog.Logger
	debouncer *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	open        bool
	query       string
	suggestions Suggestions
	recent      []recent.Entry
	cursor      int
	seq         uint64
	onChange    func(View)
}

// NewDropdown creates a dropdown. recents may be nil.
func NewDropdown(engine *Engine, recents RecentStore, delay time.Duration, logger *slog.Logger) *Dropdown {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dropdown{
		engine:    engine,
		recents:   recents,
		logger:    logger,
		debouncer: debounce.New(delay),
		ctx:       ctx,
		cancel:    cancel,
		cursor:    -1,
	}
}

// OnChange registers fn to receive every new view.
func (d *Dropdown) OnChange(fn func(View)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// View returns the current view.
func (d *Dropdown) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *Dropdown) viewLocked() View {
	v := View{Open: d.open, Query: d.query, Cursor: d.cursor}
	if !d.open {
		return v
	}
	if d.query == "" {
		v.Groups = WithRecent(d.suggestions, d.recent).Groups
		return v
	}
	v.Groups = append(v.Groups, d.suggestions.Groups...)
	return v
}

func (d *Dropdown) itemCountLocked() int {
	n := 0
	for _, g := range d.viewLocked().Groups {
		n += len(g.Items)
	}
	return n
}

// WithRecent returns s with the recent searches prepended as their own
// group. s is not modified.
func WithRecent(s Suggestions, entries []recent.Entry) Suggestions {
	if len(entries) == 0 {
		return s
	}
	groups := make([]Group, 0, len(s.Groups)+1)
	groups = append(groups, Group{Category: CategoryRecent, Items: recentItems(entries)})
	s.Groups = append(groups, s.Groups...)
	return s
}

func recentItems(entries []recent.Entry) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{
			Kind:     KindRecent,
			Label:    e.Label,
			Category: CategoryRecent,
			Fragment: e.Fragment,
			origin:   Kind(e.Kind),
		})
	}
	return items
}

// Focus opens the dropdown and rebuilds for the current query.
func (d *Dropdown) Focus() {
	d.mu.Lock()
	d.open = true
	q := d.query
	d.mu.Unlock()
	d.schedule(q)
}

// SetQuery updates the typed text. Empty text rebuilds at once; anything
// else waits for the debounce window.
func (d *Dropdown) SetQuery(q string) {
	d.mu.Lock()
	d.query = strings.TrimSpace(q)
	d.open = true
	d.cursor = -1
	q = d.query
	d.notifyLocked()
	d.mu.Unlock()
	d.schedule(q)
}

func (d *Dropdown) schedule(q string) {
	if q == "" {
		d.debouncer.Cancel()
		d.build(q)
		return
	}
	d.debouncer.Call(func() { d.build(q) })
}

// build runs one engine build in the background.
func (d *Dropdown) build(q string) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var entries []recent.Entry
		if q == "" && d.recents != nil {
			var err error
			if entries, err = d.recents.List(d.ctx); err != nil {
				d.logger.Warn("loading recent searches", "error", err)
			}
		}
		s := d.engine.Build(d.ctx, q)

		d.mu.Lock()
		defer d.mu.Unlock()
		if seq != d.seq || d.ctx.Err() != nil {
			d.logger.Debug("dropping stale suggestions", "query", q)
			return
		}
		d.suggestions = s
		d.recent = entries
		d.cursor = -1
		d.notifyLocked()
	}()
}

// Wait blocks until builds already started have finished. It does not wait
// for a build still inside its debounce window.
func (d *Dropdown) Wait() {
	d.wg.Wait()
}

// Key handles a key press. It returns the committed fragment when the key
// committed a search.
func (d *Dropdown) Key(k Key) (filter.Fragment, bool) {
	d.mu.Lock()
	switch k {
	case KeyDown:
		if d.open && d.cursor < d.itemCountLocked()-1 {
			d.cursor++
		}
		d.notifyLocked()
	case KeyUp:
		if d.cursor >= 0 {
			d.cursor--
		}
		d.notifyLocked()
	case KeyEscape:
		d.open = false
		d.cursor = -1
		d.debouncer.Cancel()
		d.notifyLocked()
	case KeyEnter:
		item, ok := d.viewLocked().Highlighted()
		if !ok {
			if d.query == "" {
				d.mu.Unlock()
				return filter.Fragment{}, false
			}
			item = Item{Kind: KindKeyword, Label: d.query, Fragment: filter.Fragment{Keyword: d.query}}
		}
		d.mu.Unlock()
		return d.Commit(item), true
	}
	d.mu.Unlock()
	return filter.Fragment{}, false
}

// Commit records item as a recent search, closes the dropdown and returns
// the fragment to apply.
func (d *Dropdown) Commit(item Item) filter.Fragment {
	d.debouncer.Cancel()

	if d.recents != nil {
		if err := d.recents.Push(d.ctx, item.RecentEntry()); err != nil {
			d.logger.Warn("saving recent search", "label", item.Label, "error", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.open = false
	d.cursor = -1
	d.query = item.Label
	d.notifyLocked()
	return item.Fragment
}

// Close stops pending and running builds.
func (d *Dropdown) Close() {
	d.debouncer.Cancel()
	d.cancel()
	d.wg.Wait()
}

func (d *Dropdown) notifyLocked() {
	if d.onChange != nil {
		d.onChange(d.viewLocked())
	}
}
