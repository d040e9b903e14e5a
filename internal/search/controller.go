// Package search drives the listing page: it owns the filter state, turns
// changes into listing fetches and reconciles the results with pagination.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/rumah-finder/internal/debounce"
	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/listing"
	"github.com/evcraddock/rumah-finder/internal/pagination"
)

// DefaultDelay is the keyword debounce window.
const DefaultDelay = 400 * time.Millisecond

// Status is the loading state of the result list.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	}
	return "idle"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fetcher is the listing API used by the controller.
type Fetcher interface {
	List(ctx context.Context, p filter.ServerParams) (*listing.Page, error)
	Count(ctx context.Context, p filter.ServerParams) (int, error)
}

// FavoritesFetcher returns the IDs of favorited listings.
type FavoritesFetcher interface {
	Favorites(ctx context.Context) ([]int64, error)
}

// Snapshot is the observable state of the listing page. On a failed fetch
// Items and Window keep the last good result and Err is set.
type Snapshot struct {
	Filters    filter.State       `json:"filters"`
	Status     Status             `json:"status"`
	Items      []listing.Property `json:"items"`
	TotalCount int                `json:"total_count"`
	Window     pagination.Window  `json:"pagination"`
	Err        error              `json:"-"`
}

// Options configures a Controller.
type Options struct {
	Limit     int
	Delay     time.Duration
	Favorites FavoritesFetcher
	Logger    *slog.Logger
}

// Controller owns one listing page's filter state. Keyword changes are
// debounced; every other change applies at once. Each committed change to
// the derived server parameters issues exactly one fetch, and a fetch
// superseded by a newer one is cancelled and its response dropped.
type Controller struct {
	fetcher   Fetcher
	favorites FavoritesFetcher
	limit     int
	logger    *slog.Logger
	debouncer *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	state     filter.State
	issued    *filter.ServerParams
	seq       uint64
	inflight  context.CancelFunc
	snap      Snapshot
	favIDs    []int64
	favLoaded bool
	onChange  func(Snapshot)
}

// New creates a controller with the default filter state. Nothing is
// fetched until Start.
func New(f Fetcher, opts Options) *Controller {
	if opts.Limit <= 0 {
		opts.Limit = filter.DefaultLimit
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := filter.Default()
	return &Controller{
		fetcher:   f,
		favorites: opts.Favorites,
		limit:     opts.Limit,
		logger:    opts.Logger,
		debouncer: debounce.New(opts.Delay),
		ctx:       ctx,
		cancel:    cancel,
		state:     state,
		snap:      Snapshot{Filters: state, Status: Idle},
	}
}

// OnChange registers fn to receive every new snapshot. fn is called with
// the controller locked and must not call back into it.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Start issues the first fetch for the current state.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
}

// Refresh refetches the current state even when nothing changed.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued = nil
	c.refreshLocked()
}

// SetKeyword schedules a keyword change. Only the last keyword set within
// the debounce window is committed.
func (c *Controller) SetKeyword(k string) {
	c.debouncer.Call(func() {
		c.update(func(s *filter.State) { s.Keyword = k })
	})
}

// SetStatus changes the sale/rent filter.
func (c *Controller) SetStatus(st filter.Status) {
	c.update(func(s *filter.State) { s.Status = st })
}

// SetPropertyType changes the property type filter.
func (c *Controller) SetPropertyType(id string) {
	c.update(func(s *filter.State) { s.PropertyType = id })
}

// SetPrice changes the price bucket.
func (c *Controller) SetPrice(r filter.Range) {
	c.update(func(s *filter.State) { s.Price = r })
}

// SetLandArea changes the land area bucket.
func (c *Controller) SetLandArea(r filter.Range) {
	c.update(func(s *filter.State) { s.LandArea = r })
}

// SetBedrooms changes the minimum bedroom count.
func (c *Controller) SetBedrooms(n filter.Count) {
	c.update(func(s *filter.State) { s.Bedrooms = n })
}

// SetBathrooms changes the minimum bathroom count.
func (c *Controller) SetBathrooms(n filter.Count) {
	c.update(func(s *filter.State) { s.Bathrooms = n })
}

// SetLocation changes the regency filter.
func (c *Controller) SetLocation(loc string) {
	c.update(func(s *filter.State) { s.Location = loc })
}

// SetSort changes the sort order.
func (c *Controller) SetSort(so filter.Sort) {
	c.update(func(s *filter.State) { s.Sort = so })
}

// Apply applies a suggestion or recent search fragment.
func (c *Controller) Apply(f filter.Fragment) {
	c.debouncer.Cancel()
	c.update(func(s *filter.State) { *s = s.Apply(f) })
}

// SetState replaces the whole filter state.
func (c *Controller) SetState(st filter.State) {
	c.debouncer.Cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if st.Page < 1 {
		st.Page = 1
	}
	c.state = st
	c.refreshLocked()
}

// Reset restores the default filters.
func (c *Controller) Reset() {
	c.SetState(filter.Default())
}

// SetPage moves to page without touching the filters.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Page = pagination.Clamp(page, c.snap.Window.TotalPages)
	c.refreshLocked()
}

// update applies a filter change and resets the page to 1.
func (c *Controller) update(fn func(*filter.State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.state.Page = 1
	c.refreshLocked()
}

// refreshLocked issues a fetch when the derived server parameters differ
// from the last ones issued.
func (c *Controller) refreshLocked() {
	c.snap.Filters = c.state
	params := filter.BuildServerParams(c.state, c.limit)
	if c.issued != nil && c.issued.Equal(params) {
		c.notifyLocked()
		return
	}
	c.fetchLocked(params)
}

// response is the outcome of one fetch, tagged with its sequence number.
type response struct {
	seq   uint64
	page  *listing.Page
	total int
	err   error
}

func (c *Controller) fetchLocked(params filter.ServerParams) {
	if c.inflight != nil {
		c.inflight()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.issued = &params

	c.snap.Status = Loading
	c.notifyLocked()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.apply(c.fetch(ctx, seq, params))
	}()
}

func (c *Controller) fetch(ctx context.Context, seq uint64, params filter.ServerParams) response {
	page, err := c.fetcher.List(ctx, params)
	if err != nil {
		return response{seq: seq, err: err}
	}

	total := 0
	if page.Total != nil {
		total = *page.Total
	} else {
		n, err := c.fetcher.Count(ctx, params)
		switch {
		case err == nil:
			total = n
		case ctx.Err() != nil:
			return response{seq: seq, err: ctx.Err()}
		default:
			c.logger.Warn("counting listings failed, using page length", "error", err)
			total = pagination.Offset(params.Page, params.Limit) + len(page.Items)
		}
	}

	if ids := c.favoriteIDs(ctx); len(ids) > 0 {
		listing.MarkFavorites(page.Items, ids)
	}

	return response{seq: seq, page: page, total: total}
}

// favoriteIDs loads the favorites once per controller.
func (c *Controller) favoriteIDs(ctx context.Context) []int64 {
	if c.favorites == nil {
		return nil
	}
	c.mu.Lock()
	if c.favLoaded {
		ids := c.favIDs
		c.mu.Unlock()
		return ids
	}
	c.mu.Unlock()

	ids, err := c.favorites.Favorites(ctx)
	if err != nil {
		c.logger.Warn("loading favorites", "error", err)
		return nil
	}

	c.mu.Lock()
	c.favIDs, c.favLoaded = ids, true
	c.mu.Unlock()
	return ids
}

// apply publishes a fetch outcome unless a newer fetch has been issued.
func (c *Controller) apply(r response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.seq != c.seq {
		c.logger.Debug("dropping stale listing response", "seq", r.seq, "current", c.seq)
		return
	}
	c.inflight = nil

	if r.err != nil {
		if errors.Is(r.err, context.Canceled) {
			return
		}
		c.logger.Warn("fetching listings failed", "error", r.err)
		c.issued = nil
		c.snap.Status = Ready
		c.snap.Err = r.err
		c.notifyLocked()
		return
	}

	totalPages := pagination.TotalPages(r.total, c.limit)
	if totalPages > 0 && c.state.Page > totalPages {
		c.logger.Debug("page past the end, clamping", "page", c.state.Page, "total_pages", totalPages)
		c.state.Page = totalPages
		c.refreshLocked()
		return
	}

	c.snap = Snapshot{
		Filters:    c.state,
		Status:     Ready,
		Items:      r.page.Items,
		TotalCount: r.total,
		Window:     pagination.NewWindow(c.state.Page, r.total, c.limit),
	}
	c.notifyLocked()
}

// Wait blocks until every issued fetch has finished. It does not wait for
// a keyword still inside its debounce window.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels the pending keyword and every in-flight fetch and waits
// for them to return.
func (c *Controller) Close() {
	c.debouncer.Cancel()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.snap)
	}
}
