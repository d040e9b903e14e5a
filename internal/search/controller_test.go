package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/listing"
)

// fakeFetcher serves listings from a function and records every call.
type fakeFetcher struct {
	mu     sync.Mutex
	list   func(ctx context.Context, p filter.ServerParams) (*listing.Page, error)
	count  func(p filter.ServerParams) (int, error)
	lists  []filter.ServerParams
	counts []filter.ServerParams
}

func (f *fakeFetcher) List(ctx context.Context, p filter.ServerParams) (*listing.Page, error) {
	f.mu.Lock()
	f.lists = append(f.lists, p)
	fn := f.list
	f.mu.Unlock()
	if fn == nil {
		return pageOf(3, intPtr(3)), nil
	}
	return fn(ctx, p)
}

func (f *fakeFetcher) Count(_ context.Context, p filter.ServerParams) (int, error) {
	f.mu.Lock()
	f.counts = append(f.counts, p)
	fn := f.count
	f.mu.Unlock()
	if fn == nil {
		return 0, errors.New("count not configured")
	}
	return fn(p)
}

func (f *fakeFetcher) listCalls() []filter.ServerParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]filter.ServerParams(nil), f.lists...)
}

func (f *fakeFetcher) countCalls() []filter.ServerParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]filter.ServerParams(nil), f.counts...)
}

func intPtr(n int) *int { return &n }

func pageOf(n int, total *int) *listing.Page {
	p := &listing.Page{Total: total}
	for i := 1; i <= n; i++ {
		p.Items = append(p.Items, listing.Property{ID: int64(i), Title: fmt.Sprintf("Rumah %d", i)})
	}
	return p
}

func newController(t *testing.T, f Fetcher, opts Options) *Controller {
	t.Helper()
	if opts.Delay == 0 {
		opts.Delay = 30 * time.Millisecond
	}
	c := New(f, opts)
	t.Cleanup(c.Close)
	return c
}

func TestStartFetchesDefaults(t *testing.T) {
	f := &fakeFetcher{}
	c := newController(t, f, Options{})

	if c.Snapshot().Status != Idle {
		t.Fatalf("status = %v before start", c.Snapshot().Status)
	}
	c.Start()
	c.Wait()

	calls := f.listCalls()
	if len(calls) != 1 {
		t.Fatalf("list calls = %d, want 1", len(calls))
	}
	if got := calls[0].Values().Encode(); got != "limit=12&page=1&sort=newest" {
		t.Errorf("params = %s", got)
	}

	snap := c.Snapshot()
	if snap.Status != Ready || len(snap.Items) != 3 || snap.TotalCount != 3 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Window.TotalPages != 1 || snap.Window.HasNext {
		t.Errorf("window = %+v", snap.Window)
	}
	if len(f.countCalls()) != 0 {
		t.Error("inline total should skip the count request")
	}
}

func TestKeywordDebounce(t *testing.T) {
	f := &fakeFetcher{}
	c := newController(t, f, Options{})

	for _, k := range []string{"a", "ab", "abc"} {
		c.SetKeyword(k)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(80 * time.Millisecond)
	c.Wait()

	calls := f.listCalls()
	if len(calls) != 1 {
		t.Fatalf("list calls = %d, want 1", len(calls))
	}
	if calls[0].Keyword != "abc" {
		t.Errorf("keyword = %q, want abc", calls[0].Keyword)
	}
	if c.Snapshot().Filters.Keyword != "abc" {
		t.Errorf("state keyword = %q", c.Snapshot().Filters.Keyword)
	}
}

func TestFilterChangeResetsPage(t *testing.T) {
	f := &fakeFetcher{list: func(_ context.Context, p filter.ServerParams) (*listing.Page, error) {
		return pageOf(12, intPtr(60)), nil
	}}
	c := newController(t, f, Options{})
	c.Start()
	c.Wait()

	c.SetPage(3)
	c.Wait()
	if got := c.Snapshot().Window.Page; got != 3 {
		t.Fatalf("page = %d, want 3", got)
	}

	c.SetStatus(filter.StatusRent)
	c.Wait()

	calls := f.listCalls()
	last := calls[len(calls)-1]
	if last.Page != 1 || last.SaleType != "sewa" {
		t.Errorf("last call = %+v, want page 1 sewa", last)
	}
	if len(calls) != 3 {
		t.Errorf("list calls = %d, want 3", len(calls))
	}
}

func TestUnchangedParamsDoNotFetch(t *testing.T) {
	f := &fakeFetcher{}
	c := newController(t, f, Options{})
	c.Start()
	c.Wait()

	c.SetLocation(filter.All)
	c.SetPropertyType("")
	c.SetPrice(filter.Range{})
	c.Wait()

	if n := len(f.listCalls()); n != 1 {
		t.Errorf("list calls = %d, want 1", n)
	}
}

func TestCountRequestWhenTotalMissing(t *testing.T) {
	f := &fakeFetcher{
		list: func(_ context.Context, p filter.ServerParams) (*listing.Page, error) {
			return pageOf(12, nil), nil
		},
		count: func(p filter.ServerParams) (int, error) { return 40, nil },
	}
	c := newController(t, f, Options{})
	c.SetLocation("Sleman")
	c.Wait()

	counts := f.countCalls()
	if len(counts) != 1 {
		t.Fatalf("count calls = %d, want 1", len(counts))
	}
	v := counts[0].CountValues()
	if v.Get("regency") != "Sleman" || v.Has("page") || v.Has("limit") {
		t.Errorf("count values = %s", v.Encode())
	}

	snap := c.Snapshot()
	if snap.TotalCount != 40 || snap.Window.TotalPages != 4 {
		t.Errorf("total = %d, pages = %d", snap.TotalCount, snap.Window.TotalPages)
	}
}

func TestCountFailureFallsBackToPage(t *testing.T) {
	f := &fakeFetcher{list: func(_ context.Context, p filter.ServerParams) (*listing.Page, error) {
		return pageOf(5, nil), nil
	}}
	c := newController(t, f, Options{})
	c.Start()
	c.Wait()

	if snap := c.Snapshot(); snap.TotalCount != 5 || snap.Err != nil {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestFetchErrorKeepsPreviousResults(t *testing.T) {
	fail := false
	var mu sync.Mutex
	f := &fakeFetcher{list: func(_ context.Context, p filter.ServerParams) (*listing.Page, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("bad gateway")
		}
		return pageOf(2, intPtr(2)), nil
	}}
	c := newController(t, f, Options{})
	c.Start()
	c.Wait()

	mu.Lock()
	fail = true
	mu.Unlock()
	c.SetSort(filter.SortPriceAsc)
	c.Wait()

	snap := c.Snapshot()
	if snap.Err == nil {
		t.Fatal("expected error in snapshot")
	}
	if snap.Status != Ready || len(snap.Items) != 2 {
		t.Errorf("previous results lost: %+v", snap)
	}
	if snap.Filters.Sort != filter.SortPriceAsc {
		t.Errorf("sort = %q", snap.Filters.Sort)
	}

	mu.Lock()
	fail = false
	mu.Unlock()
	c.Refresh()
	c.Wait()
	if snap := c.Snapshot(); snap.Err != nil {
		t.Errorf("refresh did not clear error: %v", snap.Err)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{list: func(_ context.Context, p filter.ServerParams) (*listing.Page, error) {
		if p.Regency == "Slow" {
			<-release
			return pageOf(9, intPtr(9)), nil
		}
		return pageOf(1, intPtr(1)), nil
	}}
	c := newController(t, f, Options{})

	c.SetLocation("Slow")
	c.SetLocation("Fast")
	time.Sleep(20 * time.Millisecond)
	close(release)
	c.Wait()

	snap := c.Snapshot()
	if len(snap.Items) != 1 || snap.Filters.Location != "Fast" {
		t.Errorf("stale response applied: %+v", snap)
	}
}

func TestSupersededFetchIsCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	f := &fakeFetcher{list: func(ctx context.Context, p filter.ServerParams) (*listing.Page, error) {
		if p.Regency == "Slow" {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return pageOf(1, intPtr(1)), nil
	}}
	c := newController(t, f, Options{})

	c.SetLocation("Slow")
	c.SetLocation("Fast")

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("superseded fetch was not cancelled")
	}
	c.Wait()
	if c.Snapshot().Err != nil {
		t.Errorf("cancellation surfaced as error: %v", c.Snapshot().Err)
	}
}

func TestPageClampsAfterShrink(t *testing.T) {
	f := &fakeFetcher{list: func(_ context.Context, p filter.ServerParams) (*listing.Page, error) {
		if p.Page > 2 {
			return &listing.Page{Total: intPtr(20)}, nil
		}
		return pageOf(8, intPtr(20)), nil
	}}
	c := newController(t, f, Options{})

	st := filter.Default()
	st.Page = 5
	c.SetState(st)
	c.Wait()

	calls := f.listCalls()
	if len(calls) != 2 || calls[0].Page != 5 || calls[1].Page != 2 {
		t.Fatalf("calls = %+v, want page 5 then 2", calls)
	}
	snap := c.Snapshot()
	if snap.Window.Page != 2 || snap.Filters.Page != 2 || len(snap.Items) != 8 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestApplyFragment(t *testing.T) {
	f := &fakeFetcher{}
	c := newController(t, f, Options{})
	c.SetKeyword("pending")
	c.Apply(filter.Fragment{Location: "Badung"})
	time.Sleep(60 * time.Millisecond)
	c.Wait()

	calls := f.listCalls()
	if len(calls) != 1 || calls[0].Regency != "Badung" || calls[0].Keyword != "" {
		t.Errorf("calls = %+v", calls)
	}
}

type fakeFavorites struct {
	calls int
}

func (f *fakeFavorites) Favorites(context.Context) ([]int64, error) {
	f.calls++
	return []int64{2}, nil
}

func TestFavoritesMarked(t *testing.T) {
	fav := &fakeFavorites{}
	c := newController(t, &fakeFetcher{}, Options{Favorites: fav})
	c.Start()
	c.Wait()
	c.SetSort(filter.SortPriceDesc)
	c.Wait()

	items := c.Snapshot().Items
	if items[0].Favorited || !items[1].Favorited {
		t.Errorf("favorites not marked: %+v", items)
	}
	if fav.calls != 1 {
		t.Errorf("favorites fetched %d times, want 1", fav.calls)
	}
}

func TestOnChangeSeesLoading(t *testing.T) {
	var mu sync.Mutex
	var seen []Status
	c := newController(t, &fakeFetcher{}, Options{})
	c.OnChange(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})
	c.Start()
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != Loading || seen[1] != Ready {
		t.Errorf("statuses = %v", seen)
	}
}
