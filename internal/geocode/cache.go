package geocode

import (
	"context"
	"log/slog"
	"strings"
)

// Cache stores geocoding hits by normalized query.
type Cache interface {
	Get(ctx context.Context, query string) (Result, bool, error)
	Put(ctx context.Context, query string, res Result) error
}

// CachedSearcher consults a Cache before falling through to another
// Searcher. Only hits are cached. Cache failures are logged and ignored.
type CachedSearcher struct {
	next   Searcher
	cache  Cache
	logger *slog.Logger
}

// NewCachedSearcher wraps next with cache.
func NewCachedSearcher(next Searcher, cache Cache, logger *slog.Logger) *CachedSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{next: next, cache: cache, logger: logger}
}

// Search implements Searcher.
func (s *CachedSearcher) Search(ctx context.Context, query string) (Result, bool, error) {
	key := NormalizeQuery(query)

	res, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("geocode cache read failed", "query", key, "error", err)
	} else if ok {
		return res, true, nil
	}

	res, found, err := s.next.Search(ctx, query)
	if err != nil || !found {
		return res, found, err
	}

	if err := s.cache.Put(ctx, key, res); err != nil {
		s.logger.Warn("geocode cache write failed", "query", key, "error", err)
	}
	return res, true, nil
}

// NormalizeQuery lowercases a query and collapses its whitespace so
// equivalent strings share a cache entry.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
