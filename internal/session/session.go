// Package session wires the discovery components for one user session:
// API clients, the local store, the geocode cache and the location
// directory. Components get their collaborators from a Session instead of
// package-level state.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/evcraddock/rumah-finder/internal/config"
	"github.com/evcraddock/rumah-finder/internal/db"
	"github.com/evcraddock/rumah-finder/internal/geocache"
	"github.com/evcraddock/rumah-finder/internal/geocode"
	"github.com/evcraddock/rumah-finder/internal/listing"
	"github.com/evcraddock/rumah-finder/internal/recent"
	"github.com/evcraddock/rumah-finder/internal/search"
	"github.com/evcraddock/rumah-finder/internal/suggest"
)

// Session holds everything the discovery components share.
type Session struct {
	ID string

	cfg    config.Config
	logger *slog.Logger

	db       *sql.DB
	redis    *redis.Client
	listings *listing.Client
	geocoder geocode.Searcher
	places   *geocache.SQLite
	recents  *recent.Store
	engine   *suggest.Engine

	directory atomic.Pointer[suggest.Directory]
	ready     chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open wires a session from cfg and starts building the location
// directory in the background. Until it is built, Directory returns an
// empty directory.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session", id)

	path := cfg.DBPath
	if path == "" {
		var err error
		if path, err = db.DefaultPath(); err != nil {
			return nil, err
		}
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	s := &Session{
		ID:     id,
		cfg:    cfg,
		logger: logger,
		db:     database,
		ready:  make(chan struct{}),
	}
	s.directory.Store(suggest.NewDirectory(nil))

	s.listings = listing.New(cfg.APIURL,
		listing.WithToken(cfg.APIToken),
		listing.WithStrictSchema(cfg.StrictSchema),
		listing.WithLogger(logger),
	)
	s.recents = recent.NewStore(database)

	s.places = geocache.NewSQLite(database, cfg.GeocodeCacheTTL)
	var cache geocode.Cache = s.places
	if cfg.RedisURL != "" {
		client, err := geocache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, using local geocode cache only", "error", err)
		} else {
			s.redis = client
			cache = geocache.NewTiered(geocache.NewRedis(client, cfg.GeocodeCacheTTL), cache)
		}
	}
	s.geocoder = geocode.NewCachedSearcher(
		geocode.NewClient(
			geocode.WithSearchURL(cfg.GeocoderURL),
			geocode.WithUserAgent(cfg.UserAgent),
			geocode.WithTimeout(cfg.GeocodeTimeout),
		),
		cache,
		logger,
	)
	s.engine = suggest.NewEngine(s.Directory, s.listings, logger)

	bctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.ready)
		s.directory.Store(suggest.Bootstrap(bctx, s.listings, cfg.SampleSize, logger))
		if n, err := s.places.Prune(bctx); err != nil {
			logger.Warn("pruning geocode cache", "error", err)
		} else if n > 0 {
			logger.Debug("pruned geocode cache", "removed", n)
		}
	}()

	logger.Debug("session opened", "db", path, "api", cfg.APIURL)
	return s, nil
}

// Directory returns the current location directory. It is empty until the
// bootstrap finishes and never nil.
func (s *Session) Directory() *suggest.Directory {
	return s.directory.Load()
}

// WaitDirectory blocks until the bootstrap has finished or ctx is done.
func (s *Session) WaitDirectory(ctx context.Context) (*suggest.Directory, error) {
	select {
	case <-s.ready:
		return s.Directory(), nil
	case <-ctx.Done():
		return s.Directory(), ctx.Err()
	}
}

// Listings returns the property API client.
func (s *Session) Listings() *listing.Client { return s.listings }

// Recents returns the recent search store.
func (s *Session) Recents() *recent.Store { return s.recents }

// Geocoder returns the cached geocoder.
func (s *Session) Geocoder() geocode.Searcher { return s.geocoder }

// NearbyPlaces returns cached geocoding hits inside the geohash cell
// prefix.
func (s *Session) NearbyPlaces(ctx context.Context, prefix string) ([]geocode.Result, error) {
	return s.places.Near(ctx, prefix)
}

// Suggestions returns the suggestion engine.
func (s *Session) Suggestions() *suggest.Engine { return s.engine }

// NewSearch creates a listing page controller. The caller must Close it.
func (s *Session) NewSearch() *search.Controller {
	return search.New(s.listings, search.Options{
		Limit:     s.cfg.PerPage,
		Delay:     s.cfg.SearchDelay,
		Favorites: s.listings,
		Logger:    s.logger,
	})
}

// NewDropdown creates an autocomplete dropdown. The caller must Close it.
func (s *Session) NewDropdown() *suggest.Dropdown {
	return suggest.NewDropdown(s.engine, s.recents, s.cfg.SuggestDelay, s.logger)
}

// NewResolver creates a geocoding resolver for one address form.
func (s *Session) NewResolver() *geocode.Resolver {
	return geocode.NewResolver(s.geocoder, s.logger)
}

// Close stops the bootstrap and releases the store and cache connections.
func (s *Session) Close() error {
	s.cancel()
	s.wg.Wait()

	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	return errors.Join(errs...)
}
