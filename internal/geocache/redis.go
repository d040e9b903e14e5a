package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evcraddock/rumah-finder/internal/geocode"
)

const keyPrefix = "geocode:"

// Redis caches geocoding hits in a shared Redis instance.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opt.DialTimeout = 5 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// NewRedis creates a cache on client. A non-positive ttl uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

type redisEntry struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Geohash     string  `json:"geohash"`
	DisplayName string  `json:"display_name"`
}

// Get returns the cached hit for query.
func (c *Redis) Get(ctx context.Context, query string) (geocode.Result, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+query).Bytes()
	if errors.Is(err, redis.Nil) {
		return geocode.Result{}, false, nil
	}
	if err != nil {
		return geocode.Result{}, false, fmt.Errorf("reading %s: %w", keyPrefix+query, err)
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return geocode.Result{}, false, fmt.Errorf("decoding %s: %w", keyPrefix+query, err)
	}
	return geocode.Result{
		Coordinate:  geocode.Coordinate{Lat: e.Lat, Lon: e.Lon},
		DisplayName: e.DisplayName,
	}, true, nil
}

// Put stores res for query with the cache TTL.
func (c *Redis) Put(ctx context.Context, query string, res geocode.Result) error {
	raw, err := json.Marshal(redisEntry{
		Lat:         res.Lat,
		Lon:         res.Lon,
		Geohash:     res.Geohash(),
		DisplayName: res.DisplayName,
	})
	if err != nil {
		return fmt.Errorf("encoding geocode entry: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+query, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", keyPrefix+query, err)
	}
	return nil
}

// Tiered reads the shared cache first and falls back to the local one,
// writing hits to both.
type Tiered struct {
	shared geocode.Cache
	local  geocode.Cache
}

// NewTiered combines a shared and a local cache.
func NewTiered(shared, local geocode.Cache) *Tiered {
	return &Tiered{shared: shared, local: local}
}

// Get implements geocode.Cache.
func (t *Tiered) Get(ctx context.Context, query string) (geocode.Result, bool, error) {
	res, ok, sharedErr := t.shared.Get(ctx, query)
	if sharedErr == nil && ok {
		return res, true, nil
	}
	res, ok, err := t.local.Get(ctx, query)
	if err != nil {
		return geocode.Result{}, false, errors.Join(sharedErr, err)
	}
	return res, ok, nil
}

// Put implements geocode.Cache.
func (t *Tiered) Put(ctx context.Context, query string, res geocode.Result) error {
	return errors.Join(t.shared.Put(ctx, query, res), t.local.Put(ctx, query, res))
}
