package geocache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/evcraddock/rumah-finder/internal/geocode"
)

// These tests need a live Redis; set RF_TEST_REDIS_URL to run them.
func testRedis(t *testing.T) *Redis {
	t.Helper()
	url := os.Getenv("RF_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RF_TEST_REDIS_URL not set")
	}
	client, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute)
}

func TestRedisGetPut(t *testing.T) {
	c := testRedis(t)
	ctx := context.Background()
	key := "rf-test " + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { c.client.Del(context.Background(), keyPrefix+key) })

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("empty get = %v, %v", ok, err)
	}
	if err := c.Put(ctx, key, jakarta); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok || got.Coordinate != jakarta.Coordinate {
		t.Fatalf("get = %+v, %v, %v", got, ok, err)
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error")
	}
}

type stubCache struct {
	entries map[string]geocode.Result
	err     error
	puts    int
}

func (s *stubCache) Get(_ context.Context, q string) (geocode.Result, bool, error) {
	if s.err != nil {
		return geocode.Result{}, false, s.err
	}
	r, ok := s.entries[q]
	return r, ok, nil
}

func (s *stubCache) Put(_ context.Context, q string, r geocode.Result) error {
	s.puts++
	if s.err != nil {
		return s.err
	}
	s.entries[q] = r
	return nil
}

func TestTiered(t *testing.T) {
	ctx := context.Background()
	shared := &stubCache{entries: map[string]geocode.Result{}, err: errors.New("redis down")}
	local := &stubCache{entries: map[string]geocode.Result{"jakarta": jakarta}}
	c := NewTiered(shared, local)

	got, ok, err := c.Get(ctx, "jakarta")
	if err != nil || !ok || got.DisplayName != "Jakarta" {
		t.Fatalf("get = %+v, %v, %v", got, ok, err)
	}

	if err := c.Put(ctx, "bogor", jakarta); err == nil {
		t.Error("expected shared write error to surface")
	}
	if _, ok := local.entries["bogor"]; !ok {
		t.Error("local cache should still be written")
	}
}
