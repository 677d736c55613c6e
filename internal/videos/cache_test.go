package videos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/videohub/backend/internal/cache"
)

type stubProvider struct {
	metadata Metadata
	err      error
	calls    int
}

func (s *stubProvider) Lookup(context.Context, string) (Metadata, error) {
	s.calls++
	if s.err != nil {
		return Metadata{}, s.err
	}
	return s.metadata, nil
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *cache.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, cache.New(rdb)
}

func TestCachingProviderLookup(t *testing.T) {
	mr, client := newTestCache(t)
	base := &stubProvider{metadata: Metadata{Title: "Test", Duration: 30}}
	provider := NewCachingProvider(base, client, time.Minute)

	ctx := context.Background()

	meta, err := provider.Lookup(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if meta.Title != "Test" || meta.Duration != 30 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if base.calls != 1 {
		t.Fatalf("expected base called once got %d", base.calls)
	}
	if ttl := mr.TTL("metadata:https://example.com"); ttl != time.Minute {
		t.Fatalf("expected cached entry with ttl, got %v", ttl)
	}

	meta, err = provider.Lookup(ctx, "https://example.com")
	if err != nil {
		t.Fatalf("lookup cached: %v", err)
	}
	if meta.Title != "Test" {
		t.Fatalf("unexpected cached metadata: %+v", meta)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached lookup to skip base, got %d calls", base.calls)
	}

	mr.FastForward(time.Minute + time.Second)
	if _, err := provider.Lookup(ctx, "https://example.com"); err != nil {
		t.Fatalf("lookup after expiry: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected expired entry to hit base again, got %d calls", base.calls)
	}
}

func TestCachingProviderDoesNotCacheErrors(t *testing.T) {
	mr, client := newTestCache(t)
	base := &stubProvider{err: errors.New("boom")}
	provider := NewCachingProvider(base, client, time.Minute)

	if _, err := provider.Lookup(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error")
	}
	if mr.Exists("metadata:https://example.com") {
		t.Fatal("failed lookups must not be cached")
	}
}

func TestCachingProviderWithoutCache(t *testing.T) {
	base := &stubProvider{metadata: Metadata{Title: "Test"}}
	provider := NewCachingProvider(base, nil, 0)

	for i := 0; i < 2; i++ {
		if _, err := provider.Lookup(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("lookup: %v", err)
		}
	}
	if base.calls != 2 {
		t.Fatalf("expected every lookup to reach base, got %d", base.calls)
	}
}

func TestCachingProviderNilBase(t *testing.T) {
	var provider *CachingProvider
	if _, err := provider.Lookup(context.Background(), "https://example.com"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
