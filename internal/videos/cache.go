package videos

import (
	"context"
	"time"

	"github.com/videohub/backend/internal/logging"
)

const metadataKeyPrefix = "metadata:"

// MetadataCache is the subset of the cache adapter used to memoize lookups.
type MetadataCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
}

// CachingProvider wraps another Provider and memoizes successful lookups in
// the shared cache under metadata:<url>.
type CachingProvider struct {
	base  Provider
	cache MetadataCache
	ttl   time.Duration
}

// NewCachingProvider returns a Provider that caches lookups for the provided TTL.
func NewCachingProvider(base Provider, cache MetadataCache, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachingProvider{base: base, cache: cache, ttl: ttl}
}

// Lookup returns cached metadata when available, otherwise it delegates to the
// underlying provider and stores the result. Failed lookups are not cached.
func (c *CachingProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if c == nil || c.base == nil {
		return Metadata{}, ErrProviderUnavailable
	}

	key := metadataKeyPrefix + url

	if c.cache != nil {
		var cached Metadata
		if c.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	metadata, err := c.base.Lookup(ctx, url)
	if err != nil {
		return Metadata{}, err
	}

	if c.cache != nil && !c.cache.Set(ctx, key, metadata, c.ttl) {
		logging.FromContext(ctx).Debug("metadata not cached", "url", url)
	}

	return metadata, nil
}
