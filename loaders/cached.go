package loaders

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/oarkflow/permit"
)

// Cache is a TTL'd identity cache shared across loaders. The gate itself
// never caches; any caching policy belongs here, on the loader side, where
// the application owns the staleness tradeoff.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// NewCache builds a ristretto-backed cache. Zero sizing arguments fall back
// to defaults suitable for a few thousand subjects.
func NewCache(numCounters, maxCost, bufferItems int64, ttl time.Duration) (*Cache, error) {
	if numCounters <= 0 {
		numCounters = 100_000
	}
	if maxCost <= 0 {
		maxCost = 10_000
	}
	if bufferItems <= 0 {
		bufferItems = 64
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Invalidate evicts one subject, forcing the next load through to the
// inner loader.
func (c *Cache) Invalidate(key string) {
	c.c.Del(key)
}

// Wait blocks until pending cache writes are applied (test hook).
func (c *Cache) Wait() {
	c.c.Wait()
}

// Cached wraps an inner loader with the cache under the given key,
// typically the subject ID. Loader failures are never cached.
func Cached[S any](c *Cache, key string, inner permit.IdentityLoader[S]) permit.IdentityLoader[S] {
	return func(ctx context.Context) (S, error) {
		if v, ok := c.c.Get(key); ok {
			if s, ok2 := v.(S); ok2 {
				return s, nil
			}
		}
		s, err := inner(ctx)
		if err != nil {
			var zero S
			return zero, err
		}
		c.c.SetWithTTL(key, s, 1, c.ttl)
		return s, nil
	}
}
