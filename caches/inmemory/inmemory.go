// Package inmemory provides a process-local cache backend backed by
// patrickmn/go-cache with TTL-based expiry.
package inmemory

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Jflick58/langchain/caches"
)

// Cache is an in-memory caches.Cache.
type Cache struct {
	store *gocache.Cache

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// Config holds configuration for the in-memory cache.
type Config struct {
	DefaultTTL      time.Duration // default: 10 minutes
	CleanupInterval time.Duration // default: 1 minute
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// New creates an in-memory cache.
func New(cfg Config) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 10 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return &Cache{
		store: gocache.New(cfg.DefaultTTL, cfg.CleanupInterval),
	}
}

// Get retrieves a value. Missing or expired keys return nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, found := c.store.Get(key)
	if !found {
		c.misses.Add(1)
		return nil, nil
	}

	data, ok := val.([]byte)
	if !ok {
		c.misses.Add(1)
		return nil, nil
	}

	c.hits.Add(1)
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Set stores a value. Zero TTL uses the configured default.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, stored, ttl)
	c.sets.Add(1)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Ping always succeeds for the in-memory cache.
func (c *Cache) Ping(ctx context.Context) error {
	return nil
}

// Close flushes all entries.
func (c *Cache) Close() error {
	c.store.Flush()
	return nil
}

// Stats returns cache counters.
func (c *Cache) Stats() caches.Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	return caches.Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		HitRate: caches.HitRateOf(hits, misses),
	}
}

// Len reports how many items are currently stored.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

var _ caches.Cache = (*Cache)(nil)
