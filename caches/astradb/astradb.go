// Package astradb provides a cache backed by an Astra DB Data API
// collection. Values are stored base64-encoded with an expiry timestamp
// checked on read, since the Data API has no server-side TTL.
package astradb

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Jflick58/langchain/caches"
	"github.com/Jflick58/langchain/internal/astra"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "llm_cache"

// Cache implements caches.Cache on an Astra DB collection.
type Cache struct {
	client     *astra.Client
	collection string
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	errs   atomic.Int64
}

// Option configures the cache.
type Option func(*Cache)

// WithCollection selects the collection name.
func WithCollection(name string) Option {
	return func(c *Cache) { c.collection = name }
}

// WithDefaultTTL sets the TTL used when Set receives zero.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// New creates an Astra DB cache and ensures its collection exists.
func New(ctx context.Context, client *astra.Client, opts ...Option) (*Cache, error) {
	c := &Cache{
		client:     client,
		collection: DefaultCollection,
		defaultTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := client.CreateCollection(ctx, c.collection, nil); err != nil {
		return nil, fmt.Errorf("astradb: create collection: %w", err)
	}
	return c, nil
}

// Get retrieves a value. Expired entries are deleted and reported as
// misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := c.client.FindOne(ctx, c.collection, map[string]any{"_id": key}, nil)
	if err != nil {
		c.errs.Add(1)
		return nil, fmt.Errorf("astradb: get: %w", err)
	}
	if doc == nil {
		c.misses.Add(1)
		return nil, nil
	}

	if expiresAt, ok := doc["expires_at"].(float64); ok && int64(expiresAt) <= time.Now().Unix() {
		c.misses.Add(1)
		_, _ = c.client.DeleteOne(ctx, c.collection, map[string]any{"_id": key})
		return nil, nil
	}

	encoded, ok := doc["value"].(string)
	if !ok {
		c.misses.Add(1)
		return nil, nil
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		c.errs.Add(1)
		return nil, fmt.Errorf("astradb: decode value: %w", err)
	}

	c.hits.Add(1)
	return value, nil
}

// Set stores a value, replacing any existing entry for the key.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	doc := astra.Document{
		"_id":        key,
		"value":      base64.StdEncoding.EncodeToString(value),
		"expires_at": time.Now().Add(ttl).Unix(),
	}
	if err := c.client.FindOneAndReplace(ctx, c.collection, map[string]any{"_id": key}, doc, true); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("astradb: set: %w", err)
	}

	c.sets.Add(1)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.client.DeleteOne(ctx, c.collection, map[string]any{"_id": key}); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("astradb: delete: %w", err)
	}
	return nil
}

// Ping verifies the Data API answers for this collection.
func (c *Cache) Ping(ctx context.Context) error {
	_, err := c.client.FindOne(ctx, c.collection, map[string]any{"_id": "__ping__"}, nil)
	return err
}

// Close releases client resources.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Stats returns cache counters.
func (c *Cache) Stats() caches.Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	return caches.Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Errors:  c.errs.Load(),
		HitRate: caches.HitRateOf(hits, misses),
	}
}

var _ caches.Cache = (*Cache)(nil)
