// Package dual provides a two-tier cache: a fast local tier (L1) in
// front of a shared remote tier (L2). Writes go to both, reads check L1
// first and backfill it on L2 hits.
package dual

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Jflick58/langchain/caches"
)

// Cache layers a local cache over a remote one.
type Cache struct {
	local  caches.Cache
	remote caches.Cache
	config Config

	localHits  atomic.Int64
	remoteHits atomic.Int64
	misses     atomic.Int64
	backfills  atomic.Int64
}

// Config holds configuration for the dual cache.
type Config struct {
	LocalTTL  time.Duration // TTL for the local tier (default: 5 minutes)
	RemoteTTL time.Duration // TTL for the remote tier (default: 1 hour)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LocalTTL:  5 * time.Minute,
		RemoteTTL: time.Hour,
	}
}

// New creates a dual-tier cache. remote may be nil, which degrades to a
// local-only cache.
func New(local, remote caches.Cache, cfg Config) *Cache {
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = 5 * time.Minute
	}
	if cfg.RemoteTTL <= 0 {
		cfg.RemoteTTL = time.Hour
	}
	return &Cache{
		local:  local,
		remote: remote,
		config: cfg,
	}
}

// Get checks the local tier first, then the remote tier. Remote hits are
// backfilled into the local tier, best effort.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := c.local.Get(ctx, key); err == nil && val != nil {
		c.localHits.Add(1)
		return val, nil
	}

	if c.remote != nil {
		val, err := c.remote.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if val != nil {
			c.remoteHits.Add(1)
			if err := c.local.Set(ctx, key, val, c.config.LocalTTL); err == nil {
				c.backfills.Add(1)
			}
			return val, nil
		}
	}

	c.misses.Add(1)
	return nil, nil
}

// Set stores a value in both tiers. The given TTL applies to the remote
// tier; the local tier always uses its configured short TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.config.RemoteTTL
	}

	if err := c.local.Set(ctx, key, value, c.config.LocalTTL); err != nil {
		return err
	}
	if c.remote != nil {
		return c.remote.Set(ctx, key, value, ttl)
	}
	return nil
}

// Delete removes a key from both tiers.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_ = c.local.Delete(ctx, key)
	if c.remote != nil {
		return c.remote.Delete(ctx, key)
	}
	return nil
}

// Ping checks both tiers.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.local.Ping(ctx); err != nil {
		return err
	}
	if c.remote != nil {
		return c.remote.Ping(ctx)
	}
	return nil
}

// Close closes both tiers.
func (c *Cache) Close() error {
	localErr := c.local.Close()
	if c.remote != nil {
		if err := c.remote.Close(); err != nil {
			return err
		}
	}
	return localErr
}

// Stats returns combined counters across both tiers.
func (c *Cache) Stats() caches.Stats {
	hits := c.localHits.Load() + c.remoteHits.Load()
	misses := c.misses.Load()

	var errs int64
	if c.remote != nil {
		errs = c.remote.Stats().Errors
	}

	return caches.Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.local.Stats().Sets,
		Errors:  errs,
		HitRate: caches.HitRateOf(hits, misses),
	}
}

// TierStats breaks counters down by tier.
type TierStats struct {
	LocalHits  int64 `json:"local_hits"`
	RemoteHits int64 `json:"remote_hits"`
	Misses     int64 `json:"misses"`
	Backfills  int64 `json:"backfills"`
}

// DetailedStats returns per-tier counters.
func (c *Cache) DetailedStats() TierStats {
	return TierStats{
		LocalHits:  c.localHits.Load(),
		RemoteHits: c.remoteHits.Load(),
		Misses:     c.misses.Load(),
		Backfills:  c.backfills.Load(),
	}
}

var _ caches.Cache = (*Cache)(nil)
