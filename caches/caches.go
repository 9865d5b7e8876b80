// Package caches provides response caching for chat models. It defines
// the cache contract shared by the backends and a decorator that checks
// the cache before delegating to a model.
package caches

import (
	"context"
	"time"
)

// Cache is the contract all cache backends implement.
type Cache interface {
	// Get retrieves a value. A missing key returns nil, nil.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. Zero TTL means the
	// backend's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Ping checks backend health.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error

	// Stats returns counters for monitoring.
	Stats() Stats
}

// Stats holds cache counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// HitRateOf computes a hit rate from raw counters.
func HitRateOf(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
