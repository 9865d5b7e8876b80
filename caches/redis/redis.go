// Package redis provides a Redis-backed cache. Single node, cluster, and
// sentinel deployments are supported through one config: sentinel mode is
// selected by sentinel_master, cluster mode by cluster_addrs, single node
// otherwise.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Jflick58/langchain/caches"
)

// Cache implements caches.Cache on Redis.
type Cache struct {
	rdb        goredis.UniversalClient
	prefix     string
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	errs   atomic.Int64
}

// Config holds configuration for the Redis cache. Zero timeouts and pool
// settings fall back to the go-redis defaults.
type Config struct {
	// Single node.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// Cluster mode.
	ClusterAddrs []string `yaml:"cluster_addrs"`

	// Sentinel mode.
	SentinelAddrs  []string `yaml:"sentinel_addrs"`
	SentinelMaster string   `yaml:"sentinel_master"`

	// Shared settings.
	Namespace    string        `yaml:"namespace"`
	DefaultTTL   time.Duration `yaml:"default_ttl"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	MaxRetries   int           `yaml:"max_retries"`
}

// DefaultConfig returns defaults for a single local node.
func DefaultConfig() Config {
	return Config{
		Addr:       "localhost:6379",
		Namespace:  "langchain",
		DefaultTTL: time.Hour,
	}
}

// New creates a Redis cache and verifies connectivity.
func New(cfg Config) (*Cache, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        serverAddrs(cfg),
		MasterName:   cfg.SentinelMaster,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{rdb: rdb, prefix: cfg.Namespace, defaultTTL: cfg.DefaultTTL}, nil
}

// serverAddrs picks the address set for the configured deployment mode.
func serverAddrs(cfg Config) []string {
	switch {
	case len(cfg.ClusterAddrs) > 0:
		return cfg.ClusterAddrs
	case len(cfg.SentinelAddrs) > 0:
		return cfg.SentinelAddrs
	}
	return []string{cfg.Addr}
}

func (c *Cache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get retrieves a value. Missing keys return nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		c.misses.Add(1)
		return nil, nil
	case err != nil:
		c.errs.Add(1)
		return nil, fmt.Errorf("redis get: %w", err)
	}
	c.hits.Add(1)
	return val, nil
}

// Set stores a value with TTL. Zero TTL uses the configured default.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("redis set: %w", err)
	}
	c.sets.Add(1)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

// Close closes the Redis connection.
func (c *Cache) Close() error { return c.rdb.Close() }

// Stats returns cache counters.
func (c *Cache) Stats() caches.Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return caches.Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Errors:  c.errs.Load(),
		HitRate: caches.HitRateOf(hits, misses),
	}
}

var _ caches.Cache = (*Cache)(nil)
