// Package cassandra provides a Cassandra-backed cache using server-side
// TTL. The cache operates on a caller-provided gocql session, matching
// how Cassandra integrations hand an existing session to each surface.
package cassandra

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gocql/gocql"

	"github.com/Jflick58/langchain/caches"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "llm_cache"

// Cache implements caches.Cache on a Cassandra table.
type Cache struct {
	session    *gocql.Session
	table      string
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	errs   atomic.Int64
}

// Option configures the cache.
type Option func(*Cache)

// WithTable selects the table name, optionally keyspace-qualified.
func WithTable(table string) Option {
	return func(c *Cache) { c.table = table }
}

// WithDefaultTTL sets the TTL used when Set receives zero.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// New creates a Cassandra cache on an existing session. The session
// remains owned by the caller.
func New(session *gocql.Session, opts ...Option) (*Cache, error) {
	if session == nil {
		return nil, errors.New("cassandra: session is required")
	}

	c := &Cache{
		session:    session,
		table:      DefaultTable,
		defaultTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EnsureTable creates the cache table if it does not exist.
func (c *Cache) EnsureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key text PRIMARY KEY, value blob)`, c.table)
	if err := c.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: create table: %w", err)
	}
	return nil
}

// Get retrieves a value. Missing or TTL-expired keys return nil, nil.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	stmt := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, c.table)
	err := c.session.Query(stmt, key).WithContext(ctx).Scan(&value)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			c.misses.Add(1)
			return nil, nil
		}
		c.errs.Add(1)
		return nil, fmt.Errorf("cassandra: get: %w", err)
	}

	c.hits.Add(1)
	return value, nil
}

// Set stores a value with a server-side TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?) USING TTL ?`, c.table)
	if err := c.session.Query(stmt, key, value, int(ttl.Seconds())).WithContext(ctx).Exec(); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("cassandra: set: %w", err)
	}

	c.sets.Add(1)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c.table)
	if err := c.session.Query(stmt, key).WithContext(ctx).Exec(); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("cassandra: delete: %w", err)
	}
	return nil
}

// Ping checks cluster reachability.
func (c *Cache) Ping(ctx context.Context) error {
	return c.session.Query(`SELECT release_version FROM system.local`).WithContext(ctx).Exec()
}

// Close is a no-op; the session belongs to the caller.
func (c *Cache) Close() error {
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
		Errors:  c.errs.Load(),
		HitRate: caches.HitRateOf(hits, misses),
	}
}

var _ caches.Cache = (*Cache)(nil)
