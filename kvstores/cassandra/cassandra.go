// Package cassandra implements ByteStore on a Cassandra table. The store
// operates on a caller-provided gocql session. Prefix listing scans the
// key column and filters client side, since partition keys do not
// support range queries.
package cassandra

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gocql/gocql"

	"github.com/Jflick58/langchain/kvstores"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "kv_store"

// Store implements kvstores.ByteStore on a Cassandra table.
type Store struct {
	session *gocql.Session
	table   string
}

// Option configures the store.
type Option func(*Store)

// WithTable selects the table name, optionally keyspace-qualified.
func WithTable(table string) Option {
	return func(s *Store) { s.table = table }
}

// New creates a store on an existing session. The session remains owned
// by the caller.
func New(session *gocql.Session, opts ...Option) (*Store, error) {
	if session == nil {
		return nil, errors.New("cassandra: session is required")
	}

	s := &Store{
		session: session,
		table:   DefaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureTable creates the store table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key text PRIMARY KEY, value blob)`, s.table)
	if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: create table: %w", err)
	}
	return nil
}

// MGet returns one value per key, nil for missing keys.
func (s *Store) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	values := make([][]byte, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	stmt := fmt.Sprintf(`SELECT key, value FROM %s WHERE key IN ?`, s.table)
	iter := s.session.Query(stmt, keys).WithContext(ctx).Iter()

	found := make(map[string][]byte, len(keys))
	var key string
	var value []byte
	for iter.Scan(&key, &value) {
		copied := make([]byte, len(value))
		copy(copied, value)
		found[key] = copied
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cassandra: mget: %w", err)
	}

	for i, k := range keys {
		if v, ok := found[k]; ok {
			values[i] = v
		}
	}
	return values, nil
}

// MSet stores every pair.
func (s *Store) MSet(ctx context.Context, pairs map[string][]byte) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?)`, s.table)
	for key, value := range pairs {
		if err := s.session.Query(stmt, key, value).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("cassandra: set %q: %w", key, err)
		}
	}
	return nil
}

// MDelete removes the keys.
func (s *Store) MDelete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE key IN ?`, s.table)
	if err := s.session.Query(stmt, keys).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: mdelete: %w", err)
	}
	return nil
}

// Keys returns all keys with the prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	stmt := fmt.Sprintf(`SELECT key FROM %s`, s.table)
	iter := s.session.Query(stmt).WithContext(ctx).Iter()

	var keys []string
	var key string
	for iter.Scan(&key) {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cassandra: keys: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

var _ kvstores.ByteStore = (*Store)(nil)
