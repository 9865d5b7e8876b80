// Package postgres implements ByteStore on a Postgres table using
// database/sql with the lib/pq driver. Writes upsert with ON CONFLICT so
// MSet is idempotent.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Jflick58/langchain/kvstores"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "kv_store"

// Store implements kvstores.ByteStore on a Postgres table. The database
// handle remains owned by the caller.
type Store struct {
	db    *sql.DB
	table string
}

// Option configures the store.
type Option func(*Store)

// WithTable selects the table name.
func WithTable(table string) Option {
	return func(s *Store) { s.table = table }
}

// New creates a store and ensures its table exists.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("postgres: db is required")
	}

	s := &Store{
		db:    db,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value BYTEA NOT NULL)`, s.table)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("postgres: create table: %w", err)
	}
	return s, nil
}

// MGet returns one value per key, nil for missing keys.
func (s *Store) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	values := make([][]byte, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	query := fmt.Sprintf(`SELECT key, value FROM %s WHERE key = ANY($1)`, s.table)
	rows, err := s.db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("postgres: mget: %w", err)
	}
	defer rows.Close()

	found := make(map[string][]byte, len(keys))
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		found[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: mget: %w", err)
	}

	for i, key := range keys {
		if value, ok := found[key]; ok {
			values[i] = value
		}
	}
	return values, nil
}

// MSet upserts every pair in one transaction.
func (s *Store) MSet(ctx context.Context, pairs map[string][]byte) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin mset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt := fmt.Sprintf(
		`INSERT INTO %s (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, s.table)
	for key, value := range pairs {
		if _, err := tx.ExecContext(ctx, stmt, key, value); err != nil {
			return fmt.Errorf("postgres: upsert %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit mset: %w", err)
	}
	return nil
}

// MDelete removes the keys.
func (s *Store) MDelete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE key = ANY($1)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt, pq.Array(keys)); err != nil {
		return fmt.Errorf("postgres: mdelete: %w", err)
	}
	return nil
}

// Keys returns all keys with the prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	stmt := fmt.Sprintf(`SELECT key FROM %s WHERE key LIKE $1 ORDER BY key`, s.table)
	rows, err := s.db.QueryContext(ctx, stmt, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("postgres: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("postgres: scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// escapeLike quotes LIKE metacharacters so prefixes match literally.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

var _ kvstores.ByteStore = (*Store)(nil)
