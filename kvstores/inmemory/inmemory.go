// Package inmemory provides a process-local ByteStore for tests and
// single-node deployments.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Jflick58/langchain/kvstores"
)

// Store is a mutex-guarded in-memory ByteStore. Values are copied on
// write and read, so callers can reuse buffers.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// MGet returns one value per key, nil for missing keys.
func (s *Store) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([][]byte, len(keys))
	for i, key := range keys {
		if value, ok := s.data[key]; ok {
			copied := make([]byte, len(value))
			copy(copied, value)
			values[i] = copied
		}
	}
	return values, nil
}

// MSet stores every pair.
func (s *Store) MSet(_ context.Context, pairs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range pairs {
		copied := make([]byte, len(value))
		copy(copied, value)
		s.data[key] = copied
	}
	return nil
}

// MDelete removes the keys.
func (s *Store) MDelete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Keys returns all keys with the prefix, sorted.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ kvstores.ByteStore = (*Store)(nil)
