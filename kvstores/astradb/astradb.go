// Package astradb implements ByteStore on an Astra DB collection. Each
// key is one document with the value stored base64-encoded, since the
// Data API carries JSON. Prefix listing pages through document ids and
// filters client side.
package astradb

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Jflick58/langchain/internal/astra"
	"github.com/Jflick58/langchain/kvstores"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "kv_store"

// Store implements kvstores.ByteStore on an Astra collection.
type Store struct {
	client     *astra.Client
	collection string
}

// Option configures the store.
type Option func(*Store)

// WithCollection selects the Astra collection name.
func WithCollection(name string) Option {
	return func(s *Store) { s.collection = name }
}

// New creates the store collection if needed.
func New(ctx context.Context, client *astra.Client, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("astradb: client is required")
	}

	s := &Store{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := client.CreateCollection(ctx, s.collection, nil); err != nil {
		return nil, fmt.Errorf("astradb: ensure collection: %w", err)
	}
	return s, nil
}

// MGet returns one value per key, nil for missing keys.
func (s *Store) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	values := make([][]byte, len(keys))
	for i, key := range keys {
		doc, err := s.client.FindOne(ctx, s.collection, map[string]any{"_id": key}, nil)
		if err != nil {
			return nil, fmt.Errorf("astradb: get %q: %w", key, err)
		}
		if doc == nil {
			continue
		}

		encoded, _ := doc["value"].(string)
		value, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("astradb: decode %q: %w", key, err)
		}
		values[i] = value
	}
	return values, nil
}

// MSet upserts every pair.
func (s *Store) MSet(ctx context.Context, pairs map[string][]byte) error {
	for key, value := range pairs {
		doc := astra.Document{
			"_id":   key,
			"value": base64.StdEncoding.EncodeToString(value),
		}
		err := s.client.FindOneAndReplace(ctx, s.collection, map[string]any{"_id": key}, doc, true)
		if err != nil {
			return fmt.Errorf("astradb: set %q: %w", key, err)
		}
	}
	return nil
}

// MDelete removes the keys.
func (s *Store) MDelete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.client.DeleteOne(ctx, s.collection, map[string]any{"_id": key}); err != nil {
			return fmt.Errorf("astradb: delete %q: %w", key, err)
		}
	}
	return nil
}

// Keys returns all keys with the prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pageState := ""
	for {
		docs, next, err := s.client.Find(ctx, s.collection, astra.FindQuery{
			Projection: map[string]any{"_id": 1},
			PageState:  pageState,
		})
		if err != nil {
			return nil, fmt.Errorf("astradb: keys: %w", err)
		}

		for _, doc := range docs {
			id, _ := doc["_id"].(string)
			if strings.HasPrefix(id, prefix) {
				keys = append(keys, id)
			}
		}

		if next == "" {
			break
		}
		pageState = next
	}

	sort.Strings(keys)
	return keys, nil
}

var _ kvstores.ByteStore = (*Store)(nil)
