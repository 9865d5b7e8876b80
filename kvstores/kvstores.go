// Package kvstores defines a batched byte-oriented key-value contract
// used by caching decorators such as embeddings.CacheBacked. Backends
// trade durability for speed; the contract stays the same.
package kvstores

import "context"

// ByteStore is a batched key-value store. Implementations must treat
// absent keys as nil entries rather than errors so callers can compute
// hit sets in one round trip.
type ByteStore interface {
	// MGet returns one value per key, aligned with keys. Missing keys
	// yield nil entries.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)

	// MSet stores every pair.
	MSet(ctx context.Context, pairs map[string][]byte) error

	// MDelete removes the keys. Missing keys are not an error.
	MDelete(ctx context.Context, keys ...string) error

	// Keys returns all keys with the given prefix, sorted. An empty
	// prefix returns every key.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
