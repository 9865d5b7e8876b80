package embeddings

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Jflick58/langchain/internal/logging"
	"github.com/Jflick58/langchain/kvstores"
)

// CacheBacked decorates an Embedder with a key-value cache. Document
// vectors are stored under a digest of their text, so re-embedding an
// unchanged corpus costs one batched cache read. Store failures degrade
// to the inner embedder rather than failing the call.
type CacheBacked struct {
	embedder     Embedder
	store        kvstores.ByteStore
	namespace    string
	cacheQueries bool
	logger       *logging.Logger
}

// CacheBackedOption configures the decorator.
type CacheBackedOption func(*CacheBacked)

// WithNamespace prefixes cache keys. Set it per embedding model so
// vectors from different models never collide. Defaults to "embeddings".
func WithNamespace(namespace string) CacheBackedOption {
	return func(c *CacheBacked) { c.namespace = namespace }
}

// WithQueryCache also caches EmbedQuery calls. Queries bypass the cache
// by default since they rarely repeat verbatim.
func WithQueryCache() CacheBackedOption {
	return func(c *CacheBacked) { c.cacheQueries = true }
}

// WithLogger sets the logger used to report degraded cache operations.
func WithLogger(logger *logging.Logger) CacheBackedOption {
	return func(c *CacheBacked) { c.logger = logger }
}

// NewCacheBacked wraps embedder with a vector cache.
//
//	cached := embeddings.NewCacheBacked(embedder, inmemory.New(),
//		embeddings.WithNamespace("gte-large"))
func NewCacheBacked(embedder Embedder, store kvstores.ByteStore, opts ...CacheBackedOption) *CacheBacked {
	c := &CacheBacked{
		embedder:  embedder,
		store:     store,
		namespace: "embeddings",
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbedDocuments returns cached vectors where available and embeds only
// the missing texts.
func (c *CacheBacked) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.key(text)
	}

	vectors := make([][]float32, len(texts))
	cached, err := c.store.MGet(ctx, keys...)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
		cached = make([][]byte, len(texts))
	}

	var missingIdx []int
	var missingTexts []string
	for i, raw := range cached {
		if raw == nil {
			missingIdx = append(missingIdx, i)
			missingTexts = append(missingTexts, texts[i])
			continue
		}
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err != nil {
			c.logger.Warn("embedding cache entry corrupt", "key", keys[i], "error", err)
			missingIdx = append(missingIdx, i)
			missingTexts = append(missingTexts, texts[i])
			continue
		}
		vectors[i] = vec
	}

	if len(missingTexts) == 0 {
		return vectors, nil
	}

	fresh, err := c.embedder.EmbedDocuments(ctx, missingTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missingTexts) {
		return nil, fmt.Errorf("embeddings: embedder returned %d vectors for %d texts", len(fresh), len(missingTexts))
	}

	pairs := make(map[string][]byte, len(fresh))
	for j, vec := range fresh {
		i := missingIdx[j]
		vectors[i] = vec

		data, err := json.Marshal(vec)
		if err != nil {
			c.logger.Warn("embedding cache encode failed", "error", err)
			continue
		}
		pairs[keys[i]] = data
	}
	if len(pairs) > 0 {
		if err := c.store.MSet(ctx, pairs); err != nil {
			c.logger.Warn("embedding cache write failed", "error", err)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a query, consulting the cache only when query
// caching is enabled.
func (c *CacheBacked) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if !c.cacheQueries {
		return c.embedder.EmbedQuery(ctx, text)
	}

	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *CacheBacked) key(text string) string {
	digest := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%x", c.namespace, digest)
}

var _ Embedder = (*CacheBacked)(nil)
