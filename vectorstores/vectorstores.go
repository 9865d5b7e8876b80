// Package vectorstores defines the vector store contract shared by the
// backend implementations and adapts stores to schema.Retriever.
//
// A store embeds documents with its configured Embedder on write and
// embeds the query on search. Similarity scores are normalized to
// [0, 1] where 1 means identical, so score thresholds carry the same
// meaning across backends.
package vectorstores

import (
	"context"
	"errors"

	"github.com/Jflick58/langchain/pkg/schema"
)

// VectorStore stores embedded documents and searches them by semantic
// similarity.
type VectorStore interface {
	// AddDocuments embeds and stores the documents, returning their ids.
	AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error)

	// SimilaritySearch returns up to k documents closest to the query,
	// most similar first, with Score populated.
	SimilaritySearch(ctx context.Context, query string, k int, opts ...Option) ([]schema.Document, error)
}

// Options holds per-search settings.
type Options struct {
	// ScoreThreshold drops results scoring below it. Zero keeps
	// everything.
	ScoreThreshold float32
}

// Option configures a similarity search.
type Option func(*Options)

// WithScoreThreshold keeps only results with Score >= threshold.
// Thresholds live in [0, 1] like the scores themselves.
func WithScoreThreshold(threshold float32) Option {
	return func(o *Options) { o.ScoreThreshold = threshold }
}

// ApplyOptions folds options into a validated Options value.
func ApplyOptions(opts ...Option) (Options, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.ScoreThreshold < 0 || o.ScoreThreshold > 1 {
		return Options{}, errors.New("vectorstores: score threshold must be between 0 and 1")
	}
	return o, nil
}

// Retriever adapts a VectorStore to schema.Retriever.
type Retriever struct {
	store VectorStore
	k     int
	opts  []Option
}

// ToRetriever wraps a store as a retriever returning the top k matches
// per query.
//
//	retriever := vectorstores.ToRetriever(store, 4,
//		vectorstores.WithScoreThreshold(0.7))
//	docs, err := retriever.GetRelevantDocuments(ctx, "how do I rotate credentials?")
func ToRetriever(store VectorStore, k int, opts ...Option) Retriever {
	return Retriever{store: store, k: k, opts: opts}
}

// GetRelevantDocuments searches the underlying store.
func (r Retriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return r.store.SimilaritySearch(ctx, query, r.k, r.opts...)
}

var _ schema.Retriever = Retriever{}
