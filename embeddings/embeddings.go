// Package embeddings defines the embedding contract used by vector
// stores and semantic retrieval. An Embedder turns text into dense
// vectors; decorators add caching on top.
package embeddings

import "context"

// Embedder produces dense vector representations of text.
type Embedder interface {
	// EmbedDocuments embeds a batch of texts, one vector per text in
	// input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
