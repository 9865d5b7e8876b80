// Package astradb implements VectorStore on the Astra DB Data API.
// Documents are embedded on insert and searched with a $vector sort,
// which the Data API scores with cosine similarity in [0, 1].
package astradb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Jflick58/langchain/embeddings"
	"github.com/Jflick58/langchain/internal/astra"
	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/vectorstores"
)

const (
	// DefaultCollection is used when no collection name is configured.
	DefaultCollection = "documents"

	// DefaultDimension matches text-embedding-ada-002 sized vectors.
	DefaultDimension = 1536
)

// Store is a vector-enabled Astra collection.
type Store struct {
	client     *astra.Client
	embedder   embeddings.Embedder
	collection string
	dimension  int
}

// Option configures the store.
type Option func(*Store)

// WithCollection selects the Astra collection name.
func WithCollection(name string) Option {
	return func(s *Store) { s.collection = name }
}

// WithDimension sets the vector dimension used when the collection is
// created. It must match the embedder's output size.
func WithDimension(dimension int) Option {
	return func(s *Store) { s.dimension = dimension }
}

// New creates the vector collection if needed.
func New(ctx context.Context, client *astra.Client, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("astradb: client is required")
	}
	if embedder == nil {
		return nil, errors.New("astradb: embedder is required")
	}

	s := &Store{
		client:     client,
		embedder:   embedder,
		collection: DefaultCollection,
		dimension:  DefaultDimension,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dimension <= 0 {
		return nil, fmt.Errorf("astradb: dimension must be positive, got %d", s.dimension)
	}

	err := client.CreateCollection(ctx, s.collection, &astra.CollectionOptions{
		Dimension: s.dimension,
		Metric:    "cosine",
	})
	if err != nil {
		return nil, fmt.Errorf("astradb: ensure collection: %w", err)
	}
	return s, nil
}

// AddDocuments embeds and inserts the documents, returning their ids.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("astradb: embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("astradb: embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	ids := make([]string, len(docs))
	records := make([]astra.Document, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.NewString()
		record := astra.Document{
			"_id":     ids[i],
			"content": doc.PageContent,
			"$vector": vectors[i],
		}
		if len(doc.Metadata) > 0 {
			record["metadata"] = doc.Metadata
		}
		records[i] = record
	}

	if err := s.client.InsertMany(ctx, s.collection, records, true); err != nil {
		return nil, fmt.Errorf("astradb: insert documents: %w", err)
	}
	return ids, nil
}

// SimilaritySearch embeds the query and returns the k most similar
// documents.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstores.Option) ([]schema.Document, error) {
	o, err := vectorstores.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("astradb: embed query: %w", err)
	}

	var results []schema.Document
	pageState := ""
	for {
		docs, next, err := s.client.Find(ctx, s.collection, astra.FindQuery{
			Sort:              map[string]any{"$vector": vector},
			Limit:             k,
			PageState:         pageState,
			IncludeSimilarity: true,
		})
		if err != nil {
			return nil, fmt.Errorf("astradb: similarity search: %w", err)
		}

		for _, doc := range docs {
			result := toDocument(doc)
			if result.Score < o.ScoreThreshold {
				continue
			}
			results = append(results, result)
		}

		if next == "" || len(results) >= k {
			break
		}
		pageState = next
	}

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func toDocument(doc astra.Document) schema.Document {
	content, _ := doc["content"].(string)
	result := schema.Document{PageContent: content}
	if metadata, ok := doc["metadata"].(map[string]any); ok {
		result.Metadata = metadata
	}
	if similarity, ok := doc["$similarity"].(float64); ok {
		result.Score = float32(similarity)
	}
	return result
}

var _ vectorstores.VectorStore = (*Store)(nil)
