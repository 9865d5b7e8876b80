// Package cassandra implements VectorStore on Cassandra 5 vector
// search: a vector<float, n> column with a storage-attached index and
// ANN ordering. The store operates on a caller-provided gocql session.
package cassandra

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gocql/gocql"

	"github.com/Jflick58/langchain/embeddings"
	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/vectorstores"
)

const (
	// DefaultTable is used when no table name is configured.
	DefaultTable = "documents"

	// DefaultDimension matches text-embedding-ada-002 sized vectors.
	DefaultDimension = 1536
)

// Store is a Cassandra-backed vector store.
type Store struct {
	session   *gocql.Session
	embedder  embeddings.Embedder
	table     string
	dimension int
}

// Option configures the store.
type Option func(*Store)

// WithTable selects the table name, optionally keyspace-qualified.
func WithTable(table string) Option {
	return func(s *Store) { s.table = table }
}

// WithDimension sets the vector column dimension used by EnsureTable.
// It must match the embedder's output size.
func WithDimension(dimension int) Option {
	return func(s *Store) { s.dimension = dimension }
}

// New creates a vector store on an existing session. The session
// remains owned by the caller.
func New(session *gocql.Session, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	if session == nil {
		return nil, errors.New("cassandra: session is required")
	}
	if embedder == nil {
		return nil, errors.New("cassandra: embedder is required")
	}

	s := &Store{
		session:   session,
		embedder:  embedder,
		table:     DefaultTable,
		dimension: DefaultDimension,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dimension <= 0 {
		return nil, fmt.Errorf("cassandra: dimension must be positive, got %d", s.dimension)
	}
	return s, nil
}

// EnsureTable creates the documents table and its vector index if they
// do not exist. Requires Cassandra 5 or a cluster with storage-attached
// indexes.
func (s *Store) EnsureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id timeuuid PRIMARY KEY,
			content text,
			metadata text,
			embedding vector<float, %d>
		)`, s.table, s.dimension)
	if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: create table: %w", err)
	}

	index := fmt.Sprintf(
		`CREATE CUSTOM INDEX IF NOT EXISTS %s_embedding_idx ON %s (embedding)
			USING 'StorageAttachedIndex'
			WITH OPTIONS = {'similarity_function': 'cosine'}`,
		indexBaseName(s.table), s.table)
	if err := s.session.Query(index).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: create vector index: %w", err)
	}
	return nil
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
		return nil, fmt.Errorf("cassandra: embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("cassandra: embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	stmt := fmt.Sprintf(
		`INSERT INTO %s (id, content, metadata, embedding) VALUES (?, ?, ?, ?)`, s.table)
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if len(vectors[i]) != s.dimension {
			return nil, fmt.Errorf("cassandra: embedding dimension %d does not match column dimension %d", len(vectors[i]), s.dimension)
		}

		var metadata string
		if len(doc.Metadata) > 0 {
			encoded, err := json.Marshal(doc.Metadata)
			if err != nil {
				return nil, fmt.Errorf("cassandra: encode metadata: %w", err)
			}
			metadata = string(encoded)
		}

		id := gocql.TimeUUID()
		err := s.session.Query(stmt, id, doc.PageContent, metadata, vectors[i]).WithContext(ctx).Exec()
		if err != nil {
			return nil, fmt.Errorf("cassandra: insert document: %w", err)
		}
		ids[i] = id.String()
	}
	return ids, nil
}

// SimilaritySearch embeds the query and runs an ANN scan for the k
// nearest documents.
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
		return nil, fmt.Errorf("cassandra: embed query: %w", err)
	}

	stmt := fmt.Sprintf(
		`SELECT content, metadata, similarity_cosine(embedding, ?) FROM %s
			ORDER BY embedding ANN OF ? LIMIT ?`, s.table)
	iter := s.session.Query(stmt, vector, vector, k).WithContext(ctx).Iter()

	var (
		results  []schema.Document
		content  string
		metadata string
		score    float32
	)
	for iter.Scan(&content, &metadata, &score) {
		if score < o.ScoreThreshold {
			continue
		}

		doc := schema.Document{PageContent: content, Score: score}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("cassandra: decode metadata: %w", err)
			}
		}
		results = append(results, doc)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cassandra: similarity search: %w", err)
	}
	return results, nil
}

// indexBaseName strips the keyspace qualifier so the index name stays
// a valid identifier.
func indexBaseName(table string) string {
	for i := len(table) - 1; i >= 0; i-- {
		if table[i] == '.' {
			return table[i+1:]
		}
	}
	return table
}

var _ vectorstores.VectorStore = (*Store)(nil)
