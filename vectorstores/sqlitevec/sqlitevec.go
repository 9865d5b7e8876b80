// Package sqlitevec implements VectorStore on a SQLite database using
// the pure-Go modernc.org/sqlite driver, so a vector store is a single
// file with no native dependencies. Embeddings are stored as
// little-endian float32 blobs and ranked by brute-force cosine
// similarity in Go, which is plenty for small and medium corpora.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Jflick58/langchain/embeddings"
	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/vectorstores"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "documents"

// Store is a SQLite-backed vector store.
type Store struct {
	db       *sql.DB
	embedder embeddings.Embedder
	table    string
	owned    bool
}

// Option configures the store.
type Option func(*Store)

// WithTable selects the documents table name.
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

// New wraps a caller-owned database handle and creates the documents
// table if needed. The caller keeps responsibility for closing db.
func New(ctx context.Context, db *sql.DB, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlitevec: db is required")
	}
	if embedder == nil {
		return nil, errors.New("sqlitevec: embedder is required")
	}

	s := &Store{
		db:       db,
		embedder: embedder,
		table:    DefaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		metadata TEXT,
		embedding BLOB NOT NULL
	)`, s.table)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("sqlitevec: ensure table: %w", err)
	}
	return s, nil
}

// Open opens (or creates) the database file at path and builds a store
// on it. Close releases the handle. Use ":memory:" for an ephemeral
// store.
func Open(ctx context.Context, path string, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: open %s: %w", path, err)
	}

	s, err := New(ctx, db, embedder, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Close closes the database when the store opened it itself, and is a
// no-op for handles passed to New.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
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
		return nil, fmt.Errorf("sqlitevec: embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("sqlitevec: embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt := fmt.Sprintf("INSERT INTO %s (id, content, metadata, embedding) VALUES (?, ?, ?, ?)", s.table)
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.NewString()

		var metadata any
		if len(doc.Metadata) > 0 {
			encoded, err := json.Marshal(doc.Metadata)
			if err != nil {
				return nil, fmt.Errorf("sqlitevec: encode metadata: %w", err)
			}
			metadata = string(encoded)
		}

		_, err := tx.ExecContext(ctx, stmt, ids[i], doc.PageContent, metadata, encodeVector(vectors[i]))
		if err != nil {
			return nil, fmt.Errorf("sqlitevec: insert document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlitevec: commit insert: %w", err)
	}
	return ids, nil
}

// SimilaritySearch embeds the query, scores every stored document and
// returns the k best matches.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstores.Option) ([]schema.Document, error) {
	o, err := vectorstores.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT content, metadata, embedding FROM %s", s.table))
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: scan documents: %w", err)
	}
	defer rows.Close()

	var results []schema.Document
	for rows.Next() {
		var (
			content  string
			metadata sql.NullString
			blob     []byte
		)
		if err := rows.Scan(&content, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("sqlitevec: scan row: %w", err)
		}

		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		score, err := cosineScore(queryVec, vec)
		if err != nil {
			return nil, err
		}
		if score < o.ScoreThreshold {
			continue
		}

		doc := schema.Document{PageContent: content, Score: score}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("sqlitevec: decode metadata: %w", err)
			}
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitevec: scan documents: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// encodeVector packs float32 values as a little-endian blob. The length
// is implicit in the blob size.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("sqlitevec: embedding blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// cosineScore maps cosine similarity onto [0, 1], matching the score
// convention of the hosted backends. Zero-magnitude vectors score 0.
func cosineScore(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("sqlitevec: embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	cosine := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32((1 + cosine) / 2), nil
}

var _ vectorstores.VectorStore = (*Store)(nil)
