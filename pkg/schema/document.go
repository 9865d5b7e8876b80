package schema

import "context"

// Document is a piece of text plus the metadata that travels with it
// through loaders, splitters, vector stores, and retrievers.
type Document struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	// Score is populated by similarity searches; higher is closer.
	Score float32 `json:"score,omitempty"`
}

// Retriever returns the documents most relevant to a free text query.
type Retriever interface {
	GetRelevantDocuments(ctx context.Context, query string) ([]Document, error)
}
