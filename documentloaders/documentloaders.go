// Package documentloaders defines the loader contract for pulling
// external content into documents, with backends for Astra DB
// collections, S3 objects, and HTML sources.
package documentloaders

import (
	"context"

	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/pkg/textsplitter"
)

// Loader reads documents from some source.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

// LoadAndSplit loads the documents and chunks them with the splitter,
// carrying each document's metadata onto its chunks.
func LoadAndSplit(ctx context.Context, loader Loader, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return textsplitter.SplitDocuments(splitter, docs)
}
