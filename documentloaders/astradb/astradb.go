// Package astradb loads the documents of a Data API collection,
// paging through find results. One collection document becomes one
// loaded document: a configurable content field supplies the text and
// the remaining fields ride along as metadata.
package astradb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jflick58/langchain/internal/astra"
	"github.com/Jflick58/langchain/pkg/schema"
)

// DefaultContentField names the document field holding the text.
const DefaultContentField = "content"

// Loader pages a collection into documents.
type Loader struct {
	client       *astra.Client
	collection   string
	contentField string
	filter       map[string]any
}

// Option configures the loader.
type Option func(*Loader)

// WithContentField selects which field supplies the document text.
func WithContentField(name string) Option {
	return func(l *Loader) { l.contentField = name }
}

// WithFilter restricts loading to documents matching the Data API
// filter.
func WithFilter(filter map[string]any) Option {
	return func(l *Loader) { l.filter = filter }
}

// New builds a loader over a collection.
func New(client *astra.Client, collection string, opts ...Option) (*Loader, error) {
	if client == nil {
		return nil, errors.New("astradb: client is required")
	}
	if collection == "" {
		return nil, errors.New("astradb: collection is required")
	}

	l := &Loader{
		client:       client,
		collection:   collection,
		contentField: DefaultContentField,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load pages through the collection. Documents missing the content
// field are skipped; every other field except reserved $-prefixed ones
// becomes metadata.
func (l *Loader) Load(ctx context.Context) ([]schema.Document, error) {
	var docs []schema.Document
	pageState := ""
	for {
		records, next, err := l.client.Find(ctx, l.collection, astra.FindQuery{
			Filter:    l.filter,
			PageState: pageState,
		})
		if err != nil {
			return nil, fmt.Errorf("astradb: load collection %s: %w", l.collection, err)
		}

		for _, record := range records {
			content, ok := record[l.contentField].(string)
			if !ok {
				continue
			}
			docs = append(docs, schema.Document{
				PageContent: content,
				Metadata:    l.metadataOf(record),
			})
		}

		if next == "" {
			break
		}
		pageState = next
	}
	return docs, nil
}

func (l *Loader) metadataOf(record astra.Document) map[string]any {
	metadata := make(map[string]any, len(record))
	for key, value := range record {
		if key == l.contentField || strings.HasPrefix(key, "$") {
			continue
		}
		metadata[key] = value
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}
