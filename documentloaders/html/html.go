// Package html loads HTML content as a markdown document, which keeps
// headings, emphasis, and links legible to language models while
// discarding markup noise.
package html

import (
	"context"
	"errors"
	"fmt"
	"io"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/Jflick58/langchain/pkg/schema"
)

// Loader converts one HTML source into a single markdown document.
type Loader struct {
	reader io.Reader
	source string
}

// Option configures the loader.
type Option func(*Loader)

// WithSource records the content's origin (a URL or file path) in the
// document metadata under "source".
func WithSource(source string) Option {
	return func(l *Loader) { l.source = source }
}

// New builds a loader over an HTML reader.
func New(r io.Reader, opts ...Option) (*Loader, error) {
	if r == nil {
		return nil, errors.New("html: reader is required")
	}

	l := &Loader{reader: r}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load reads the HTML and returns it converted to markdown.
func (l *Loader) Load(ctx context.Context) ([]schema.Document, error) {
	raw, err := io.ReadAll(l.reader)
	if err != nil {
		return nil, fmt.Errorf("html: read source: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("html: convert to markdown: %w", err)
	}

	doc := schema.Document{PageContent: markdown}
	if l.source != "" {
		doc.Metadata = map[string]any{"source": l.source}
	}
	return []schema.Document{doc}, nil
}
