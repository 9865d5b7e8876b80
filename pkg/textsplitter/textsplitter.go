// Package textsplitter breaks long texts into overlapping chunks sized
// for embedding models and prompt windows.
package textsplitter

import (
	"unicode/utf8"

	"github.com/Jflick58/langchain/pkg/schema"
)

// TextSplitter turns one text into chunks.
type TextSplitter interface {
	SplitText(text string) ([]string, error)
}

// LenFunc measures the length of a piece of text. Chunk size and
// overlap are expressed in whatever unit the function counts.
type LenFunc func(text string) int

// RuneLen counts Unicode code points. It is the default measure.
func RuneLen(text string) int {
	return utf8.RuneCountInString(text)
}

// SplitDocuments splits every document, carrying its metadata onto each
// chunk.
func SplitDocuments(splitter TextSplitter, docs []schema.Document) ([]schema.Document, error) {
	var out []schema.Document
	for _, doc := range docs {
		chunks, err := splitter.SplitText(doc.PageContent)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			split := schema.Document{PageContent: chunk}
			if len(doc.Metadata) > 0 {
				split.Metadata = make(map[string]any, len(doc.Metadata))
				for k, v := range doc.Metadata {
					split.Metadata[k] = v
				}
			}
			out = append(out, split)
		}
	}
	return out, nil
}
