package textsplitter

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Defaults for the recursive character splitter.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
)

// DefaultSeparators split on paragraphs first, then lines, then words,
// and finally individual characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveCharacter splits text by trying separators in order: pieces
// that still exceed the chunk size are re-split with the remaining
// separators, then packed into chunks with overlap carried between
// neighbors. Text is NFC-normalized before measuring so composed and
// decomposed forms count the same.
type RecursiveCharacter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	lenFunc      LenFunc
}

// RecursiveOption configures the splitter.
type RecursiveOption func(*RecursiveCharacter)

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(size int) RecursiveOption {
	return func(s *RecursiveCharacter) { s.chunkSize = size }
}

// WithChunkOverlap sets how much of a chunk's tail is repeated at the
// start of the next chunk.
func WithChunkOverlap(overlap int) RecursiveOption {
	return func(s *RecursiveCharacter) { s.chunkOverlap = overlap }
}

// WithSeparators replaces the separator hierarchy.
func WithSeparators(separators []string) RecursiveOption {
	return func(s *RecursiveCharacter) { s.separators = separators }
}

// WithLenFunc replaces the length measure, for example to size chunks
// in model tokens:
//
//	splitter, err := textsplitter.NewRecursiveCharacter(
//		textsplitter.WithChunkSize(256),
//		textsplitter.WithLenFunc(textsplitter.TokenLen("gpt-4o-mini")),
//	)
func WithLenFunc(fn LenFunc) RecursiveOption {
	return func(s *RecursiveCharacter) { s.lenFunc = fn }
}

// NewRecursiveCharacter builds a splitter with validated settings.
func NewRecursiveCharacter(opts ...RecursiveOption) (*RecursiveCharacter, error) {
	s := &RecursiveCharacter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   DefaultSeparators,
		lenFunc:      RuneLen,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("textsplitter: chunk size must be positive, got %d", s.chunkSize)
	}
	if s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		return nil, fmt.Errorf("textsplitter: chunk overlap %d must be smaller than chunk size %d", s.chunkOverlap, s.chunkSize)
	}
	if len(s.separators) == 0 {
		return nil, fmt.Errorf("textsplitter: at least one separator is required")
	}
	if s.lenFunc == nil {
		return nil, fmt.Errorf("textsplitter: length function is required")
	}
	return s, nil
}

// SplitText splits text into chunks of at most the configured size.
func (s *RecursiveCharacter) SplitText(text string) ([]string, error) {
	normalized := norm.NFC.String(text)
	return s.splitText(normalized, s.separators), nil
}

func (s *RecursiveCharacter) splitText(text string, separators []string) []string {
	if text == "" {
		return nil
	}
	if s.lenFunc(text) <= s.chunkSize {
		return []string{text}
	}

	// First separator that occurs in the text wins; the empty string
	// splits into individual characters as the last resort.
	separator := ""
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	for _, part := range strings.Split(text, separator) {
		if part == "" {
			continue
		}
		if separator != "" && s.lenFunc(part) > s.chunkSize {
			pieces = append(pieces, s.splitText(part, rest)...)
			continue
		}
		pieces = append(pieces, part)
	}
	return s.merge(pieces, separator)
}

// merge packs pieces into chunks, re-joining with the separator they
// were split on and retaining up to chunkOverlap of each chunk's tail
// as the start of the next.
func (s *RecursiveCharacter) merge(pieces []string, separator string) []string {
	sepLen := s.lenFunc(separator)

	var (
		chunks  []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		pieceLen := s.lenFunc(piece)

		if len(current) > 0 && total+sepLen+pieceLen > s.chunkSize {
			chunks = append(chunks, strings.Join(current, separator))
			for len(current) > 0 && (total > s.chunkOverlap ||
				total+sepLen+pieceLen > s.chunkSize) {
				total -= s.lenFunc(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}

		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, piece)
		total += pieceLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, separator))
	}
	return chunks
}

var _ TextSplitter = (*RecursiveCharacter)(nil)
