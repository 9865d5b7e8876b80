package textsplitter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/pkg/schema"
)

func TestNewRecursiveCharacterValidates(t *testing.T) {
	_, err := NewRecursiveCharacter(WithChunkSize(0))
	require.Error(t, err)

	_, err = NewRecursiveCharacter(WithChunkSize(10), WithChunkOverlap(10))
	require.Error(t, err)

	_, err = NewRecursiveCharacter(WithSeparators(nil))
	require.Error(t, err)

	_, err = NewRecursiveCharacter(WithLenFunc(nil))
	require.Error(t, err)
}

func TestShortTextStaysWhole(t *testing.T) {
	splitter, err := NewRecursiveCharacter()
	require.NoError(t, err)

	chunks, err := splitter.SplitText("a short sentence")
	require.NoError(t, err)
	require.Equal(t, []string{"a short sentence"}, chunks)

	chunks, err = splitter.SplitText("")
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestWordsPackWithOverlap(t *testing.T) {
	splitter, err := NewRecursiveCharacter(
		WithChunkSize(10), WithChunkOverlap(4))
	require.NoError(t, err)

	chunks, err := splitter.SplitText("one two three four five six")
	require.NoError(t, err)
	require.Equal(t, []string{"one two", "two three", "four five", "five six"}, chunks)

	for _, chunk := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(chunk), 10)
	}
}

func TestParagraphsSplitBeforeWords(t *testing.T) {
	splitter, err := NewRecursiveCharacter(
		WithChunkSize(20), WithChunkOverlap(0))
	require.NoError(t, err)

	chunks, err := splitter.SplitText("alpha beta gamma\n\ndelta epsilon zeta")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha beta gamma", "delta epsilon zeta"}, chunks)
}

func TestLongWordFallsBackToCharacters(t *testing.T) {
	splitter, err := NewRecursiveCharacter(
		WithChunkSize(4), WithChunkOverlap(1))
	require.NoError(t, err)

	chunks, err := splitter.SplitText("abcdefghij")
	require.NoError(t, err)
	require.Equal(t, []string{"abcd", "defg", "ghij"}, chunks)
}

func TestDecomposedRunesNormalizeBeforeMeasuring(t *testing.T) {
	splitter, err := NewRecursiveCharacter(
		WithChunkSize(1), WithChunkOverlap(0))
	require.NoError(t, err)

	// "e" plus a combining acute accent is two code points until NFC
	// folds them into one.
	chunks, err := splitter.SplitText("é")
	require.NoError(t, err)
	require.Equal(t, []string{"é"}, chunks)
}

func TestCustomLenFunc(t *testing.T) {
	words := func(text string) int { return len(strings.Fields(text)) }
	splitter, err := NewRecursiveCharacter(
		WithChunkSize(2), WithChunkOverlap(0), WithLenFunc(words))
	require.NoError(t, err)

	chunks, err := splitter.SplitText("one two three four")
	require.NoError(t, err)
	require.Equal(t, []string{"one two", "three four"}, chunks)
}

func TestSplitDocumentsCarriesMetadata(t *testing.T) {
	splitter, err := NewRecursiveCharacter(
		WithChunkSize(10), WithChunkOverlap(0))
	require.NoError(t, err)

	docs, err := SplitDocuments(splitter, []schema.Document{
		{PageContent: "one two three four", Metadata: map[string]any{"source": "a.md"}},
		{PageContent: "tiny"},
	})
	require.NoError(t, err)
	require.Greater(t, len(docs), 2)

	for i, doc := range docs[:len(docs)-1] {
		require.Equal(t, "a.md", doc.Metadata["source"], "chunk %d", i)
	}
	require.Nil(t, docs[len(docs)-1].Metadata)

	// Each chunk owns its metadata copy.
	docs[0].Metadata["source"] = "changed"
	require.Equal(t, "a.md", docs[1].Metadata["source"])
}

func TestTokenLen(t *testing.T) {
	measure := TokenLen("gpt-4o-mini")

	require.Zero(t, measure(""))

	short := "token counting sizes chunks for model windows."
	long := strings.Repeat(short, 8)
	require.Greater(t, measure(short), 0)
	require.Greater(t, measure(long), measure(short))
}

func TestNormalizeModelName(t *testing.T) {
	require.Equal(t, "gte-large", normalizeModelName("thenlper/gte-large"))
	require.Equal(t, "gpt-4o", normalizeModelName("gpt-4o"))
	require.Equal(t, "trailing/", normalizeModelName("trailing/"))
}
