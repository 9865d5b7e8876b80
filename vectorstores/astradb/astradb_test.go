package astradb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/internal/astra"
	"github.com/Jflick58/langchain/internal/astra/astratest"
	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/vectorstores"
)

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for %q", text)
		}
		out[i] = vec
	}
	return out, nil
}

func (f fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no fixture vector for %q", text)
	}
	return vec, nil
}

func newTestStore(t *testing.T, embedder fakeEmbedder) (*Store, *astratest.Server) {
	t.Helper()
	server := astratest.NewServer()
	t.Cleanup(server.Close)

	client, err := astra.NewClient(server.URL(), "AstraCS:test")
	require.NoError(t, err)

	store, err := New(context.Background(), client, embedder, WithDimension(2))
	require.NoError(t, err)
	return store, server
}

func directionFixtures() fakeEmbedder {
	return fakeEmbedder{vectors: map[string][]float32{
		"straight ahead": {1, 0},
		"up and right":   {0.6, 0.8},
		"sideways":       {0, 1},
		"ahead":          {1, 0},
	}}
}

func TestNewValidatesArguments(t *testing.T) {
	server := astratest.NewServer()
	defer server.Close()
	client, err := astra.NewClient(server.URL(), "AstraCS:test")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = New(ctx, nil, directionFixtures())
	require.Error(t, err)

	_, err = New(ctx, client, nil)
	require.Error(t, err)

	_, err = New(ctx, client, directionFixtures(), WithDimension(-1))
	require.Error(t, err)
}

func TestAddDocumentsReturnsIDs(t *testing.T) {
	store, server := newTestStore(t, directionFixtures())
	ctx := context.Background()

	ids, err := store.AddDocuments(ctx, []schema.Document{
		{PageContent: "straight ahead"},
		{PageContent: "sideways"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.NotEmpty(t, ids[0])
	require.NotEqual(t, ids[0], ids[1])
	require.Len(t, server.Documents(DefaultCollection), 2)

	empty, err := store.AddDocuments(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestSimilaritySearchRanksByCosine(t *testing.T) {
	store, _ := newTestStore(t, directionFixtures())
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []schema.Document{
		{PageContent: "sideways"},
		{PageContent: "straight ahead"},
		{PageContent: "up and right"},
	})
	require.NoError(t, err)

	docs, err := store.SimilaritySearch(ctx, "ahead", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "straight ahead", docs[0].PageContent)
	require.Equal(t, "up and right", docs[1].PageContent)
	require.InDelta(t, 1.0, docs[0].Score, 1e-4)
	require.InDelta(t, 0.8, docs[1].Score, 1e-4)
}

func TestScoreThresholdDropsDistantResults(t *testing.T) {
	store, _ := newTestStore(t, directionFixtures())
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []schema.Document{
		{PageContent: "straight ahead"},
		{PageContent: "up and right"},
		{PageContent: "sideways"},
	})
	require.NoError(t, err)

	docs, err := store.SimilaritySearch(ctx, "ahead", 3,
		vectorstores.WithScoreThreshold(0.75))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		require.GreaterOrEqual(t, doc.Score, float32(0.75))
	}

	_, err = store.SimilaritySearch(ctx, "ahead", 3,
		vectorstores.WithScoreThreshold(2))
	require.Error(t, err)
}

func TestMetadataRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, directionFixtures())
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []schema.Document{
		{PageContent: "straight ahead", Metadata: map[string]any{"source": "notes.md"}},
	})
	require.NoError(t, err)

	docs, err := store.SimilaritySearch(ctx, "ahead", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "notes.md", docs[0].Metadata["source"])
}

func TestToRetrieverOverAstra(t *testing.T) {
	store, _ := newTestStore(t, directionFixtures())
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, []schema.Document{
		{PageContent: "straight ahead"},
		{PageContent: "sideways"},
	})
	require.NoError(t, err)

	retriever := vectorstores.ToRetriever(store, 1)
	docs, err := retriever.GetRelevantDocuments(ctx, "ahead")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "straight ahead", docs[0].PageContent)
}
