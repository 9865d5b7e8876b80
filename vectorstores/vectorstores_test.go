package vectorstores_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/vectorstores"
)

type stubStore struct {
	query string
	k     int
	opts  vectorstores.Options
	docs  []schema.Document
}

func (s *stubStore) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	return nil, nil
}

func (s *stubStore) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstores.Option) ([]schema.Document, error) {
	s.query = query
	s.k = k
	o, err := vectorstores.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	s.opts = o
	return s.docs, nil
}

func TestToRetrieverDelegatesToStore(t *testing.T) {
	store := &stubStore{docs: []schema.Document{
		{PageContent: "rotate keys with the cli", Score: 0.92},
	}}

	retriever := vectorstores.ToRetriever(store, 4, vectorstores.WithScoreThreshold(0.7))

	docs, err := retriever.GetRelevantDocuments(context.Background(), "credential rotation")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "credential rotation", store.query)
	require.Equal(t, 4, store.k)
	require.InDelta(t, 0.7, store.opts.ScoreThreshold, 1e-6)
}

func TestApplyOptionsRejectsBadThreshold(t *testing.T) {
	_, err := vectorstores.ApplyOptions(vectorstores.WithScoreThreshold(1.5))
	require.Error(t, err)

	_, err = vectorstores.ApplyOptions(vectorstores.WithScoreThreshold(-0.1))
	require.Error(t, err)
}
