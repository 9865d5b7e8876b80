package octoai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/embeddings/octoai"
	llmerrors "github.com/Jflick58/langchain/pkg/errors"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *octoai.Embedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	embedder, err := octoai.New(
		octoai.WithToken("test-token"),
		octoai.WithBaseURL(server.URL),
		octoai.WithMaxRetries(0),
	)
	require.NoError(t, err)
	return embedder
}

func TestEmbedDocuments(t *testing.T) {
	var body string
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		body = string(raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "embedding": [0.1, 0.2], "index": 0},
				{"object": "embedding", "embedding": [0.3, 0.4], "index": 1}
			],
			"model": "thenlper/gte-large",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	})

	vectors, err := embedder.EmbedDocuments(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Equal(t, []float32{0.1, 0.2}, vectors[0])
	require.Equal(t, []float32{0.3, 0.4}, vectors[1])

	require.Contains(t, body, `"thenlper/gte-large"`)
	require.Contains(t, body, `"first"`)
	require.Contains(t, body, `"second"`)
}

func TestEmbedDocumentsAssemblesByIndex(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object": "embedding", "embedding": [0.3, 0.4], "index": 1},
				{"object": "embedding", "embedding": [0.1, 0.2], "index": 0}
			],
			"model": "thenlper/gte-large",
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	})

	vectors, err := embedder.EmbedDocuments(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2}, vectors[0])
	require.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbedDocumentsEmptyInput(t *testing.T) {
	var calls atomic.Int64
	embedder := newTestEmbedder(t, func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	})

	vectors, err := embedder.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, vectors)
	require.Zero(t, calls.Load())
}

func TestEmbedQuery(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "embedding": [0.5], "index": 0}],
			"model": "thenlper/gte-large",
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	})

	vector, err := embedder.EmbedQuery(context.Background(), "query text")
	require.NoError(t, err)
	require.Equal(t, []float32{0.5}, vector)
}

func TestEmbedMapsProviderErrors(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit_error"}}`))
	})

	_, err := embedder.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)

	var llmErr *llmerrors.LLMError
	require.ErrorAs(t, err, &llmErr)
	require.Equal(t, llmerrors.TypeRateLimit, llmErr.Type)
	require.True(t, llmErr.Retryable)
}

func TestNewRequiresToken(t *testing.T) {
	t.Setenv("OCTOAI_API_TOKEN", "")

	_, err := octoai.New()
	require.Error(t, err)
}
