// Package octoai implements the embeddings adapter for OctoAI's
// OpenAI-compatible embeddings endpoint, driven through the openai-go
// SDK like the chat adapter.
package octoai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/Jflick58/langchain/embeddings"
	"github.com/Jflick58/langchain/internal/logging"
	llmerrors "github.com/Jflick58/langchain/pkg/errors"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = "octoai"

	// DefaultBaseURL is OctoAI's OpenAI-compatible text endpoint.
	DefaultBaseURL = "https://text.octoai.run/v1"

	// DefaultModel is used when no embedding model is configured.
	DefaultModel = "thenlper/gte-large"

	tokenEnv = "OCTOAI_API_TOKEN"
)

// Embedder is an embeddings.Embedder backed by OctoAI.
type Embedder struct {
	token      string
	baseURL    string
	model      string
	maxRetries int
	client     *openai.Client
	limiter    *rate.Limiter
	logger     *logging.Logger
}

// Option configures the embedder.
type Option func(*Embedder)

// WithToken sets the API token explicitly instead of reading
// OCTOAI_API_TOKEN.
func WithToken(token string) Option {
	return func(e *Embedder) { e.token = token }
}

// WithBaseURL points the embedder at a different OpenAI-compatible
// endpoint.
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) { e.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithModel selects the embedding model.
func WithModel(model string) Option {
	return func(e *Embedder) { e.model = model }
}

// WithRateLimiter applies client-side rate limiting before each call.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(e *Embedder) { e.limiter = limiter }
}

// WithMaxRetries caps how many times the SDK retries retryable
// responses such as 429s.
func WithMaxRetries(n int) Option {
	return func(e *Embedder) { e.maxRetries = n }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Embedder) { e.logger = logger }
}

// New creates an OctoAI embedder.
//
//	embedder, err := octoai.New(octoai.WithModel("thenlper/gte-large"))
func New(opts ...Option) (*Embedder, error) {
	e := &Embedder{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxRetries: -1,
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.token == "" {
		e.token = os.Getenv(tokenEnv)
	}
	if e.token == "" {
		return nil, fmt.Errorf("octoai: missing API token, set %s or use WithToken", tokenEnv)
	}

	clientOpts := []option.RequestOption{
		option.WithBaseURL(e.baseURL),
		option.WithAPIKey(e.token),
	}
	if e.maxRetries >= 0 {
		clientOpts = append(clientOpts, option.WithMaxRetries(e.maxRetries))
	}
	e.client = openai.NewClient(clientOpts...)
	return e, nil
}

// Model returns the configured embedding model.
func (e *Embedder) Model() string {
	return e.model
}

// EmbedDocuments embeds texts in one request. The response is assembled
// by index so vectors line up with the input order regardless of how the
// provider orders its data array.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("octoai: rate limiter: %w", err)
		}
	}

	e.logger.Debug("sending embedding request", "model", e.model, "texts", len(texts))

	response, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings(texts)),
		Model: openai.F(e.model),
	})
	if err != nil {
		return nil, e.mapError(err)
	}

	vectors := make([][]float32, len(texts))
	for _, data := range response.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(vectors) {
			continue
		}
		vectors[idx] = toFloat32(data.Embedding)
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, fmt.Errorf("octoai: no embedding returned for input %d", i)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("octoai: no embedding returned")
	}
	return vectors[0], nil
}

func (e *Embedder) mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llmerrors.FromHTTPStatus(apiErr.StatusCode, ProviderName, e.model, apiErr.Message)
	}
	return fmt.Errorf("octoai: %w", err)
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

var _ embeddings.Embedder = (*Embedder)(nil)
