package caches

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/pkg/schema"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Ping(ctx context.Context) error { return nil }
func (f *fakeCache) Close() error                   { return nil }
func (f *fakeCache) Stats() Stats                   { return Stats{} }

type scriptedModel struct {
	calls   int
	content string
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Generate(ctx context.Context, messages []schema.Message, opts ...chatmodels.CallOption) (*schema.ChatResult, error) {
	m.calls++
	return &schema.ChatResult{
		Generations: []schema.Generation{{
			Message:    schema.NewAIMessage(m.content),
			StopReason: "stop",
		}},
		Usage: schema.Usage{TotalTokens: 7},
	}, nil
}

func TestCachedModelServesSecondCallFromCache(t *testing.T) {
	model := &scriptedModel{content: "four"}
	cached := NewCachedModel(model, newFakeCache())
	messages := []schema.Message{schema.NewHumanMessage("what is 2+2")}

	first, err := cached.Generate(context.Background(), messages)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, 1, model.calls)

	second, err := cached.Generate(context.Background(), messages)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, "four", second.Content())
	require.Equal(t, 7, second.Usage.TotalTokens)
	require.Equal(t, 1, model.calls)
}

func TestCachedModelSeparatesRequests(t *testing.T) {
	model := &scriptedModel{content: "answer"}
	cached := NewCachedModel(model, newFakeCache())

	_, err := cached.Generate(context.Background(), []schema.Message{schema.NewHumanMessage("q1")})
	require.NoError(t, err)
	_, err = cached.Generate(context.Background(), []schema.Message{schema.NewHumanMessage("q2")})
	require.NoError(t, err)
	require.Equal(t, 2, model.calls)
}

func TestCachedModelBypassesCacheWhenStreaming(t *testing.T) {
	model := &scriptedModel{content: "streamed"}
	cached := NewCachedModel(model, newFakeCache())
	messages := []schema.Message{schema.NewHumanMessage("stream it")}
	streamOpt := chatmodels.WithStreamFunc(func(ctx context.Context, token string) error { return nil })

	_, err := cached.Generate(context.Background(), messages, streamOpt)
	require.NoError(t, err)
	_, err = cached.Generate(context.Background(), messages, streamOpt)
	require.NoError(t, err)
	require.Equal(t, 2, model.calls)
}
