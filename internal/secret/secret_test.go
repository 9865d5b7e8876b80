package secret

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	values map[string]string
	err    error
	calls  int
	closed bool
}

func (p *staticProvider) Get(_ context.Context, path string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	value, ok := p.values[path]
	if !ok {
		return "", fmt.Errorf("no value for %q", path)
	}
	return value, nil
}

func (p *staticProvider) Close() error {
	p.closed = true
	return nil
}

func TestResolveRoutesByScheme(t *testing.T) {
	provider := &staticProvider{values: map[string]string{"ANTHROPIC_API_KEY": "sk-ant-test"}}
	r := NewResolver()
	r.Register("env", provider)

	value, err := r.Resolve(context.Background(), "env://ANTHROPIC_API_KEY")
	require.NoError(t, err)
	require.Equal(t, "sk-ant-test", value)
	require.Equal(t, 1, provider.calls)
}

func TestResolveReturnsLiteralWithoutScheme(t *testing.T) {
	r := NewResolver()

	value, err := r.Resolve(context.Background(), "sk-plain-key")
	require.NoError(t, err)
	require.Equal(t, "sk-plain-key", value)
}

func TestResolveRejectsUnknownScheme(t *testing.T) {
	r := NewResolver()
	r.Register("env", &staticProvider{})

	_, err := r.Resolve(context.Background(), "vault://secret/data/llm#api_key")
	require.ErrorContains(t, err, `no provider registered for scheme "vault"`)
}

func TestResolveWrapsProviderError(t *testing.T) {
	r := NewResolver()
	r.Register("env", &staticProvider{err: errors.New("backend down")})

	_, err := r.Resolve(context.Background(), "env://TOKEN")
	require.ErrorContains(t, err, "resolve env://TOKEN")
	require.ErrorContains(t, err, "backend down")
}

func TestCloseClosesProviders(t *testing.T) {
	first := &staticProvider{}
	second := &staticProvider{}
	r := NewResolver()
	r.Register("env", first)
	r.Register("vault", second)

	require.NoError(t, r.Close())
	require.True(t, first.closed)
	require.True(t, second.closed)
}

func TestCachedProviderHitsInnerOnce(t *testing.T) {
	inner := &staticProvider{values: map[string]string{"TOKEN": "abc"}}
	cached := NewCachedProvider(inner, time.Minute)

	for i := 0; i < 3; i++ {
		value, err := cached.Get(context.Background(), "TOKEN")
		require.NoError(t, err)
		require.Equal(t, "abc", value)
	}
	require.Equal(t, 1, inner.calls)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	inner := &staticProvider{err: errors.New("sealed")}
	cached := NewCachedProvider(inner, time.Minute)

	_, err := cached.Get(context.Background(), "TOKEN")
	require.Error(t, err)
	_, err = cached.Get(context.Background(), "TOKEN")
	require.Error(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestCachedProviderCloseClosesInner(t *testing.T) {
	inner := &staticProvider{}
	cached := NewCachedProvider(inner, time.Minute)

	require.NoError(t, cached.Close())
	require.True(t, inner.closed)
}
