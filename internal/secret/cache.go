package secret

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider wraps a Provider with an expiring in-memory cache, so
// repeated resolution of the same reference does not hit a remote
// backend on every profile reload. Errors are not cached.
type CachedProvider struct {
	next   Provider
	values *cache.Cache
}

// NewCachedProvider caches values resolved through next for ttl.
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, values: cache.New(ttl, 2*ttl)}
}

// Get serves from the cache when possible.
func (p *CachedProvider) Get(ctx context.Context, path string) (string, error) {
	if hit, ok := p.values.Get(path); ok {
		return hit.(string), nil // only strings are stored
	}

	value, err := p.next.Get(ctx, path)
	if err != nil {
		return "", err
	}
	p.values.Set(path, value, cache.DefaultExpiration)
	return value, nil
}

// Close closes the wrapped provider.
func (p *CachedProvider) Close() error { return p.next.Close() }

var _ Provider = (*CachedProvider)(nil)
