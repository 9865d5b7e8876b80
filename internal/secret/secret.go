// Package secret resolves credential references of the form
// "scheme://rest" to their values. Integration profiles use references
// like "env://ANTHROPIC_API_KEY" or "vault://secret/data/llm#api_key"
// instead of embedding keys, and a Resolver routes each reference to the
// provider registered for its scheme.
package secret

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider fetches secret values from one backing source.
type Provider interface {
	// Get returns the value stored at path. The path is the part of a
	// reference after "scheme://".
	Get(ctx context.Context, path string) (string, error)

	// Close releases resources held by the provider.
	Close() error
}

// Resolver routes credential references to providers by scheme. A
// reference without a scheme is returned unchanged, so literal keys
// keep working where references are accepted.
type Resolver struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider for a scheme such as "env" or "vault".
func (r *Resolver) Register(scheme string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[scheme] = provider
}

// Resolve returns the value a reference points at.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	scheme, path, found := strings.Cut(ref, "://")
	if !found {
		return ref, nil
	}

	r.mu.RLock()
	provider, ok := r.providers[scheme]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("secret: no provider registered for scheme %q", scheme)
	}

	value, err := provider.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("secret: resolve %s://%s: %w", scheme, path, err)
	}
	return value, nil
}

// Close closes every registered provider and reports the first failure.
func (r *Resolver) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var firstErr error
	for scheme, provider := range r.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("secret: close %s provider: %w", scheme, err)
		}
	}
	return firstErr
}
