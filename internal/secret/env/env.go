// Package env reads secrets from environment variables. The path of an
// "env://NAME" reference is the variable name.
package env

import (
	"context"
	"fmt"
	"os"
)

// Provider resolves environment variables.
type Provider struct{}

// New creates an environment provider.
func New() *Provider { return &Provider{} }

// Get returns the value of the variable named by path. An unset
// variable is an error; an empty value is not.
func (p *Provider) Get(_ context.Context, path string) (string, error) {
	value, ok := os.LookupEnv(path)
	if !ok {
		return "", fmt.Errorf("env: variable %q is not set", path)
	}
	return value, nil
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
