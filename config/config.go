// Package config loads integration profiles: the models, stores, and
// credentials an application wires its components with. Profiles are
// YAML; ${VAR} expands from the environment and credential fields may
// hold secret references such as "env://ANTHROPIC_API_KEY" or
// "vault://secret/data/llm#api_key". A Manager watches the profile file
// and swaps the parsed profile atomically on change.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jflick58/langchain/internal/secret"
	"github.com/Jflick58/langchain/internal/secret/env"
	"github.com/Jflick58/langchain/internal/secret/vault"
)

// Logging controls the logger an application builds from the profile.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Integration describes one external service a component connects to.
type Integration struct {
	// Name identifies the integration within the profile.
	Name string `yaml:"name"`

	// Kind names what the integration backs: chat_model, embedder,
	// vector_store, kv_store, history, cache, or loader.
	Kind string `yaml:"kind"`

	// Credential is a literal key or a secret reference.
	Credential string `yaml:"credential"`

	// Endpoint is the service URL, DSN, or host list.
	Endpoint string `yaml:"endpoint"`

	// Model pins a model identifier for model-backed kinds.
	Model string `yaml:"model"`

	// Options carries integration specific settings such as collection
	// names, keyspaces, or dimensions.
	Options map[string]string `yaml:"options"`

	// Secret is the resolved value of Credential. It is populated
	// during load and never serialized.
	Secret string `yaml:"-"`
}

// Profile is a parsed integration profile.
type Profile struct {
	Logging      Logging       `yaml:"logging"`
	Integrations []Integration `yaml:"integrations"`
}

// Integration returns the named integration, or nil when the profile
// does not define it.
func (p *Profile) Integration(name string) *Integration {
	for i := range p.Integrations {
		if p.Integrations[i].Name == name {
			return &p.Integrations[i]
		}
	}
	return nil
}

// Validate checks the profile for structural errors.
func (p *Profile) Validate() error {
	switch p.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", p.Logging.Level)
	}
	switch p.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format %q is not json or text", p.Logging.Format)
	}

	seen := make(map[string]struct{}, len(p.Integrations))
	for i, integration := range p.Integrations {
		if integration.Name == "" {
			return fmt.Errorf("integration[%d]: name is required", i)
		}
		if _, dup := seen[integration.Name]; dup {
			return fmt.Errorf("integration[%d]: duplicate name %q", i, integration.Name)
		}
		seen[integration.Name] = struct{}{}
		if integration.Kind == "" {
			return fmt.Errorf("integration[%d] %q: kind is required", i, integration.Name)
		}
	}
	return nil
}

// CredentialResolver resolves credential references during load.
// internal/secret provides the default implementation.
type CredentialResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

type loadOptions struct {
	resolver CredentialResolver
}

// LoadOption configures LoadFromFile.
type LoadOption func(*loadOptions)

// WithResolver overrides the credential resolver. The caller keeps
// ownership of it.
func WithResolver(r CredentialResolver) LoadOption {
	return func(o *loadOptions) {
		o.resolver = r
	}
}

// DefaultProfile returns an empty profile with logging defaults.
func DefaultProfile() *Profile {
	return &Profile{
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromFile reads, expands, validates, and resolves a profile. By
// default credential references resolve against the environment, plus
// Vault when VAULT_ADDR is set.
func LoadFromFile(ctx context.Context, path string, opts ...LoadOption) (*Profile, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.resolver == nil {
		resolver, err := newDefaultResolver()
		if err != nil {
			return nil, err
		}
		defer func() { _ = resolver.Close() }()
		o.resolver = resolver
	}

	return loadFromFile(ctx, path, o.resolver)
}

func loadFromFile(ctx context.Context, path string, resolver CredentialResolver) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profile: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	profile := DefaultProfile()
	if err := yaml.Unmarshal([]byte(expanded), profile); err != nil {
		return nil, fmt.Errorf("config: parse profile: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate profile: %w", err)
	}

	for i := range profile.Integrations {
		ref := profile.Integrations[i].Credential
		if ref == "" {
			continue
		}
		value, err := resolver.Resolve(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("config: integration %q: %w", profile.Integrations[i].Name, err)
		}
		profile.Integrations[i].Secret = value
	}

	return profile, nil
}

// newDefaultResolver resolves env:// references always, and vault://
// references when VAULT_ADDR is set. Vault reads are cached so a profile
// reload does not hit the backend for every integration.
func newDefaultResolver() (*secret.Resolver, error) {
	r := secret.NewResolver()
	r.Register("env", env.New())

	if os.Getenv("VAULT_ADDR") != "" {
		provider, err := vault.New(vault.Config{
			Token:    os.Getenv("VAULT_TOKEN"),
			RoleID:   os.Getenv("VAULT_ROLE_ID"),
			SecretID: os.Getenv("VAULT_SECRET_ID"),
		})
		if err != nil {
			return nil, fmt.Errorf("config: configure vault provider: %w", err)
		}
		r.Register("vault", secret.NewCachedProvider(provider, 5*time.Minute))
	}

	return r, nil
}
