// Package vault reads secrets from HashiCorp Vault. The path of a
// "vault://mount/path#field" reference names a logical secret and the
// field to extract; the field defaults to "value" when omitted. KV v2
// data wrappers are unwrapped transparently.
package vault

import (
	"context"
	"fmt"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"

	"github.com/Jflick58/langchain/internal/logging"
)

// Config holds connection and authentication settings.
type Config struct {
	// Address of the Vault server. When empty the client falls back to
	// the VAULT_ADDR environment variable.
	Address string

	// Token authenticates directly when set and takes priority over
	// AppRole credentials.
	Token string

	// RoleID and SecretID perform an AppRole login when Token is empty.
	RoleID   string
	SecretID string

	// Logger reports token renewal problems. Defaults to the module
	// logger.
	Logger *logging.Logger
}

// Provider resolves secrets against one Vault server.
type Provider struct {
	client *vault.Client
	logger *logging.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New connects and authenticates. AppRole logins start a background
// token renewer that runs until Close.
func New(cfg Config) (*Provider, error) {
	vConfig := vault.DefaultConfig()
	if cfg.Address != "" {
		vConfig.Address = cfg.Address
	}

	client, err := vault.NewClient(vConfig)
	if err != nil {
		return nil, fmt.Errorf("vault: create client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	p := &Provider{
		client: client,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	switch {
	case cfg.Token != "":
		client.SetToken(cfg.Token)

	case cfg.RoleID != "":
		login, err := client.Logical().Write("auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return nil, fmt.Errorf("vault: approle login: %w", err)
		}
		if login == nil || login.Auth == nil {
			return nil, fmt.Errorf("vault: approle login returned no auth info")
		}
		client.SetToken(login.Auth.ClientToken)

		p.wg.Add(1)
		go p.renewToken(login.Auth)

	default:
		return nil, fmt.Errorf("vault: token or approle credentials are required")
	}

	return p, nil
}

// Get reads the secret at path and extracts the requested field.
func (p *Provider) Get(ctx context.Context, path string) (string, error) {
	secretPath := path
	field := "value"
	if idx := strings.LastIndex(path, "#"); idx != -1 {
		secretPath = path[:idx]
		field = path[idx+1:]
	}

	read, err := p.client.Logical().ReadWithContext(ctx, secretPath)
	if err != nil {
		return "", fmt.Errorf("vault: read %q: %w", secretPath, err)
	}
	if read == nil || read.Data == nil {
		return "", fmt.Errorf("vault: secret %q not found", secretPath)
	}

	// KV v2 nests the payload under a "data" key.
	data := read.Data
	if wrapped, ok := data["data"]; ok {
		if nested, ok := wrapped.(map[string]interface{}); ok {
			data = nested
		}
	}

	value, ok := data[field]
	if !ok {
		return "", fmt.Errorf("vault: field %q not found in secret %q", field, secretPath)
	}

	return fmt.Sprintf("%v", value), nil
}

// Close stops the token renewer.
func (p *Provider) Close() error {
	close(p.stopCh)
	p.wg.Wait()
	return nil
}

func (p *Provider) renewToken(auth *vault.SecretAuth) {
	defer p.wg.Done()

	if !auth.Renewable {
		return
	}

	watcher, err := p.client.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: &vault.Secret{Auth: auth},
	})
	if err != nil {
		p.logger.Error("vault: create lifetime watcher", "error", err)
		return
	}

	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case err := <-watcher.DoneCh():
			if err != nil {
				p.logger.Error("vault: token renewal stopped", "error", err)
			}
			return
		case <-watcher.RenewCh():
			p.logger.Debug("vault: token renewed")
		}
	}
}
