package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	// Keep the default resolver env-only regardless of the host.
	t.Setenv("VAULT_ADDR", "")
	path := filepath.Join(t.TempDir(), "langchain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileResolvesCredentials(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-ant-unit")
	path := writeProfile(t, `
logging:
  level: debug
  format: text
integrations:
  - name: anthropic
    kind: chat_model
    credential: env://TEST_ANTHROPIC_KEY
    model: claude-sonnet-4-5
  - name: astra-docs
    kind: vector_store
    endpoint: https://db.example.com
    options:
      collection: documents
`)

	profile, err := LoadFromFile(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, "debug", profile.Logging.Level)
	require.Equal(t, "text", profile.Logging.Format)

	anthropic := profile.Integration("anthropic")
	require.NotNil(t, anthropic)
	require.Equal(t, "chat_model", anthropic.Kind)
	require.Equal(t, "claude-sonnet-4-5", anthropic.Model)
	require.Equal(t, "sk-ant-unit", anthropic.Secret)
	require.Equal(t, "env://TEST_ANTHROPIC_KEY", anthropic.Credential)

	astra := profile.Integration("astra-docs")
	require.NotNil(t, astra)
	require.Equal(t, "", astra.Secret)
	require.Equal(t, "documents", astra.Options["collection"])

	require.Nil(t, profile.Integration("missing"))
}

func TestLoadFromFileExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_ASTRA_ENDPOINT", "https://db-region.apps.astra.datastax.com")
	path := writeProfile(t, `
integrations:
  - name: astra
    kind: vector_store
    endpoint: ${TEST_ASTRA_ENDPOINT}
`)

	profile, err := LoadFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "https://db-region.apps.astra.datastax.com", profile.Integration("astra").Endpoint)
}

func TestLoadFromFileKeepsLiteralCredentials(t *testing.T) {
	path := writeProfile(t, `
integrations:
  - name: octoai
    kind: chat_model
    credential: sk-literal-token
`)

	profile, err := LoadFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "sk-literal-token", profile.Integration("octoai").Secret)
}

func TestLoadFromFileFailsOnUnresolvableCredential(t *testing.T) {
	path := writeProfile(t, `
integrations:
  - name: anthropic
    kind: chat_model
    credential: env://TEST_UNSET_CREDENTIAL
`)

	_, err := LoadFromFile(context.Background(), path)
	require.ErrorContains(t, err, `integration "anthropic"`)
	require.ErrorContains(t, err, "TEST_UNSET_CREDENTIAL")
}

func TestLoadFromFileValidates(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing integration name",
			content: `
integrations:
  - kind: chat_model
`,
			wantErr: "name is required",
		},
		{
			name: "missing kind",
			content: `
integrations:
  - name: anthropic
`,
			wantErr: "kind is required",
		},
		{
			name: "duplicate names",
			content: `
integrations:
  - name: anthropic
    kind: chat_model
  - name: anthropic
    kind: embedder
`,
			wantErr: `duplicate name "anthropic"`,
		},
		{
			name: "bad logging level",
			content: `
logging:
  level: verbose
`,
			wantErr: "logging.level",
		},
		{
			name: "bad logging format",
			content: `
logging:
  format: xml
`,
			wantErr: "logging.format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeProfile(t, tc.content)
			_, err := LoadFromFile(context.Background(), path)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, "read profile")
}

func TestDefaultProfileLoggingDefaultsSurvive(t *testing.T) {
	path := writeProfile(t, `
integrations:
  - name: redis
    kind: cache
    endpoint: redis://localhost:6379
`)

	profile, err := LoadFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "info", profile.Logging.Level)
	require.Equal(t, "json", profile.Logging.Format)
}
