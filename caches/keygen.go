package caches

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/goccy/go-json"

	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/pkg/schema"
)

// KeyGenerator derives deterministic cache keys from a request. Two
// requests hash to the same key exactly when model, messages, and the
// sampling parameters all match.
type KeyGenerator struct {
	// Prefix is prepended to every generated key.
	Prefix string
}

// NewKeyGenerator creates a KeyGenerator with an optional prefix.
func NewKeyGenerator(prefix string) *KeyGenerator {
	return &KeyGenerator{Prefix: prefix}
}

type keyPayload struct {
	Model         string                      `json:"model"`
	Messages      []schema.Message            `json:"messages"`
	Temperature   *float64                    `json:"temperature,omitempty"`
	TopP          *float64                    `json:"top_p,omitempty"`
	MaxTokens     int                         `json:"max_tokens,omitempty"`
	StopSequences []string                    `json:"stop_sequences,omitempty"`
	Tools         []chatmodels.ToolDefinition `json:"tools,omitempty"`
}

// Key hashes the request into a SHA-256 hex digest, [prefix:]hash.
func (g *KeyGenerator) Key(model string, messages []schema.Message, opts *chatmodels.CallOptions) (string, error) {
	payload := keyPayload{
		Model:    model,
		Messages: messages,
	}
	if opts != nil {
		payload.Temperature = opts.Temperature
		payload.TopP = opts.TopP
		payload.MaxTokens = opts.MaxTokens
		payload.StopSequences = opts.StopSequences
		payload.Tools = opts.Tools
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if g.Prefix != "" {
		return g.Prefix + ":" + digest, nil
	}
	return digest, nil
}
