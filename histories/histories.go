// Package histories hosts the chat message history backends. Each
// subpackage persists session transcripts in a different store, all
// satisfying schema.ChatMessageHistory.
package histories

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewSessionID generates a URL-safe session identifier.
func NewSessionID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("histories: generate session id: %w", err)
	}
	return id, nil
}
