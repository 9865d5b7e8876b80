// Package astradb persists chat message history in an Astra DB
// collection. Each message is one document carrying the session id and a
// monotonic sequence number, so transcripts read back in insertion order
// regardless of how the Data API pages results.
package astradb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/Jflick58/langchain/internal/astra"
	"github.com/Jflick58/langchain/pkg/schema"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "chat_history"

// Store manages the history collection. One store serves histories for
// any number of sessions.
type Store struct {
	client     *astra.Client
	collection string
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithCollection selects the Astra collection name.
func WithCollection(name string) StoreOption {
	return func(s *Store) { s.collection = name }
}

// NewStore creates the history collection if needed and returns a store
// for it.
func NewStore(ctx context.Context, client *astra.Client, opts ...StoreOption) (*Store, error) {
	if client == nil {
		return nil, errors.New("astradb: client is required")
	}

	s := &Store{
		client:     client,
		collection: DefaultCollection,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := client.CreateCollection(ctx, s.collection, nil); err != nil {
		return nil, fmt.Errorf("astradb: ensure collection: %w", err)
	}
	return s, nil
}

// History returns the message history for a session.
func (s *Store) History(sessionID string) (*History, error) {
	if sessionID == "" {
		return nil, errors.New("astradb: session id is required")
	}
	return &History{store: s, sessionID: sessionID}, nil
}

// History implements schema.ChatMessageHistory on an Astra collection.
type History struct {
	store     *Store
	sessionID string
}

// SessionID returns the session this history is bound to.
func (h *History) SessionID() string {
	return h.sessionID
}

// Messages returns the session transcript in insertion order, following
// Data API paging until the transcript is complete.
func (h *History) Messages(ctx context.Context) ([]schema.Message, error) {
	var messages []schema.Message
	pageState := ""
	for {
		docs, next, err := h.store.client.Find(ctx, h.store.collection, astra.FindQuery{
			Filter:    map[string]any{"session_id": h.sessionID},
			Sort:      map[string]any{"seq": 1},
			PageState: pageState,
		})
		if err != nil {
			return nil, fmt.Errorf("astradb: read history: %w", err)
		}

		for _, doc := range docs {
			payload, _ := doc["message"].(string)
			var msg schema.Message
			if err := json.Unmarshal([]byte(payload), &msg); err != nil {
				return nil, fmt.Errorf("astradb: decode message: %w", err)
			}
			messages = append(messages, msg)
		}

		if next == "" {
			return messages, nil
		}
		pageState = next
	}
}

// AddMessage appends a message to the transcript.
func (h *History) AddMessage(ctx context.Context, msg schema.Message) error {
	return h.insert(ctx, msg, time.Now().UnixNano())
}

// AddUserMessage appends a human turn.
func (h *History) AddUserMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, schema.NewHumanMessage(text))
}

// AddAIMessage appends an AI turn.
func (h *History) AddAIMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, schema.NewAIMessage(text))
}

// SetMessages replaces the transcript.
func (h *History) SetMessages(ctx context.Context, msgs []schema.Message) error {
	if err := h.Clear(ctx); err != nil {
		return err
	}

	// Sequence numbers derive from one timestamp so replacement order is
	// stable even when inserts land within the same nanosecond.
	base := time.Now().UnixNano()
	for i, msg := range msgs {
		if err := h.insert(ctx, msg, base+int64(i)); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every message in the session.
func (h *History) Clear(ctx context.Context) error {
	_, err := h.store.client.DeleteMany(ctx, h.store.collection, map[string]any{
		"session_id": h.sessionID,
	})
	if err != nil {
		return fmt.Errorf("astradb: clear history: %w", err)
	}
	return nil
}

func (h *History) insert(ctx context.Context, msg schema.Message, seq int64) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("astradb: encode message: %w", err)
	}

	doc := astra.Document{
		"session_id": h.sessionID,
		"seq":        seq,
		"role":       string(msg.Role),
		"message":    string(data),
	}
	if err := h.store.client.InsertOne(ctx, h.store.collection, doc); err != nil {
		return fmt.Errorf("astradb: append message: %w", err)
	}
	return nil
}

var _ schema.ChatMessageHistory = (*History)(nil)
