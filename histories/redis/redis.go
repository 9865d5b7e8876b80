// Package redis persists chat message history in a Redis list per
// session. Messages are appended with RPUSH and read back with LRANGE,
// so transcript order is the insertion order.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Jflick58/langchain/pkg/schema"
)

// DefaultKeyPrefix namespaces history keys in Redis.
const DefaultKeyPrefix = "chat_history:"

// History implements schema.ChatMessageHistory on a Redis list.
type History struct {
	client    goredis.UniversalClient
	sessionID string
	keyPrefix string
	ttl       time.Duration
}

// Option configures the history.
type Option func(*History)

// WithKeyPrefix replaces the default key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(h *History) { h.keyPrefix = prefix }
}

// WithTTL expires idle sessions. The TTL is refreshed on every append.
func WithTTL(ttl time.Duration) Option {
	return func(h *History) { h.ttl = ttl }
}

// New creates a history bound to sessionID on an existing Redis client.
//
//	history, err := redis.New(client, sessionID, redis.WithTTL(24*time.Hour))
func New(client goredis.UniversalClient, sessionID string, opts ...Option) (*History, error) {
	if client == nil {
		return nil, errors.New("redis: client is required")
	}
	if sessionID == "" {
		return nil, errors.New("redis: session id is required")
	}

	h := &History{
		client:    client,
		sessionID: sessionID,
		keyPrefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// SessionID returns the session this history is bound to.
func (h *History) SessionID() string {
	return h.sessionID
}

func (h *History) key() string {
	return h.keyPrefix + h.sessionID
}

// Messages returns the session transcript in insertion order.
func (h *History) Messages(ctx context.Context) ([]schema.Message, error) {
	entries, err := h.client.LRange(ctx, h.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read history: %w", err)
	}

	messages := make([]schema.Message, 0, len(entries))
	for i, entry := range entries {
		var msg schema.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("redis: decode message %d: %w", i, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// AddMessage appends a message and refreshes the session TTL.
func (h *History) AddMessage(ctx context.Context, msg schema.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis: encode message: %w", err)
	}
	if err := h.client.RPush(ctx, h.key(), data).Err(); err != nil {
		return fmt.Errorf("redis: append message: %w", err)
	}
	return h.refreshTTL(ctx)
}

// AddUserMessage appends a human turn.
func (h *History) AddUserMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, schema.NewHumanMessage(text))
}

// AddAIMessage appends an AI turn.
func (h *History) AddAIMessage(ctx context.Context, text string) error {
	return h.AddMessage(ctx, schema.NewAIMessage(text))
}

// SetMessages replaces the transcript atomically.
func (h *History) SetMessages(ctx context.Context, msgs []schema.Message) error {
	encoded := make([]any, 0, len(msgs))
	for i, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("redis: encode message %d: %w", i, err)
		}
		encoded = append(encoded, data)
	}

	pipe := h.client.TxPipeline()
	pipe.Del(ctx, h.key())
	if len(encoded) > 0 {
		pipe.RPush(ctx, h.key(), encoded...)
		if h.ttl > 0 {
			pipe.Expire(ctx, h.key(), h.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: replace history: %w", err)
	}
	return nil
}

// Clear removes the transcript.
func (h *History) Clear(ctx context.Context) error {
	if err := h.client.Del(ctx, h.key()).Err(); err != nil {
		return fmt.Errorf("redis: clear history: %w", err)
	}
	return nil
}

func (h *History) refreshTTL(ctx context.Context) error {
	if h.ttl <= 0 {
		return nil
	}
	if err := h.client.Expire(ctx, h.key(), h.ttl).Err(); err != nil {
		return fmt.Errorf("redis: refresh ttl: %w", err)
	}
	return nil
}

var _ schema.ChatMessageHistory = (*History)(nil)
