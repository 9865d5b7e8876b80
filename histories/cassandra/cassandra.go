// Package cassandra persists chat message history in a Cassandra table.
// Each session is a partition and messages cluster on a timeuuid column,
// so reads return the transcript in insertion order. The history operates
// on a caller-provided gocql session.
package cassandra

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gocql/gocql"

	"github.com/Jflick58/langchain/pkg/schema"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "chat_history"

// History implements schema.ChatMessageHistory on a Cassandra table.
type History struct {
	session   *gocql.Session
	sessionID string
	table     string
}

// Option configures the history.
type Option func(*History)

// WithTable selects the table name, optionally keyspace-qualified.
func WithTable(table string) Option {
	return func(h *History) { h.table = table }
}

// New creates a history bound to sessionID on an existing gocql session.
// The session remains owned by the caller.
func New(session *gocql.Session, sessionID string, opts ...Option) (*History, error) {
	if session == nil {
		return nil, errors.New("cassandra: session is required")
	}
	if sessionID == "" {
		return nil, errors.New("cassandra: session id is required")
	}

	h := &History{
		session:   session,
		sessionID: sessionID,
		table:     DefaultTable,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// EnsureTable creates the history table if it does not exist.
func (h *History) EnsureTable(ctx context.Context) error {
	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			session_id text,
			seq timeuuid,
			message text,
			PRIMARY KEY (session_id, seq)
		) WITH CLUSTERING ORDER BY (seq ASC)`, h.table)
	if err := h.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: create table: %w", err)
	}
	return nil
}

// SessionID returns the session this history is bound to.
func (h *History) SessionID() string {
	return h.sessionID
}

// Messages returns the session transcript in insertion order.
func (h *History) Messages(ctx context.Context) ([]schema.Message, error) {
	stmt := fmt.Sprintf(`SELECT message FROM %s WHERE session_id = ?`, h.table)
	iter := h.session.Query(stmt, h.sessionID).WithContext(ctx).Iter()

	var messages []schema.Message
	var payload string
	for iter.Scan(&payload) {
		var msg schema.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			_ = iter.Close()
			return nil, fmt.Errorf("cassandra: decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cassandra: read history: %w", err)
	}
	return messages, nil
}

// AddMessage appends a message to the transcript.
func (h *History) AddMessage(ctx context.Context, msg schema.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("cassandra: encode message: %w", err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (session_id, seq, message) VALUES (?, ?, ?)`, h.table)
	if err := h.session.Query(stmt, h.sessionID, gocql.TimeUUID(), string(data)).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: append message: %w", err)
	}
	return nil
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
	for _, msg := range msgs {
		if err := h.AddMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes the session partition.
func (h *History) Clear(ctx context.Context) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, h.table)
	if err := h.session.Query(stmt, h.sessionID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: clear history: %w", err)
	}
	return nil
}

var _ schema.ChatMessageHistory = (*History)(nil)
