// Package postgres persists chat message history in a Postgres table via
// gorm. Rows carry an autoincrement id, so transcripts read back in
// insertion order. The history operates on a caller-provided *gorm.DB.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/Jflick58/langchain/pkg/schema"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "chat_messages"

type messageRecord struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index;size:255;not null"`
	Role      string `gorm:"size:32;not null"`
	Message   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// Store manages the history table. One store serves histories for any
// number of sessions.
type Store struct {
	db    *gorm.DB
	table string
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithTable selects the table name.
func WithTable(table string) StoreOption {
	return func(s *Store) { s.table = table }
}

// NewStore migrates the history table and returns a store for it. The
// database handle remains owned by the caller.
func NewStore(db *gorm.DB, opts ...StoreOption) (*Store, error) {
	if db == nil {
		return nil, errors.New("postgres: db is required")
	}

	s := &Store{
		db:    db,
		table: DefaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.Table(s.table).AutoMigrate(&messageRecord{}); err != nil {
		return nil, fmt.Errorf("postgres: migrate history table: %w", err)
	}
	return s, nil
}

// History returns the message history for a session.
func (s *Store) History(sessionID string) (*History, error) {
	if sessionID == "" {
		return nil, errors.New("postgres: session id is required")
	}
	return &History{store: s, sessionID: sessionID}, nil
}

// History implements schema.ChatMessageHistory on a Postgres table.
type History struct {
	store     *Store
	sessionID string
}

// SessionID returns the session this history is bound to.
func (h *History) SessionID() string {
	return h.sessionID
}

// Messages returns the session transcript in insertion order.
func (h *History) Messages(ctx context.Context) ([]schema.Message, error) {
	var records []messageRecord
	err := h.store.db.WithContext(ctx).Table(h.store.table).
		Where("session_id = ?", h.sessionID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: read history: %w", err)
	}

	messages := make([]schema.Message, 0, len(records))
	for _, record := range records {
		var msg schema.Message
		if err := json.Unmarshal([]byte(record.Message), &msg); err != nil {
			return nil, fmt.Errorf("postgres: decode message %d: %w", record.ID, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// AddMessage appends a message to the transcript.
func (h *History) AddMessage(ctx context.Context, msg schema.Message) error {
	record, err := h.newRecord(msg)
	if err != nil {
		return err
	}
	if err := h.store.db.WithContext(ctx).Table(h.store.table).Create(&record).Error; err != nil {
		return fmt.Errorf("postgres: append message: %w", err)
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

// SetMessages replaces the transcript in one transaction.
func (h *History) SetMessages(ctx context.Context, msgs []schema.Message) error {
	records := make([]messageRecord, 0, len(msgs))
	for _, msg := range msgs {
		record, err := h.newRecord(msg)
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	err := h.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(h.store.table).
			Where("session_id = ?", h.sessionID).
			Delete(&messageRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Table(h.store.table).Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("postgres: replace history: %w", err)
	}
	return nil
}

// Clear removes every message in the session.
func (h *History) Clear(ctx context.Context) error {
	err := h.store.db.WithContext(ctx).Table(h.store.table).
		Where("session_id = ?", h.sessionID).
		Delete(&messageRecord{}).Error
	if err != nil {
		return fmt.Errorf("postgres: clear history: %w", err)
	}
	return nil
}

func (h *History) newRecord(msg schema.Message) (messageRecord, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return messageRecord{}, fmt.Errorf("postgres: encode message: %w", err)
	}
	return messageRecord{
		SessionID: h.sessionID,
		Role:      string(msg.Role),
		Message:   string(data),
	}, nil
}

var _ schema.ChatMessageHistory = (*History)(nil)
