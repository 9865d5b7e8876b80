// Package inmemory provides a process-local chat message history. A
// Store holds every session's transcript; History binds one session to
// the schema.ChatMessageHistory contract.
package inmemory

import (
	"context"
	"sync"

	"github.com/Jflick58/langchain/pkg/schema"
)

// Store is a thread-safe in-memory transcript store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]schema.Message
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string][]schema.Message),
	}
}

// History returns the session-bound history view. Histories for the
// same session share the underlying transcript.
func (s *Store) History(sessionID string) *History {
	return &History{store: s, sessionID: sessionID}
}

// Sessions lists the session IDs with at least one message.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id, msgs := range s.sessions {
		if len(msgs) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) messages(sessionID string) []schema.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.sessions[sessionID]
	result := make([]schema.Message, len(stored))
	copy(result, stored)
	return result
}

func (s *Store) append(sessionID string, msg schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
}

func (s *Store) set(sessionID string, msgs []schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]schema.Message, len(msgs))
	copy(stored, msgs)
	s.sessions[sessionID] = stored
}

func (s *Store) clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// History is one session's view of a Store.
type History struct {
	store     *Store
	sessionID string
}

// NewHistory creates a standalone history with its own store.
func NewHistory() *History {
	return NewStore().History("")
}

// SessionID returns the session this history is bound to.
func (h *History) SessionID() string {
	return h.sessionID
}

// Messages returns the session transcript in insertion order.
func (h *History) Messages(ctx context.Context) ([]schema.Message, error) {
	return h.store.messages(h.sessionID), nil
}

// AddMessage appends a message to the transcript.
func (h *History) AddMessage(ctx context.Context, msg schema.Message) error {
	h.store.append(h.sessionID, msg)
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
	h.store.set(h.sessionID, msgs)
	return nil
}

// Clear removes the transcript.
func (h *History) Clear(ctx context.Context) error {
	h.store.clear(h.sessionID)
	return nil
}

var _ schema.ChatMessageHistory = (*History)(nil)
