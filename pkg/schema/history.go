package schema

import "context"

// ChatMessageHistory is the durable transcript of one conversation
// session. Implementations own ordering and durability; callers never
// see how messages are stored. All methods honor context cancellation
// when the backing store is remote.
type ChatMessageHistory interface {
	// Messages returns the full transcript in insertion order.
	Messages(ctx context.Context) ([]Message, error)

	// AddMessage appends a message to the transcript.
	AddMessage(ctx context.Context, msg Message) error

	// AddUserMessage appends a human turn built from text.
	AddUserMessage(ctx context.Context, text string) error

	// AddAIMessage appends an AI turn built from text.
	AddAIMessage(ctx context.Context, text string) error

	// SetMessages replaces the transcript with msgs.
	SetMessages(ctx context.Context, msgs []Message) error

	// Clear removes every message in the transcript.
	Clear(ctx context.Context) error
}
