package runnables

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jflick58/langchain/pkg/schema"
)

// HistoryFactory resolves the message history for a session. It is
// called once per invocation, so implementations may return a fresh
// handle each time or share one per session.
type HistoryFactory func(ctx context.Context, sessionID string) (schema.ChatMessageHistory, error)

// History wraps a runnable with durable conversation memory. Before each
// invocation it loads the session transcript and splices it into the
// input; after a successful invocation it appends the new input and
// output turns. Failed invocations leave the transcript untouched.
//
// The wrapper carries no retry or consistency policy of its own. Those
// belong to the history backend.
type History struct {
	inner   Runnable
	factory HistoryFactory

	inputKey   string
	historyKey string
	outputKey  string
}

// HistoryOption configures the wrapper.
type HistoryOption func(*History)

// WithInputKey names the keyed-shape field holding the new input.
// Defaults to "input".
func WithInputKey(key string) HistoryOption {
	return func(h *History) { h.inputKey = key }
}

// WithHistoryKey names the keyed-shape field the transcript is spliced
// into. Defaults to "history".
func WithHistoryKey(key string) HistoryOption {
	return func(h *History) { h.historyKey = key }
}

// WithOutputKey names the field holding the output when the wrapped
// runnable returns a map. Defaults to "output".
func WithOutputKey(key string) HistoryOption {
	return func(h *History) { h.outputKey = key }
}

// WithMessageHistory wraps inner with conversation memory resolved
// through factory.
//
//	store := inmemory.NewStore()
//	chain := runnables.WithMessageHistory(inner, func(ctx context.Context, sessionID string) (schema.ChatMessageHistory, error) {
//		return store.History(sessionID), nil
//	})
//	out, err := chain.Invoke(ctx, input, runnables.WithSessionID(sessionID))
func WithMessageHistory(inner Runnable, factory HistoryFactory, opts ...HistoryOption) *History {
	h := &History{
		inner:      inner,
		factory:    factory,
		inputKey:   "input",
		historyKey: "history",
		outputKey:  "output",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Invoke loads the session transcript, runs the wrapped runnable with it
// spliced in, and appends the exchange on success.
//
// Flat []schema.Message inputs get the transcript prepended. Keyed
// map[string]any inputs get it set under the history key. The session ID
// must arrive via WithSessionID; it never travels in the payload.
func (h *History) Invoke(ctx context.Context, input any, opts ...Option) (any, error) {
	o := ApplyOptions(opts...)
	if o.SessionID == "" {
		return nil, errors.New("runnables: session id is required; pass runnables.WithSessionID")
	}

	history, err := h.factory(ctx, o.SessionID)
	if err != nil {
		return nil, fmt.Errorf("runnables: resolve history for session %q: %w", o.SessionID, err)
	}

	past, err := history.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("runnables: load history for session %q: %w", o.SessionID, err)
	}

	spliced, inputTurns, err := h.splice(input, past)
	if err != nil {
		return nil, err
	}

	output, err := h.inner.Invoke(ctx, spliced, opts...)
	if err != nil {
		return nil, err
	}

	outputTurns, err := h.outputMessages(output)
	if err != nil {
		return nil, err
	}

	for _, msg := range inputTurns {
		if err := history.AddMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("runnables: append input turn: %w", err)
		}
	}
	for _, msg := range outputTurns {
		if err := history.AddMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("runnables: append output turn: %w", err)
		}
	}
	return output, nil
}

// splice merges the transcript into the input and returns the new input
// turns to record after success.
func (h *History) splice(input any, past []schema.Message) (any, []schema.Message, error) {
	if values, ok := input.(map[string]any); ok {
		raw, ok := values[h.inputKey]
		if !ok {
			return nil, nil, fmt.Errorf("runnables: input key %q missing from keyed input", h.inputKey)
		}
		inputTurns, err := ToMessages(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("runnables: input key %q: %w", h.inputKey, err)
		}

		merged := make(map[string]any, len(values)+1)
		for k, v := range values {
			merged[k] = v
		}
		merged[h.historyKey] = past
		return merged, inputTurns, nil
	}

	inputTurns, err := ToMessages(input)
	if err != nil {
		return nil, nil, fmt.Errorf("runnables: history wrapper: %w", err)
	}

	flat := make([]schema.Message, 0, len(past)+len(inputTurns))
	flat = append(flat, past...)
	flat = append(flat, inputTurns...)
	return flat, inputTurns, nil
}

// outputMessages extracts the turns to record from the wrapped
// runnable's output.
func (h *History) outputMessages(output any) ([]schema.Message, error) {
	switch v := output.(type) {
	case *schema.ChatResult:
		if len(v.Generations) == 0 {
			return nil, nil
		}
		return []schema.Message{v.Generations[0].Message}, nil
	case schema.Message:
		return []schema.Message{v}, nil
	case []schema.Message:
		return v, nil
	case string:
		return []schema.Message{schema.NewAIMessage(v)}, nil
	case map[string]any:
		raw, ok := v[h.outputKey]
		if !ok {
			return nil, fmt.Errorf("runnables: output key %q missing from keyed output", h.outputKey)
		}
		return h.outputMessages(raw)
	default:
		return nil, fmt.Errorf("runnables: cannot record output of type %T", output)
	}
}

var _ Runnable = (*History)(nil)
