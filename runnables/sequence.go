package runnables

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jflick58/langchain/callbacks"
)

// Sequence pipes runnables together: the output of each step becomes the
// input of the next. Chain lifecycle callbacks fire around the whole
// pipe, and invocation options pass through to every step.
type Sequence struct {
	name    string
	steps   []Runnable
	manager *callbacks.Manager
}

// SequenceOption configures a sequence.
type SequenceOption func(*Sequence)

// WithName names the sequence in callback runs. Defaults to "sequence".
func WithName(name string) SequenceOption {
	return func(s *Sequence) { s.name = name }
}

// WithHandlers attaches handlers that fire for every invocation.
func WithHandlers(handlers ...callbacks.Handler) SequenceOption {
	return func(s *Sequence) { s.manager = callbacks.NewManager(handlers...) }
}

// NewSequence pipes steps together in order.
//
//	chain := runnables.NewSequence([]runnables.Runnable{prompt, model})
func NewSequence(steps []Runnable, opts ...SequenceOption) (*Sequence, error) {
	if len(steps) == 0 {
		return nil, errors.New("runnables: sequence requires at least one step")
	}

	s := &Sequence{
		name:    "sequence",
		steps:   steps,
		manager: callbacks.NewManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Invoke runs each step in order, feeding outputs forward.
func (s *Sequence) Invoke(ctx context.Context, input any, opts ...Option) (any, error) {
	o := ApplyOptions(opts...)
	manager := s.manager.WithLocal(o.Handlers...)

	run := callbacks.NewRun(s.name)
	run.SessionID = o.SessionID
	manager.ChainStart(ctx, run, map[string]any{"input": input})

	current := input
	for i, step := range s.steps {
		out, err := step.Invoke(ctx, current, opts...)
		if err != nil {
			wrapped := fmt.Errorf("runnables: sequence step %d: %w", i, err)
			manager.ChainError(ctx, run, wrapped)
			return nil, wrapped
		}
		current = out
	}

	manager.ChainEnd(ctx, run, map[string]any{"output": current})
	return current, nil
}

var _ Runnable = (*Sequence)(nil)
