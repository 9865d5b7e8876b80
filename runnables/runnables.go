// Package runnables composes prompts, models, and tools into invocable
// pipelines. Every component satisfies the one-method Runnable interface,
// so anything that can be invoked can also be wrapped: sequences pipe
// runnables together and WithMessageHistory adds durable conversation
// memory around any of them.
package runnables

import (
	"context"

	"github.com/Jflick58/langchain/callbacks"
)

// Runnable is a unit of invocable work. Inputs are either a flat
// []schema.Message or a map[string]any with designated fields; each
// implementation documents what it accepts and returns.
type Runnable interface {
	Invoke(ctx context.Context, input any, opts ...Option) (any, error)
}

// Options carries invocation-scoped settings.
type Options struct {
	// SessionID identifies the conversation for history-augmented
	// runnables. It travels out-of-band, never inside the payload.
	SessionID string

	// Handlers are callback handlers scoped to this invocation.
	Handlers []callbacks.Handler
}

// Option mutates Options.
type Option func(*Options)

// WithSessionID routes the invocation to a conversation session.
func WithSessionID(sessionID string) Option {
	return func(o *Options) { o.SessionID = sessionID }
}

// WithCallbacks attaches invocation-scoped callback handlers.
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(o *Options) { o.Handlers = append(o.Handlers, handlers...) }
}

// ApplyOptions folds opts into an Options struct.
func ApplyOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Lambda adapts a function to the Runnable interface.
//
//	upper := runnables.Lambda(func(ctx context.Context, input any) (any, error) {
//		return strings.ToUpper(input.(string)), nil
//	})
type Lambda func(ctx context.Context, input any) (any, error)

// Invoke calls the function. Invocation options are ignored.
func (l Lambda) Invoke(ctx context.Context, input any, _ ...Option) (any, error) {
	return l(ctx, input)
}

var _ Runnable = Lambda(nil)
