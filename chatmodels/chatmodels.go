// Package chatmodels defines the chat model contract shared by provider
// implementations. A ChatModel turns a message list into a ChatResult;
// everything else (caching, history augmentation, agents) composes on
// top of this interface.
package chatmodels

import (
	"context"

	"github.com/Jflick58/langchain/callbacks"
	"github.com/Jflick58/langchain/pkg/schema"
)

// ChatModel is implemented by provider adapters.
type ChatModel interface {
	// Name returns the provider or model identifier used in logs,
	// metrics, and cache keys.
	Name() string

	// Generate sends messages to the model and returns its response.
	Generate(ctx context.Context, messages []schema.Message, opts ...CallOption) (*schema.ChatResult, error)
}

// ToolDefinition describes a tool the model may call. Parameters is a
// JSON schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// StreamFunc receives tokens as the model produces them. Returning an
// error aborts the stream.
type StreamFunc func(ctx context.Context, token string) error

// CallOptions carries per-call parameters. Providers ignore options they
// do not support.
type CallOptions struct {
	Temperature   *float64
	TopP          *float64
	MaxTokens     int
	StopSequences []string
	Tools         []ToolDefinition
	Stream        StreamFunc
	Handlers      []callbacks.Handler
}

// CallOption mutates CallOptions.
type CallOption func(*CallOptions)

// ApplyCallOptions folds opts into a CallOptions struct. Providers call
// this once at the top of Generate.
func ApplyCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = &temperature
	}
}

// WithTopP sets nucleus sampling probability mass.
func WithTopP(topP float64) CallOption {
	return func(o *CallOptions) {
		o.TopP = &topP
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithStopSequences sets sequences that end the completion.
func WithStopSequences(stop ...string) CallOption {
	return func(o *CallOptions) {
		o.StopSequences = stop
	}
}

// WithTools exposes tools to the model for this call.
func WithTools(tools ...ToolDefinition) CallOption {
	return func(o *CallOptions) {
		o.Tools = tools
	}
}

// WithStreamFunc enables streaming and delivers tokens to fn.
func WithStreamFunc(fn StreamFunc) CallOption {
	return func(o *CallOptions) {
		o.Stream = fn
	}
}

// WithCallbacks attaches invocation-scoped callback handlers to this call.
func WithCallbacks(handlers ...callbacks.Handler) CallOption {
	return func(o *CallOptions) {
		o.Handlers = append(o.Handlers, handlers...)
	}
}

// GenerateText is a convenience wrapper that sends a single human message
// and returns the text of the first generation.
func GenerateText(ctx context.Context, model ChatModel, prompt string, opts ...CallOption) (string, error) {
	result, err := model.Generate(ctx, []schema.Message{schema.NewHumanMessage(prompt)}, opts...)
	if err != nil {
		return "", err
	}
	return result.Content(), nil
}
