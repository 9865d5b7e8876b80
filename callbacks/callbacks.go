// Package callbacks provides the observer hooks fired by chat models,
// chains, tools, and agents during execution. Implementations can log,
// meter, or trace runs without the instrumented component knowing about
// the backend.
package callbacks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Jflick58/langchain/pkg/schema"
)

// Run identifies one traced unit of work. Nested work (a model call made
// by a chain, a tool call made by an agent) carries the parent's ID so
// handlers can reassemble the tree.
type Run struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"parent_id,omitempty"`
	Name      string         `json:"name"`
	SessionID string         `json:"session_id,omitempty"`
	StartTime time.Time      `json:"start_time"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewRun creates a root run for the named component.
func NewRun(name string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: time.Now(),
	}
}

// Child creates a run nested under r.
func (r *Run) Child(name string) *Run {
	child := NewRun(name)
	if r != nil {
		child.ParentID = r.ID
		child.SessionID = r.SessionID
	}
	return child
}

// Duration returns the elapsed time since the run started.
func (r *Run) Duration() time.Duration {
	if r == nil {
		return 0
	}
	return time.Since(r.StartTime)
}

// Handler receives lifecycle events. Hook errors are logged by the
// dispatching Manager and never interrupt the instrumented call.
//
// Embed NoopHandler to implement only the hooks you care about.
type Handler interface {
	// Name returns the handler name for identification.
	Name() string

	// OnLLMStart fires before a chat model call with the outgoing messages.
	OnLLMStart(ctx context.Context, run *Run, messages []schema.Message) error

	// OnLLMNewToken fires for each token produced by a streaming call.
	OnLLMNewToken(ctx context.Context, run *Run, token string) error

	// OnLLMEnd fires after a successful chat model call.
	OnLLMEnd(ctx context.Context, run *Run, result *schema.ChatResult) error

	// OnLLMError fires when a chat model call fails.
	OnLLMError(ctx context.Context, run *Run, err error) error

	// OnChainStart fires before a chain runs with its named inputs.
	OnChainStart(ctx context.Context, run *Run, inputs map[string]any) error

	// OnChainEnd fires after a chain completes with its named outputs.
	OnChainEnd(ctx context.Context, run *Run, outputs map[string]any) error

	// OnChainError fires when a chain fails.
	OnChainError(ctx context.Context, run *Run, err error) error

	// OnToolStart fires before a tool call with the tool input.
	OnToolStart(ctx context.Context, run *Run, input string) error

	// OnToolEnd fires after a successful tool call with its output.
	OnToolEnd(ctx context.Context, run *Run, output string) error

	// OnToolError fires when a tool call fails.
	OnToolError(ctx context.Context, run *Run, err error) error

	// OnText fires for arbitrary intermediate text, such as formatted
	// prompts or agent reasoning.
	OnText(ctx context.Context, run *Run, text string) error

	// OnAgentAction fires when an agent decides to invoke a tool.
	OnAgentAction(ctx context.Context, run *Run, action schema.AgentAction) error

	// OnAgentFinish fires when an agent produces its final answer.
	OnAgentFinish(ctx context.Context, run *Run, finish schema.AgentFinish) error
}

// NoopHandler implements Handler with no-ops. Embed it to implement a
// subset of the hooks.
type NoopHandler struct{}

// Name returns the handler name.
func (NoopHandler) Name() string { return "noop" }

func (NoopHandler) OnLLMStart(context.Context, *Run, []schema.Message) error { return nil }
func (NoopHandler) OnLLMNewToken(context.Context, *Run, string) error        { return nil }
func (NoopHandler) OnLLMEnd(context.Context, *Run, *schema.ChatResult) error { return nil }
func (NoopHandler) OnLLMError(context.Context, *Run, error) error            { return nil }
func (NoopHandler) OnChainStart(context.Context, *Run, map[string]any) error { return nil }
func (NoopHandler) OnChainEnd(context.Context, *Run, map[string]any) error   { return nil }
func (NoopHandler) OnChainError(context.Context, *Run, error) error          { return nil }
func (NoopHandler) OnToolStart(context.Context, *Run, string) error          { return nil }
func (NoopHandler) OnToolEnd(context.Context, *Run, string) error            { return nil }
func (NoopHandler) OnToolError(context.Context, *Run, error) error           { return nil }
func (NoopHandler) OnText(context.Context, *Run, string) error               { return nil }

func (NoopHandler) OnAgentAction(context.Context, *Run, schema.AgentAction) error { return nil }
func (NoopHandler) OnAgentFinish(context.Context, *Run, schema.AgentFinish) error { return nil }

var _ Handler = NoopHandler{}
