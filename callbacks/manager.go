package callbacks

import (
	"context"

	"github.com/Jflick58/langchain/internal/logging"
	"github.com/Jflick58/langchain/pkg/schema"
)

// Manager fans events out to a set of handlers. It merges two scopes:
// handlers registered when a component was constructed fire for every
// call of that component, and handlers attached to a single invocation
// fire for that call only. Handler errors are logged and swallowed so
// observers can never fail the observed call.
type Manager struct {
	inheritable []Handler
	local       []Handler
	logger      *logging.Logger
}

// NewManager creates a manager with constructor-scoped handlers.
func NewManager(handlers ...Handler) *Manager {
	return &Manager{
		inheritable: handlers,
		logger:      logging.Default(),
	}
}

// WithLogger sets the logger used to report handler failures.
func (m *Manager) WithLogger(logger *logging.Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithLocal returns a copy of m with invocation-scoped handlers added.
// The receiver is not modified, so one manager can serve concurrent
// calls with different local handlers.
func (m *Manager) WithLocal(handlers ...Handler) *Manager {
	if len(handlers) == 0 {
		return m
	}
	merged := &Manager{
		inheritable: m.inheritable,
		logger:      m.logger,
	}
	merged.local = append(merged.local, m.local...)
	merged.local = append(merged.local, handlers...)
	return merged
}

// Register adds a constructor-scoped handler.
func (m *Manager) Register(h Handler) {
	if h != nil {
		m.inheritable = append(m.inheritable, h)
	}
}

// Handlers returns all handlers in dispatch order, constructor scope first.
func (m *Manager) Handlers() []Handler {
	out := make([]Handler, 0, len(m.inheritable)+len(m.local))
	out = append(out, m.inheritable...)
	out = append(out, m.local...)
	return out
}

func (m *Manager) dispatch(event string, fn func(Handler) error) {
	for _, h := range m.Handlers() {
		if err := fn(h); err != nil {
			m.logger.Error("callback handler failed",
				"handler", h.Name(),
				"event", event,
				"error", err,
			)
		}
	}
}

// LLMStart notifies all handlers that a model call is starting.
func (m *Manager) LLMStart(ctx context.Context, run *Run, messages []schema.Message) {
	m.dispatch("llm_start", func(h Handler) error { return h.OnLLMStart(ctx, run, messages) })
}

// LLMNewToken notifies all handlers of a streamed token.
func (m *Manager) LLMNewToken(ctx context.Context, run *Run, token string) {
	m.dispatch("llm_new_token", func(h Handler) error { return h.OnLLMNewToken(ctx, run, token) })
}

// LLMEnd notifies all handlers that a model call succeeded.
func (m *Manager) LLMEnd(ctx context.Context, run *Run, result *schema.ChatResult) {
	m.dispatch("llm_end", func(h Handler) error { return h.OnLLMEnd(ctx, run, result) })
}

// LLMError notifies all handlers that a model call failed.
func (m *Manager) LLMError(ctx context.Context, run *Run, err error) {
	m.dispatch("llm_error", func(h Handler) error { return h.OnLLMError(ctx, run, err) })
}

// ChainStart notifies all handlers that a chain is starting.
func (m *Manager) ChainStart(ctx context.Context, run *Run, inputs map[string]any) {
	m.dispatch("chain_start", func(h Handler) error { return h.OnChainStart(ctx, run, inputs) })
}

// ChainEnd notifies all handlers that a chain completed.
func (m *Manager) ChainEnd(ctx context.Context, run *Run, outputs map[string]any) {
	m.dispatch("chain_end", func(h Handler) error { return h.OnChainEnd(ctx, run, outputs) })
}

// ChainError notifies all handlers that a chain failed.
func (m *Manager) ChainError(ctx context.Context, run *Run, err error) {
	m.dispatch("chain_error", func(h Handler) error { return h.OnChainError(ctx, run, err) })
}

// ToolStart notifies all handlers that a tool call is starting.
func (m *Manager) ToolStart(ctx context.Context, run *Run, input string) {
	m.dispatch("tool_start", func(h Handler) error { return h.OnToolStart(ctx, run, input) })
}

// ToolEnd notifies all handlers that a tool call succeeded.
func (m *Manager) ToolEnd(ctx context.Context, run *Run, output string) {
	m.dispatch("tool_end", func(h Handler) error { return h.OnToolEnd(ctx, run, output) })
}

// ToolError notifies all handlers that a tool call failed.
func (m *Manager) ToolError(ctx context.Context, run *Run, err error) {
	m.dispatch("tool_error", func(h Handler) error { return h.OnToolError(ctx, run, err) })
}

// Text notifies all handlers of intermediate text.
func (m *Manager) Text(ctx context.Context, run *Run, text string) {
	m.dispatch("text", func(h Handler) error { return h.OnText(ctx, run, text) })
}

// AgentAction notifies all handlers of an agent tool decision.
func (m *Manager) AgentAction(ctx context.Context, run *Run, action schema.AgentAction) {
	m.dispatch("agent_action", func(h Handler) error { return h.OnAgentAction(ctx, run, action) })
}

// AgentFinish notifies all handlers of an agent's final answer.
func (m *Manager) AgentFinish(ctx context.Context, run *Run, finish schema.AgentFinish) {
	m.dispatch("agent_finish", func(h Handler) error { return h.OnAgentFinish(ctx, run, finish) })
}
