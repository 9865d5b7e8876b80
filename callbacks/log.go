package callbacks

import (
	"context"

	"github.com/Jflick58/langchain/internal/logging"
	"github.com/Jflick58/langchain/pkg/schema"
)

const logSnippetLen = 120

// LogHandler writes every event to a structured logger. Content is
// truncated and credentials are redacted by the logger itself.
type LogHandler struct {
	logger *logging.Logger
}

// NewLogHandler creates a handler logging to logger. A nil logger falls
// back to the default stderr logger.
func NewLogHandler(logger *logging.Logger) *LogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogHandler{logger: logger}
}

// Name returns the handler name.
func (l *LogHandler) Name() string { return "log" }

func (l *LogHandler) runLogger(run *Run) *logging.Logger {
	logger := l.logger
	if run == nil {
		return logger
	}
	logger = logger.WithFields("run_id", run.ID, "run_name", run.Name)
	if run.ParentID != "" {
		logger = logger.WithFields("parent_run_id", run.ParentID)
	}
	return logger.WithSession(run.SessionID)
}

func (l *LogHandler) OnLLMStart(_ context.Context, run *Run, messages []schema.Message) error {
	l.runLogger(run).Info("llm start", "messages", len(messages))
	return nil
}

func (l *LogHandler) OnLLMNewToken(_ context.Context, run *Run, token string) error {
	l.runLogger(run).Debug("llm token", "len", len(token))
	return nil
}

func (l *LogHandler) OnLLMEnd(_ context.Context, run *Run, result *schema.ChatResult) error {
	logger := l.runLogger(run)
	if result == nil {
		logger.Info("llm end")
		return nil
	}
	logger.Info("llm end",
		"duration_ms", run.Duration().Milliseconds(),
		"total_tokens", result.Usage.TotalTokens,
		"cache_hit", result.CacheHit,
	)
	return nil
}

func (l *LogHandler) OnLLMError(_ context.Context, run *Run, err error) error {
	l.runLogger(run).RedactedError("llm error", "error", err, "duration_ms", run.Duration().Milliseconds())
	return nil
}

func (l *LogHandler) OnChainStart(_ context.Context, run *Run, inputs map[string]any) error {
	l.runLogger(run).Info("chain start", "inputs", len(inputs))
	return nil
}

func (l *LogHandler) OnChainEnd(_ context.Context, run *Run, outputs map[string]any) error {
	l.runLogger(run).Info("chain end", "outputs", len(outputs), "duration_ms", run.Duration().Milliseconds())
	return nil
}

func (l *LogHandler) OnChainError(_ context.Context, run *Run, err error) error {
	l.runLogger(run).RedactedError("chain error", "error", err)
	return nil
}

func (l *LogHandler) OnToolStart(_ context.Context, run *Run, input string) error {
	l.runLogger(run).Info("tool start", "input", snippet(input))
	return nil
}

func (l *LogHandler) OnToolEnd(_ context.Context, run *Run, output string) error {
	l.runLogger(run).Info("tool end", "output", snippet(output), "duration_ms", run.Duration().Milliseconds())
	return nil
}

func (l *LogHandler) OnToolError(_ context.Context, run *Run, err error) error {
	l.runLogger(run).RedactedError("tool error", "error", err)
	return nil
}

func (l *LogHandler) OnText(_ context.Context, run *Run, text string) error {
	l.runLogger(run).Debug("text", "text", snippet(text))
	return nil
}

func (l *LogHandler) OnAgentAction(_ context.Context, run *Run, action schema.AgentAction) error {
	l.runLogger(run).Info("agent action", "tool", action.Tool, "input", snippet(action.ToolInput))
	return nil
}

func (l *LogHandler) OnAgentFinish(_ context.Context, run *Run, finish schema.AgentFinish) error {
	l.runLogger(run).Info("agent finish", "return_values", len(finish.ReturnValues))
	return nil
}

func snippet(s string) string {
	if len(s) <= logSnippetLen {
		return s
	}
	return s[:logSnippetLen] + "..."
}

var _ Handler = (*LogHandler)(nil)
