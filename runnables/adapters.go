package runnables

import (
	"context"
	"fmt"

	"github.com/Jflick58/langchain/callbacks"
	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/pkg/prompts"
	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/tools"
)

// Prompt adapts a message template to the Runnable interface. It takes a
// map[string]any of template values and returns []schema.Message.
type Prompt struct {
	template prompts.MessageTemplate
}

// NewPrompt wraps a message template.
func NewPrompt(template prompts.MessageTemplate) *Prompt {
	return &Prompt{template: template}
}

// Invoke renders the template with the input values.
func (p *Prompt) Invoke(_ context.Context, input any, _ ...Option) (any, error) {
	values, ok := input.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("runnables: prompt expects map[string]any, got %T", input)
	}
	messages, err := p.template.FormatMessages(values)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Model adapts a chat model to the Runnable interface. It takes messages
// and returns the model's response as a schema.Message. LLM lifecycle
// callbacks fire through the model itself.
type Model struct {
	model    chatmodels.ChatModel
	callOpts []chatmodels.CallOption
}

// NewModel wraps a chat model. Call options apply to every invocation.
func NewModel(model chatmodels.ChatModel, callOpts ...chatmodels.CallOption) *Model {
	return &Model{model: model, callOpts: callOpts}
}

// Invoke sends the input messages to the model and returns the first
// generation's message.
func (m *Model) Invoke(ctx context.Context, input any, opts ...Option) (any, error) {
	messages, err := ToMessages(input)
	if err != nil {
		return nil, fmt.Errorf("runnables: model %s: %w", m.model.Name(), err)
	}

	o := ApplyOptions(opts...)
	callOpts := m.callOpts
	if len(o.Handlers) > 0 {
		callOpts = append(append([]chatmodels.CallOption{}, m.callOpts...),
			chatmodels.WithCallbacks(o.Handlers...))
	}

	result, err := m.model.Generate(ctx, messages, callOpts...)
	if err != nil {
		return nil, err
	}
	if len(result.Generations) == 0 {
		return nil, fmt.Errorf("runnables: model %s returned no generations", m.model.Name())
	}
	return result.Generations[0].Message, nil
}

// Tool adapts a tool to the Runnable interface. It takes a string input
// and returns the tool output, firing tool lifecycle callbacks.
type Tool struct {
	tool    tools.Tool
	manager *callbacks.Manager
}

// NewTool wraps a tool. Handlers fire for every invocation.
func NewTool(tool tools.Tool, handlers ...callbacks.Handler) *Tool {
	return &Tool{tool: tool, manager: callbacks.NewManager(handlers...)}
}

// Invoke runs the tool.
func (t *Tool) Invoke(ctx context.Context, input any, opts ...Option) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("runnables: tool %s expects string input, got %T", t.tool.Name(), input)
	}

	o := ApplyOptions(opts...)
	manager := t.manager.WithLocal(o.Handlers...)

	run := callbacks.NewRun(t.tool.Name())
	run.SessionID = o.SessionID
	manager.ToolStart(ctx, run, text)

	output, err := t.tool.Call(ctx, text)
	if err != nil {
		manager.ToolError(ctx, run, err)
		return nil, err
	}
	manager.ToolEnd(ctx, run, output)
	return output, nil
}

// ToMessages normalizes a runnable input into a message list. Strings
// become a single human turn.
func ToMessages(input any) ([]schema.Message, error) {
	switch v := input.(type) {
	case []schema.Message:
		return v, nil
	case schema.Message:
		return []schema.Message{v}, nil
	case string:
		return []schema.Message{schema.NewHumanMessage(v)}, nil
	default:
		return nil, fmt.Errorf("expected messages, got %T", input)
	}
}

var (
	_ Runnable = (*Prompt)(nil)
	_ Runnable = (*Model)(nil)
	_ Runnable = (*Tool)(nil)
)
