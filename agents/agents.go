// Package agents drives the tool-calling loop between a chat model and
// a set of tools. The executor sends the conversation to the model, runs
// every tool call the model requests, appends the results, and repeats
// until the model answers without tool calls or the iteration cap is
// reached. Tool failures are reported back to the model as tool output
// so it can recover or rephrase.
package agents

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Jflick58/langchain/callbacks"
	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/pkg/schema"
	"github.com/Jflick58/langchain/tools"
)

// DefaultMaxIterations bounds the tool loop when no explicit cap is set.
const DefaultMaxIterations = 10

// Executor runs the model-driven tool loop.
type Executor struct {
	model         chatmodels.ChatModel
	tools         []tools.Tool
	byName        map[string]tools.Tool
	definitions   []chatmodels.ToolDefinition
	maxIterations int
	manager       *callbacks.Manager
	callOpts      []chatmodels.CallOption
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxIterations caps how many model turns may request tools before
// the run is aborted.
func WithMaxIterations(n int) Option {
	return func(e *Executor) {
		e.maxIterations = n
	}
}

// WithCallbacks registers handlers fired for every run of this executor.
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(e *Executor) {
		e.manager = callbacks.NewManager(handlers...)
	}
}

// WithCallOptions sets model call options applied on every model turn,
// such as temperature or a token cap. Tool definitions are always added
// on top of these.
func WithCallOptions(opts ...chatmodels.CallOption) Option {
	return func(e *Executor) {
		e.callOpts = opts
	}
}

// New creates an executor over a model and the tools it may call.
//
//	executor, err := agents.New(model, []tools.Tool{clock, search})
//	if err != nil {
//		return err
//	}
//	answer, err := executor.RunText(ctx, "What time is it in Oslo?")
func New(model chatmodels.ChatModel, ts []tools.Tool, opts ...Option) (*Executor, error) {
	if model == nil {
		return nil, fmt.Errorf("agents: model is required")
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("agents: at least one tool is required")
	}

	byName := make(map[string]tools.Tool, len(ts))
	for _, tool := range ts {
		if _, exists := byName[tool.Name()]; exists {
			return nil, fmt.Errorf("agents: duplicate tool name %q", tool.Name())
		}
		byName[tool.Name()] = tool
	}

	e := &Executor{
		model:         model,
		tools:         ts,
		byName:        byName,
		definitions:   tools.Definitions(ts),
		maxIterations: DefaultMaxIterations,
		manager:       callbacks.NewManager(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxIterations <= 0 {
		e.maxIterations = DefaultMaxIterations
	}
	return e, nil
}

// Run executes the loop starting from the given conversation and returns
// the model's final result. Per-call options are applied on every model
// turn of this run.
func (e *Executor) Run(ctx context.Context, messages []schema.Message, opts ...chatmodels.CallOption) (*schema.ChatResult, error) {
	o := chatmodels.ApplyCallOptions(opts...)
	manager := e.manager.WithLocal(o.Handlers...)
	run := callbacks.NewRun("agent")

	callOpts := make([]chatmodels.CallOption, 0, len(e.callOpts)+len(opts)+1)
	callOpts = append(callOpts, e.callOpts...)
	callOpts = append(callOpts, opts...)
	callOpts = append(callOpts, chatmodels.WithTools(e.definitions...))

	msgs := make([]schema.Message, len(messages))
	copy(msgs, messages)

	for iteration := 0; iteration < e.maxIterations; iteration++ {
		result, err := e.model.Generate(ctx, msgs, callOpts...)
		if err != nil {
			return nil, fmt.Errorf("agents: model call: %w", err)
		}

		calls := toolCalls(result)
		if len(calls) == 0 {
			manager.AgentFinish(ctx, run, schema.AgentFinish{
				ReturnValues: map[string]any{"output": result.Content()},
				Log:          result.Content(),
			})
			return result, nil
		}

		assistant := result.Generations[0].Message
		msgs = append(msgs, assistant)

		for _, call := range calls {
			manager.AgentAction(ctx, run, schema.AgentAction{
				Tool:      call.Name,
				ToolInput: call.Arguments,
				ToolID:    call.ID,
				Log:       assistant.Content,
			})
			output := e.runTool(ctx, manager, run, call)
			msgs = append(msgs, schema.NewToolMessage(call.ID, output))
		}
	}

	return nil, fmt.Errorf("agents: exceeded maximum tool iterations (%d)", e.maxIterations)
}

// RunText is a convenience wrapper that starts the loop from a single
// human message and returns the final answer text.
func (e *Executor) RunText(ctx context.Context, input string, opts ...chatmodels.CallOption) (string, error) {
	result, err := e.Run(ctx, []schema.Message{schema.NewHumanMessage(input)}, opts...)
	if err != nil {
		return "", err
	}
	return result.Content(), nil
}

// runTool executes one requested call. Failures become tool output text
// so the model sees what went wrong instead of the run aborting.
func (e *Executor) runTool(ctx context.Context, manager *callbacks.Manager, run *callbacks.Run, call schema.ToolCall) string {
	tool, ok := e.byName[call.Name]
	if !ok {
		err := fmt.Errorf("agents: model requested unknown tool %q", call.Name)
		manager.ToolError(ctx, run, err)
		return fmt.Sprintf("Error: no tool named %q is available", call.Name)
	}

	child := run.Child(call.Name)
	input := unwrapInput(tool, call.Arguments)
	manager.ToolStart(ctx, child, input)

	output, err := tool.Call(ctx, input)
	if err != nil {
		manager.ToolError(ctx, child, err)
		return fmt.Sprintf("Error: %s", err)
	}
	manager.ToolEnd(ctx, child, output)
	return output
}

// toolCalls extracts the tool invocations from a model result. Detection
// keys on the presence of calls rather than the stop reason, so models
// that skip stop reason normalization still loop correctly.
func toolCalls(result *schema.ChatResult) []schema.ToolCall {
	if result == nil || len(result.Generations) == 0 {
		return nil
	}
	return result.Generations[0].Message.ToolCalls
}

// unwrapInput converts model-produced JSON arguments into the tool's
// input. Structured tools take the raw JSON. Plain tools advertised a
// single "input" string argument, which is unwrapped back to bare text.
func unwrapInput(tool tools.Tool, arguments string) string {
	if _, ok := tool.(tools.Definer); ok {
		return arguments
	}
	var wrapper struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal([]byte(arguments), &wrapper); err == nil && wrapper.Input != "" {
		return wrapper.Input
	}
	return arguments
}
