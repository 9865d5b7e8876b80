// Package tools defines the tool contract used by agents and runnable
// pipelines. A Tool takes a string input and returns a string output;
// structured tools layer typed arguments and JSON schema derivation on
// top of that contract.
package tools

import (
	"context"

	"github.com/Jflick58/langchain/chatmodels"
)

// Tool is a capability a model can invoke by name.
type Tool interface {
	// Name returns the identifier the model uses to call the tool.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Call runs the tool. For structured tools the input is the raw
	// JSON arguments produced by the model.
	Call(ctx context.Context, input string) (string, error)
}

// Definer is implemented by tools that carry their own parameter schema.
type Definer interface {
	Definition() chatmodels.ToolDefinition
}

// CallFunc is the signature of a plain tool body.
type CallFunc func(ctx context.Context, input string) (string, error)

// FuncTool adapts a function to the Tool interface.
type FuncTool struct {
	name        string
	description string
	fn          CallFunc
}

// NewFunc creates a tool from a function.
//
//	echo := tools.NewFunc("echo", "repeats its input", func(ctx context.Context, input string) (string, error) {
//		return input, nil
//	})
func NewFunc(name, description string, fn CallFunc) *FuncTool {
	return &FuncTool{name: name, description: description, fn: fn}
}

// Name returns the tool identifier.
func (t *FuncTool) Name() string { return t.name }

// Description returns the tool description.
func (t *FuncTool) Description() string { return t.description }

// Call runs the tool function.
func (t *FuncTool) Call(ctx context.Context, input string) (string, error) {
	return t.fn(ctx, input)
}

// Definition converts a tool into the wire form providers expect. Tools
// implementing Definer supply their own schema; plain tools get a single
// string "input" argument.
func Definition(t Tool) chatmodels.ToolDefinition {
	if d, ok := t.(Definer); ok {
		return d.Definition()
	}
	return chatmodels.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{
					"type":        "string",
					"description": "Input to pass to the tool.",
				},
			},
			"required": []string{"input"},
		},
	}
}

// Definitions converts a tool list for a provider call.
func Definitions(ts []Tool) []chatmodels.ToolDefinition {
	defs := make([]chatmodels.ToolDefinition, 0, len(ts))
	for _, t := range ts {
		defs = append(defs, Definition(t))
	}
	return defs
}

var _ Tool = (*FuncTool)(nil)
