package tools

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/Jflick58/langchain/chatmodels"
)

// StructuredTool is a tool with typed arguments. The model receives a
// JSON schema reflected from T and the tool body receives a decoded T.
type StructuredTool[T any] struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args T) (string, error)
}

// NewStructured creates a tool whose input schema is derived from the
// argument struct. Field names, types, and jsonschema struct tags all
// carry into the schema the model sees.
//
//	type weatherArgs struct {
//		City string `json:"city" jsonschema:"description=City to look up"`
//	}
//	weather, err := tools.NewStructured("get_weather", "Current weather for a city",
//		func(ctx context.Context, args weatherArgs) (string, error) {
//			return lookup(ctx, args.City)
//		})
func NewStructured[T any](name, description string, fn func(ctx context.Context, args T) (string, error)) (*StructuredTool[T], error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("tools: reflect schema for %s: %w", name, err)
	}
	var parameters map[string]any
	if err := json.Unmarshal(data, &parameters); err != nil {
		return nil, fmt.Errorf("tools: reflect schema for %s: %w", name, err)
	}

	return &StructuredTool[T]{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}, nil
}

// Name returns the tool identifier.
func (t *StructuredTool[T]) Name() string { return t.name }

// Description returns the tool description.
func (t *StructuredTool[T]) Description() string { return t.description }

// Call decodes the JSON arguments and runs the tool body.
func (t *StructuredTool[T]) Call(ctx context.Context, input string) (string, error) {
	var args T
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("tools: %s: decode arguments: %w", t.name, err)
	}
	return t.fn(ctx, args)
}

// Definition returns the wire form with the reflected schema.
func (t *StructuredTool[T]) Definition() chatmodels.ToolDefinition {
	return chatmodels.ToolDefinition{
		Name:        t.name,
		Description: t.description,
		Parameters:  t.parameters,
	}
}

var (
	_ Tool    = (*StructuredTool[struct{}])(nil)
	_ Definer = (*StructuredTool[struct{}])(nil)
)
