// Package schema defines the shared data types exchanged between chat
// models, prompt templates, message histories, vector stores, and
// retrievers. Every other package in this module speaks these types.
package schema

// Role identifies the author of a conversational turn.
type Role string

const (
	// RoleSystem marks instructions that frame the conversation.
	RoleSystem Role = "system"
	// RoleHuman marks input produced by the end user.
	RoleHuman Role = "human"
	// RoleAI marks output produced by a chat model.
	RoleAI Role = "ai"
	// RoleTool marks the result of a tool invocation.
	RoleTool Role = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments is the
// raw JSON payload the model produced.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single conversational turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name optionally identifies the speaker, for providers that
	// distinguish multiple participants with the same role.
	Name string `json:"name,omitempty"`

	// ToolCalls carries tool invocations requested by an AI turn.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool turn back to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Metadata carries provider or application specific attributes that
	// should survive a round trip through a message history store.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewSystemMessage returns a system turn with the given content.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewHumanMessage returns a human turn with the given content.
func NewHumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// NewAIMessage returns an AI turn with the given content.
func NewAIMessage(content string) Message {
	return Message{Role: RoleAI, Content: content}
}

// NewToolMessage returns a tool turn answering the given tool call.
func NewToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}
