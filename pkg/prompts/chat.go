package prompts

import (
	"fmt"

	"github.com/Jflick58/langchain/pkg/schema"
)

// MessageTemplate renders zero or more messages from named values.
type MessageTemplate interface {
	FormatMessages(values map[string]any) ([]schema.Message, error)
}

type roleTemplate struct {
	role     schema.Role
	template string
}

// System creates a system message template.
func System(template string) MessageTemplate {
	return roleTemplate{role: schema.RoleSystem, template: template}
}

// Human creates a human message template.
func Human(template string) MessageTemplate {
	return roleTemplate{role: schema.RoleHuman, template: template}
}

// AI creates an AI message template.
func AI(template string) MessageTemplate {
	return roleTemplate{role: schema.RoleAI, template: template}
}

func (r roleTemplate) FormatMessages(values map[string]any) ([]schema.Message, error) {
	content, err := interpolate(r.template, values)
	if err != nil {
		return nil, err
	}
	return []schema.Message{{Role: r.role, Content: content}}, nil
}

// MessagesPlaceholder splices a []schema.Message value into the rendered
// message list. It is how conversation history enters a chat prompt.
type MessagesPlaceholder struct {
	VariableName string

	// Optional placeholders render nothing when the variable is absent.
	Optional bool
}

// Placeholder creates a required placeholder for the named variable.
func Placeholder(variableName string) MessagesPlaceholder {
	return MessagesPlaceholder{VariableName: variableName}
}

// OptionalPlaceholder creates a placeholder that tolerates a missing
// variable.
func OptionalPlaceholder(variableName string) MessagesPlaceholder {
	return MessagesPlaceholder{VariableName: variableName, Optional: true}
}

// FormatMessages returns the messages stored under the placeholder's
// variable. The value must be a []schema.Message or a single Message.
func (m MessagesPlaceholder) FormatMessages(values map[string]any) ([]schema.Message, error) {
	value, ok := values[m.VariableName]
	if !ok || value == nil {
		if m.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("prompts: missing value for placeholder %q", m.VariableName)
	}

	switch v := value.(type) {
	case []schema.Message:
		return v, nil
	case schema.Message:
		return []schema.Message{v}, nil
	default:
		return nil, fmt.Errorf("prompts: placeholder %q expects messages, got %T", m.VariableName, value)
	}
}

// ChatPromptTemplate renders an ordered list of message templates.
type ChatPromptTemplate struct {
	Messages []MessageTemplate
}

// NewChatPromptTemplate creates a chat prompt from message templates.
func NewChatPromptTemplate(messages ...MessageTemplate) *ChatPromptTemplate {
	return &ChatPromptTemplate{Messages: messages}
}

// FormatMessages renders every template in order with the same values.
func (c *ChatPromptTemplate) FormatMessages(values map[string]any) ([]schema.Message, error) {
	var out []schema.Message
	for i, tmpl := range c.Messages {
		msgs, err := tmpl.FormatMessages(values)
		if err != nil {
			return nil, fmt.Errorf("prompts: message %d: %w", i, err)
		}
		out = append(out, msgs...)
	}
	return out, nil
}
