package prompts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/pkg/schema"
)

func TestPromptTemplateFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]any
		want     string
		wantErr  bool
	}{
		{
			name:     "single variable",
			template: "Answer the question: {question}",
			values:   map[string]any{"question": "what is Go?"},
			want:     "Answer the question: what is Go?",
		},
		{
			name:     "repeated variable",
			template: "{name} said hi to {name}",
			values:   map[string]any{"name": "Ada"},
			want:     "Ada said hi to Ada",
		},
		{
			name:     "escaped braces",
			template: `respond with {{"ok": true}}`,
			values:   map[string]any{},
			want:     `respond with {"ok": true}`,
		},
		{
			name:     "non-string value",
			template: "retry {count} times",
			values:   map[string]any{"count": 3},
			want:     "retry 3 times",
		},
		{
			name:     "missing variable",
			template: "hello {who}",
			values:   map[string]any{},
			wantErr:  true,
		},
		{
			name:     "unclosed reference",
			template: "hello {who",
			values:   map[string]any{"who": "x"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPromptTemplate(tt.template).Format(tt.values)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPromptTemplateFormatMessages(t *testing.T) {
	msgs, err := NewPromptTemplate("Summarize: {text}").FormatMessages(map[string]any{"text": "channels"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, schema.RoleHuman, msgs[0].Role)
	require.Equal(t, "Summarize: channels", msgs[0].Content)

	_, err = NewPromptTemplate("Summarize: {text}").FormatMessages(map[string]any{})
	require.Error(t, err)
}

func TestExtractVariables(t *testing.T) {
	p := NewPromptTemplate("{a} and {b}, then {a} again, literal {{c}}")
	require.Equal(t, []string{"a", "b"}, p.InputVariables)
}

func TestChatPromptTemplate(t *testing.T) {
	prompt := NewChatPromptTemplate(
		System("You answer questions about {topic}."),
		Placeholder("history"),
		Human("{question}"),
	)

	history := []schema.Message{
		schema.NewHumanMessage("what is a goroutine?"),
		schema.NewAIMessage("a lightweight thread managed by the runtime"),
	}

	msgs, err := prompt.FormatMessages(map[string]any{
		"topic":    "Go",
		"history":  history,
		"question": "and a channel?",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	require.Equal(t, schema.RoleSystem, msgs[0].Role)
	require.Equal(t, "You answer questions about Go.", msgs[0].Content)
	require.Equal(t, history[0], msgs[1])
	require.Equal(t, history[1], msgs[2])
	require.Equal(t, "and a channel?", msgs[3].Content)
}

func TestPlaceholderMissingValue(t *testing.T) {
	prompt := NewChatPromptTemplate(Placeholder("history"))
	_, err := prompt.FormatMessages(map[string]any{})
	require.Error(t, err)

	optional := NewChatPromptTemplate(OptionalPlaceholder("history"), Human("{q}"))
	msgs, err := optional.FormatMessages(map[string]any{"q": "hi"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestPlaceholderRejectsWrongType(t *testing.T) {
	prompt := NewChatPromptTemplate(Placeholder("history"))
	_, err := prompt.FormatMessages(map[string]any{"history": "not messages"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "expects messages")
}
