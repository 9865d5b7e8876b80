package astradb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/internal/astra"
	"github.com/Jflick58/langchain/internal/astra/astratest"
	"github.com/Jflick58/langchain/pkg/schema"
)

func newTestStore(t *testing.T, opts ...StoreOption) (*Store, *astratest.Server) {
	t.Helper()
	server := astratest.NewServer()
	t.Cleanup(server.Close)

	client, err := astra.NewClient(server.URL(), "AstraCS:test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore(context.Background(), client, opts...)
	require.NoError(t, err)
	return store, server
}

func TestHistoryAppendsInOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	history, err := store.History("session-1")
	require.NoError(t, err)

	require.NoError(t, history.AddUserMessage(ctx, "hello"))
	require.NoError(t, history.AddAIMessage(ctx, "hi there"))
	require.NoError(t, history.AddUserMessage(ctx, "how are you?"))

	messages, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, schema.RoleHuman, messages[0].Role)
	require.Equal(t, "hello", messages[0].Content)
	require.Equal(t, schema.RoleAI, messages[1].Role)
	require.Equal(t, "how are you?", messages[2].Content)
}

func TestSessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.History("session-a")
	require.NoError(t, err)
	second, err := store.History("session-b")
	require.NoError(t, err)

	require.NoError(t, first.AddUserMessage(ctx, "for a"))
	require.NoError(t, second.AddUserMessage(ctx, "for b"))

	messages, err := first.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "for a", messages[0].Content)

	require.NoError(t, first.Clear(ctx))
	messages, err = second.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
}

func TestMessagesFollowsPaging(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	history, err := store.History("long")
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		require.NoError(t, history.AddUserMessage(ctx, fmt.Sprintf("message %02d", i)))
	}

	messages, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 25)
	require.Equal(t, "message 00", messages[0].Content)
	require.Equal(t, "message 24", messages[24].Content)
}

func TestSetMessagesReplacesTranscript(t *testing.T) {
	store, server := newTestStore(t)
	ctx := context.Background()

	history, err := store.History("replace")
	require.NoError(t, err)

	require.NoError(t, history.AddUserMessage(ctx, "old"))
	require.NoError(t, history.SetMessages(ctx, []schema.Message{
		schema.NewSystemMessage("you are terse"),
		schema.NewHumanMessage("new"),
	}))

	messages, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, schema.RoleSystem, messages[0].Role)
	require.Equal(t, "new", messages[1].Content)

	require.Len(t, server.Documents(DefaultCollection), 2)
}

func TestToolCallsRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	history, err := store.History("tools")
	require.NoError(t, err)

	call := schema.ToolCall{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Paris"}`}
	msg := schema.NewAIMessage("")
	msg.ToolCalls = []schema.ToolCall{call}
	require.NoError(t, history.AddMessage(ctx, msg))
	require.NoError(t, history.AddMessage(ctx, schema.NewToolMessage("call_1", "18C and sunny")))

	messages, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "get_weather", messages[0].ToolCalls[0].Name)
	require.Equal(t, "call_1", messages[1].ToolCallID)
}

func TestHistoryRequiresSessionID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.History("")
	require.Error(t, err)
}
