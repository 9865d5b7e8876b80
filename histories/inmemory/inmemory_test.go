package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/pkg/schema"
)

func TestHistoryAppendsInOrder(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()

	require.NoError(t, h.AddUserMessage(ctx, "hi"))
	require.NoError(t, h.AddAIMessage(ctx, "hello"))
	require.NoError(t, h.AddMessage(ctx, schema.NewSystemMessage("be nice")))

	msgs, err := h.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, schema.RoleHuman, msgs[0].Role)
	require.Equal(t, "hi", msgs[0].Content)
	require.Equal(t, schema.RoleAI, msgs[1].Role)
	require.Equal(t, schema.RoleSystem, msgs[2].Role)
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a := store.History("session-a")
	b := store.History("session-b")

	require.NoError(t, a.AddUserMessage(ctx, "from a"))
	require.NoError(t, b.AddUserMessage(ctx, "from b"))

	msgsA, err := a.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgsA, 1)
	require.Equal(t, "from a", msgsA[0].Content)

	msgsB, err := b.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgsB, 1)
	require.Equal(t, "from b", msgsB[0].Content)

	require.ElementsMatch(t, []string{"session-a", "session-b"}, store.Sessions())
}

func TestHistoriesShareSessionTranscript(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := store.History("shared")
	require.NoError(t, first.AddUserMessage(ctx, "turn 1"))

	second := store.History("shared")
	msgs, err := second.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestSetMessagesReplacesTranscript(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()

	require.NoError(t, h.AddUserMessage(ctx, "old"))
	require.NoError(t, h.SetMessages(ctx, []schema.Message{
		schema.NewSystemMessage("fresh start"),
	}))

	msgs, err := h.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, schema.RoleSystem, msgs[0].Role)
}

func TestClearEmptiesTranscript(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()

	require.NoError(t, h.AddUserMessage(ctx, "bye"))
	require.NoError(t, h.Clear(ctx))

	msgs, err := h.Messages(ctx)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestMessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	ctx := context.Background()

	require.NoError(t, h.AddUserMessage(ctx, "original"))

	msgs, err := h.Messages(ctx)
	require.NoError(t, err)
	msgs[0].Content = "mutated"

	again, err := h.Messages(ctx)
	require.NoError(t, err)
	require.Equal(t, "original", again[0].Content)
}
