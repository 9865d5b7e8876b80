package caches

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/pkg/schema"
)

func TestKeyIsDeterministic(t *testing.T) {
	g := NewKeyGenerator("llm")
	messages := []schema.Message{schema.NewHumanMessage("hello")}
	opts := chatmodels.ApplyCallOptions(chatmodels.WithMaxTokens(256))

	k1, err := g.Key("anthropic/claude-3-haiku", messages, opts)
	require.NoError(t, err)
	k2, err := g.Key("anthropic/claude-3-haiku", messages, opts)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.Contains(t, k1, "llm:")
}

func TestKeyVariesWithRequest(t *testing.T) {
	g := NewKeyGenerator("")
	messages := []schema.Message{schema.NewHumanMessage("hello")}

	base, err := g.Key("m1", messages, nil)
	require.NoError(t, err)

	otherModel, err := g.Key("m2", messages, nil)
	require.NoError(t, err)
	require.NotEqual(t, base, otherModel)

	otherMessages, err := g.Key("m1", []schema.Message{schema.NewHumanMessage("goodbye")}, nil)
	require.NoError(t, err)
	require.NotEqual(t, base, otherMessages)

	temp := 0.7
	otherOpts, err := g.Key("m1", messages, chatmodels.ApplyCallOptions(chatmodels.WithTemperature(temp)))
	require.NoError(t, err)
	require.NotEqual(t, base, otherOpts)
}

func TestKeyWithoutPrefixIsBareDigest(t *testing.T) {
	g := NewKeyGenerator("")
	key, err := g.Key("m1", nil, nil)
	require.NoError(t, err)
	require.Len(t, key, 64)
}
