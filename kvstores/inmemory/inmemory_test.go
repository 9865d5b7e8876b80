package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMSetMGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.MSet(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}))

	values, err := store.MGet(ctx, "a", "missing", "b")
	require.NoError(t, err)
	require.Len(t, values, 3)
	require.Equal(t, []byte("1"), values[0])
	require.Nil(t, values[1])
	require.Equal(t, []byte("2"), values[2])
}

func TestMDelete(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.MSet(ctx, map[string][]byte{"a": []byte("1")}))
	require.NoError(t, store.MDelete(ctx, "a", "missing"))

	values, err := store.MGet(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, values[0])
	require.Zero(t, store.Len())
}

func TestKeysFiltersByPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.MSet(ctx, map[string][]byte{
		"emb:b": []byte("1"),
		"emb:a": []byte("2"),
		"other": []byte("3"),
	}))

	keys, err := store.Keys(ctx, "emb:")
	require.NoError(t, err)
	require.Equal(t, []string{"emb:a", "emb:b"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestValuesAreCopied(t *testing.T) {
	store := New()
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, store.MSet(ctx, map[string][]byte{"k": original}))
	original[0] = 'X'

	values, err := store.MGet(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("value"), values[0])

	values[0][0] = 'Y'
	again, err := store.MGet(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("value"), again[0])
}
