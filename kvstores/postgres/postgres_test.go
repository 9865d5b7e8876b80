package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to the database named by TEST_POSTGRES_DSN.
// Tests skip when the variable is unset so the suite passes without a
// running database.
func newTestStore(t *testing.T, table string) *Store {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping Postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.PingContext(ctx))

	store, err := New(ctx, db, WithTable(table))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	})
	return store
}

func TestNewRequiresDB(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)
}

func TestMSetMGetRoundTrip(t *testing.T) {
	store := newTestStore(t, "kv_roundtrip")
	ctx := context.Background()

	require.NoError(t, store.MSet(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}))

	values, err := store.MGet(ctx, "a", "missing", "b")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), values[0])
	require.Nil(t, values[1])
	require.Equal(t, []byte("2"), values[2])
}

func TestMSetUpserts(t *testing.T) {
	store := newTestStore(t, "kv_upsert")
	ctx := context.Background()

	require.NoError(t, store.MSet(ctx, map[string][]byte{"k": []byte("old")}))
	require.NoError(t, store.MSet(ctx, map[string][]byte{"k": []byte("new")}))

	values, err := store.MGet(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), values[0])
}

func TestMDeleteAndKeys(t *testing.T) {
	store := newTestStore(t, "kv_keys")
	ctx := context.Background()

	require.NoError(t, store.MSet(ctx, map[string][]byte{
		"emb:a": []byte("1"),
		"emb:b": []byte("2"),
		"other": []byte("3"),
	}))

	keys, err := store.Keys(ctx, "emb:")
	require.NoError(t, err)
	require.Equal(t, []string{"emb:a", "emb:b"}, keys)

	require.NoError(t, store.MDelete(ctx, "emb:a", "missing"))
	keys, err = store.Keys(ctx, "emb:")
	require.NoError(t, err)
	require.Equal(t, []string{"emb:b"}, keys)
}

func TestEscapeLike(t *testing.T) {
	require.Equal(t, `plain`, escapeLike(`plain`))
	require.Equal(t, `50\%`, escapeLike(`50%`))
	require.Equal(t, `a\_b`, escapeLike(`a_b`))
	require.Equal(t, `c\\d`, escapeLike(`c\d`))
}
