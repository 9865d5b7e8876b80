package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Jflick58/langchain/pkg/schema"
)

// newTestDB connects to the database named by TEST_POSTGRES_DSN. Tests
// skip when the variable is unset so the suite passes without a running
// database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping Postgres integration test")
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func newTestStore(t *testing.T, table string) *Store {
	t.Helper()
	db := newTestDB(t)

	store, err := NewStore(db, WithTable(table))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Exec("DROP TABLE IF EXISTS " + table).Error
	})
	return store
}

func TestNewStoreRequiresDB(t *testing.T) {
	_, err := NewStore(nil)
	require.Error(t, err)
}

func TestHistoryRoundTrip(t *testing.T) {
	store := newTestStore(t, "history_roundtrip")
	ctx := context.Background()

	history, err := store.History("roundtrip")
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

	require.NoError(t, history.Clear(ctx))
	messages, err = history.Messages(ctx)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestSessionsAreIsolated(t *testing.T) {
	store := newTestStore(t, "history_isolation")
	ctx := context.Background()

	first, err := store.History("iso-a")
	require.NoError(t, err)
	second, err := store.History("iso-b")
	require.NoError(t, err)

	require.NoError(t, first.AddUserMessage(ctx, "for a"))
	require.NoError(t, second.AddUserMessage(ctx, "for b"))

	messages, err := first.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "for a", messages[0].Content)
}

func TestSetMessagesReplacesTranscript(t *testing.T) {
	store := newTestStore(t, "history_replace")
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
}

func TestHistoryRequiresSessionID(t *testing.T) {
	db := newTestDB(t)

	store, err := NewStore(db, WithTable("history_validate"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Exec("DROP TABLE IF EXISTS history_validate").Error
	})

	_, err = store.History("")
	require.Error(t, err)
}
