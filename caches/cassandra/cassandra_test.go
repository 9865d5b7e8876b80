package cassandra

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// newTestSession connects to the cluster named by TEST_CASSANDRA_HOSTS,
// creating the test keyspace on first use. Tests skip when the variable
// is unset so the suite passes without a running cluster.
func newTestSession(t *testing.T) *gocql.Session {
	t.Helper()
	_ = godotenv.Load()

	hosts := os.Getenv("TEST_CASSANDRA_HOSTS")
	if hosts == "" {
		t.Skip("TEST_CASSANDRA_HOSTS not set, skipping Cassandra integration test")
	}

	cluster := gocql.NewCluster(strings.Split(hosts, ",")...)
	cluster.Timeout = 10 * time.Second
	cluster.Consistency = gocql.Quorum

	admin, err := cluster.CreateSession()
	require.NoError(t, err)
	err = admin.Query(`CREATE KEYSPACE IF NOT EXISTS langchain_test
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`).Exec()
	admin.Close()
	require.NoError(t, err)

	cluster.Keyspace = "langchain_test"
	session, err := cluster.CreateSession()
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestNewRequiresSession(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestCacheRoundTrip(t *testing.T) {
	session := newTestSession(t)
	ctx := context.Background()

	cache, err := New(session, WithTable("cache_roundtrip"))
	require.NoError(t, err)
	require.NoError(t, cache.EnsureTable(ctx))

	val, err := cache.Get(ctx, "absent")
	require.NoError(t, err)
	require.Nil(t, val)

	require.NoError(t, cache.Set(ctx, "k1", []byte("v1"), time.Minute))

	val, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), val)

	require.NoError(t, cache.Delete(ctx, "k1"))
	val, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	require.Nil(t, val)

	stats := cache.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(2), stats.Misses)
}

func TestCacheTTLExpires(t *testing.T) {
	session := newTestSession(t)
	ctx := context.Background()

	cache, err := New(session, WithTable("cache_ttl"))
	require.NoError(t, err)
	require.NoError(t, cache.EnsureTable(ctx))

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Second))
	time.Sleep(2 * time.Second)

	val, err := cache.Get(ctx, "short")
	require.NoError(t, err)
	require.Nil(t, val)
}
