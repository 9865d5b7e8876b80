package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	c := New(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	val, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	require.Nil(t, val)

	require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))

	val, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), val)

	require.NoError(t, c.Delete(ctx, "k1"))
	val, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestTTLExpiry(t *testing.T) {
	c := New(Config{DefaultTTL: time.Minute, CleanupInterval: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	val, err := c.Get(ctx, "short")
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestGetReturnsCopy(t *testing.T) {
	c := New(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("original"), 0))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	val[0] = 'X'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), again)
}

func TestStats(t *testing.T) {
	c := New(DefaultConfig())
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
	require.Equal(t, int64(1), stats.Sets)
	require.InDelta(t, 0.5, stats.HitRate, 0.001)
	require.Equal(t, 1, c.Len())
}
