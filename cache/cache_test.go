package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"
)

func newTestCache(t *testing.T) *LocalCache {
	t.Helper()
	c, err := NewLocalCache(128, log.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	c.Set(ctx, "block:1", "0xabc", "test", NoExpiry)

	got, ok := c.Get(ctx, "block:1", "test")
	require.True(t, ok)
	require.Equal(t, "0xabc", got)

	c.Delete(ctx, "block:1", "test")
	_, ok = c.Get(ctx, "block:1", "test")
	require.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	c.Set(ctx, "block:2", "0xdef", "test", 10*time.Millisecond)

	_, ok := c.Get(ctx, "block:2", "test")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get(ctx, "block:2", "test")
	require.False(t, ok)
}

func TestCacheKeysPattern(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	c.Set(ctx, "hbarSpendingPlan:p1:amountSpent", "5", "test", NoExpiry)
	c.Set(ctx, "hbarSpendingPlan:p2:amountSpent", "7", "test", NoExpiry)
	c.Set(ctx, "hbarSpendingPlan:p1:spendingHistory", "[]", "test", NoExpiry)
	c.Set(ctx, "block:3", "0x1", "test", NoExpiry)

	keys := c.Keys(ctx, "hbarSpendingPlan:*:amountSpent", "test")
	require.Len(t, keys, 2)
	require.ElementsMatch(t, []string{
		"hbarSpendingPlan:p1:amountSpent",
		"hbarSpendingPlan:p2:amountSpent",
	}, keys)

	// '*' must not cross a collection boundary
	require.Empty(t, c.Keys(ctx, "hbarSpendingPlan:*", "test"))
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	c.Set(ctx, "a:1", "x", "test", NoExpiry)
	c.Set(ctx, "b:2", "y", "test", NoExpiry)
	c.Clear(ctx)

	_, ok := c.Get(ctx, "a:1", "test")
	require.False(t, ok)
	_, ok = c.Get(ctx, "b:2", "test")
	require.False(t, ok)
}

func TestCacheLRUBound(t *testing.T) {
	ctx := context.Background()
	c, err := NewLocalCache(2, log.NewNopLogger())
	require.NoError(t, err)

	c.Set(ctx, "k:1", "1", "test", NoExpiry)
	c.Set(ctx, "k:2", "2", "test", NoExpiry)
	c.Set(ctx, "k:3", "3", "test", NoExpiry)

	_, ok := c.Get(ctx, "k:1", "test")
	require.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get(ctx, "k:3", "test")
	require.True(t, ok)
}
