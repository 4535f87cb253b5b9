package cache

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"
)

func newTestMemoizer(t *testing.T, policies map[string]Policy) *Memoizer {
	t.Helper()
	c, err := NewLocalCache(128, log.NewNopLogger())
	require.NoError(t, err)
	return NewMemoizer(c, log.NewNopLogger(), policies)
}

func TestMemoizerCachesByMethodAndArgs(t *testing.T) {
	ctx := context.Background()
	m := newTestMemoizer(t, map[string]Policy{
		"getBlock": {TTL: time.Minute},
	})

	calls := 0
	fn := func() (string, error) {
		calls++
		return "result", nil
	}

	for i := 0; i < 3; i++ {
		got, err := m.Do(ctx, "getBlock", []interface{}{"0x1"}, fn)
		require.NoError(t, err)
		require.Equal(t, "result", got)
	}
	require.Equal(t, 1, calls)

	// distinct arguments miss
	_, err := m.Do(ctx, "getBlock", []interface{}{"0x2"}, fn)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestMemoizerSkipParams(t *testing.T) {
	ctx := context.Background()
	m := newTestMemoizer(t, map[string]Policy{
		"getBlock": {
			TTL: time.Minute,
			SkipParams: []SkipParam{
				{Index: 0, Value: "latest"},
				{Index: 0, Value: "pending"},
				{Index: 0, Value: "finalized"},
			},
		},
	})

	calls := 0
	fn := func() (string, error) {
		calls++
		return "head", nil
	}

	for i := 0; i < 2; i++ {
		_, err := m.Do(ctx, "getBlock", []interface{}{"latest"}, fn)
		require.NoError(t, err)
	}
	require.Equal(t, 2, calls, "head tags must never be cached")
}

func TestMemoizerSkipNamedParams(t *testing.T) {
	ctx := context.Background()
	m := newTestMemoizer(t, map[string]Policy{
		"getLogs": {
			TTL: time.Minute,
			SkipNamedParams: []SkipNamedParam{
				{Index: 0, Fields: []SkipNamedField{
					{Name: "toBlock", ValuePattern: regexp.MustCompile(`^(latest|pending)$`)},
				}},
			},
		},
	})

	type filter struct {
		ToBlock string `json:"toBlock"`
	}

	calls := 0
	fn := func() (string, error) {
		calls++
		return "logs", nil
	}

	for i := 0; i < 2; i++ {
		_, err := m.Do(ctx, "getLogs", []interface{}{filter{ToBlock: "latest"}}, fn)
		require.NoError(t, err)
	}
	require.Equal(t, 2, calls)

	for i := 0; i < 2; i++ {
		_, err := m.Do(ctx, "getLogs", []interface{}{filter{ToBlock: "0x10"}}, fn)
		require.NoError(t, err)
	}
	require.Equal(t, 3, calls)
}

func TestMemoizerUnregisteredMethodNotCached(t *testing.T) {
	ctx := context.Background()
	m := newTestMemoizer(t, nil)

	calls := 0
	for i := 0; i < 2; i++ {
		_, err := m.Do(ctx, "unknown", nil, func() (string, error) {
			calls++
			return "x", nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 2, calls)
}

func TestMemoizeTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestMemoizer(t, map[string]Policy{
		"prestate": {TTL: time.Minute},
	})

	type account struct {
		Balance string            `json:"balance"`
		Nonce   uint64            `json:"nonce"`
		Storage map[string]string `json:"storage"`
	}

	calls := 0
	fn := func() (map[string]account, error) {
		calls++
		return map[string]account{
			"0xabc": {Balance: "0x64", Nonce: 3, Storage: map[string]string{"0x0": "0x1"}},
		}, nil
	}

	first, err := Memoize(ctx, m, "prestate", []interface{}{"0xdead", false}, fn)
	require.NoError(t, err)
	second, err := Memoize(ctx, m, "prestate", []interface{}{"0xdead", false}, fn)
	require.NoError(t, err)

	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
}
