package mirror

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hashgraph/json-rpc-relay-go/cache"

	"cosmossdk.io/log"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	local, err := cache.NewLocalCache(128, log.NewNopLogger())
	require.NoError(t, err)
	memo := cache.NewMemoizer(local, log.NewNopLogger(), DefaultMemoPolicies())

	client, err := NewClient(srv.URL+"/api/v1", srv.Client(), memo, log.NewNopLogger())
	require.NoError(t, err)
	return client, srv
}

func TestGetBlockNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetBlock(context.Background(), "12345")
	require.True(t, IsNotFound(err))
}

func TestGetBlockServerErrorIsNotNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.GetBlock(context.Background(), "12345")
	require.Error(t, err)
	require.False(t, IsNotFound(err))
}

func TestGetContractResultMemoized(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"hash":"0xabc","result":"SUCCESS","block_number":7,"gas_used":21000}`)
	}))

	for i := 0; i < 3; i++ {
		res, err := client.GetContractResult(context.Background(), "0xabc")
		require.NoError(t, err)
		require.Equal(t, "0xabc", res.Hash)
		require.Equal(t, ResultSuccess, res.Result)
		require.Equal(t, int64(21000), res.GasUsed)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetContractResultUncachedAlwaysFetches(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"hash":"0xabc","result":"SUCCESS"}`)
	}))

	for i := 0; i < 2; i++ {
		_, err := client.GetContractResultUncached(context.Background(), "0xabc")
		require.NoError(t, err)
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestLatestBlockNeverCached(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		require.Equal(t, "/api/v1/blocks", r.URL.Path)
		require.Equal(t, "limit=1&order=desc", r.URL.RawQuery)
		fmt.Fprint(w, `{"blocks":[{"number":99,"hash":"0x1"}]}`)
	}))

	for i := 0; i < 2; i++ {
		block, err := client.GetLatestBlock(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(99), block.Number)
	}
	require.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetContractOpcodesQueryFlags(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "memory=true&stack=false&storage=true", r.URL.RawQuery)
		fmt.Fprint(w, `{"gas":4000,"failed":false,"return_value":"0x","opcodes":[{"pc":0,"op":"PUSH1","gas":4000,"gas_cost":3,"depth":1}]}`)
	}))

	res, err := client.GetContractOpcodes(context.Background(), "0xdead", true, false, true)
	require.NoError(t, err)
	require.Len(t, res.Opcodes, 1)
	require.Equal(t, "PUSH1", res.Opcodes[0].Op)
}

func TestGetLogsByTransactionHash(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/contracts/results/logs", r.URL.Path)
		fmt.Fprint(w, `{"logs":[{"address":"0x1f67","topics":["0xddf2","0x0a","0x0b"],"transaction_hash":"0xb9a"}]}`)
	}))

	logs, err := client.GetLogsByTransactionHash(context.Background(), "0xb9a")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "0x1f67", logs[0].Address)
	require.Len(t, logs[0].Topics, 3)
}

func TestGetBalanceAtEmpty(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"timestamp":"123.000000001","balances":[]}`)
	}))

	bal, err := client.GetBalanceAt(context.Background(), "0.0.1001", "123.000000001")
	require.NoError(t, err)
	require.Zero(t, bal)
}
