package backend

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/hashgraph/json-rpc-relay-go/hapi"
	"github.com/hashgraph/json-rpc-relay-go/mirror"
	"github.com/hashgraph/json-rpc-relay-go/pool"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/server/config"
)

var testChainID = big.NewInt(0x12a)

type fakeSubmitter struct {
	mu          sync.Mutex
	submits     [][]byte
	submitFiles []hapi.FileID
	staged      [][]byte
	fileID      hapi.FileID
	submitErr   error
	createErr   error
	delay       time.Duration
	validStart  int64
	inFlight    int32
	maxInFlight int32
}

func (f *fakeSubmitter) SubmitEthereumTransaction(_ context.Context, rawTx []byte, callDataFile hapi.FileID, _ common.Address, _ rpctypes.RequestContext) (*hapi.TransactionResponse, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submits = append(f.submits, rawTx)
	f.submitFiles = append(f.submitFiles, callDataFile)
	f.validStart++
	return &hapi.TransactionResponse{
		TransactionID: hapi.TransactionID{AccountID: "0.0.1001", ValidStart: time.Unix(f.validStart, 0)},
	}, nil
}

func (f *fakeSubmitter) CreateFile(_ context.Context, contents []byte, _ common.Address, _ rpctypes.RequestContext) (hapi.FileID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.staged = append(f.staged, contents)
	return f.fileID, nil
}

func (f *fakeSubmitter) DeleteFile(context.Context, hapi.FileID, common.Address, rpctypes.RequestContext) error {
	return nil
}

type denyLimiter struct{}

func (denyLimiter) ShouldLimit(_ context.Context, _, _, _ string, _ common.Address, _ rpctypes.RequestContext) bool {
	return true
}

func (denyLimiter) AddExpense(_ context.Context, _ *big.Int, _ string, _ common.Address, _ rpctypes.RequestContext) {
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// fundedMirror serves the minimal read surface the submission pipeline
// touches: fee schedule, a funded sender account, and optionally the
// committed contract result.
func fundedMirror(balance int64, nonce uint64, resultByID map[string]mirror.ContractResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/network/fees":
			writeJSON(w, mirror.NetworkFeesResponse{Fees: []mirror.NetworkFee{
				{Gas: 71, TransactionType: "EthereumTransaction"},
			}})
		case strings.HasPrefix(r.URL.Path, "/accounts/"):
			writeJSON(w, mirror.Account{
				Account:       "0.0.2002",
				Balance:       mirror.AccountBalance{Balance: balance},
				EthereumNonce: nonce,
			})
		case strings.HasPrefix(r.URL.Path, "/contracts/results/"):
			id := strings.TrimPrefix(r.URL.Path, "/contracts/results/")
			if result, ok := resultByID[id]; ok {
				writeJSON(w, result)
				return
			}
			http.Error(w, `{"_status":{"messages":[{"message":"Not found"}]}}`, http.StatusNotFound)
		default:
			http.Error(w, `{"_status":{"messages":[{"message":"Not found"}]}}`, http.StatusNotFound)
		}
	}
}

func newTestBackend(t *testing.T, handler http.HandlerFunc, mutate func(*config.Config)) (*Backend, *fakeSubmitter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := log.NewNopLogger()
	mc, err := mirror.NewClient(srv.URL, nil, nil, logger)
	require.NoError(t, err)

	cfg := &config.Config{
		ChainID:             new(big.Int).Set(testChainID),
		GasLimitCap:         15_000_000,
		TxPoolEnabled:       true,
		NonceOrdering:       true,
		FileAppendChunkSize: hapi.DefaultFileAppendChunkSize,
		ReconcileRetries:    1,
		ReconcileInterval:   5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(cfg)
	}

	sub := &fakeSubmitter{fileID: "0.0.5005"}
	locks := pool.NewLockRegistry(100, time.Minute, time.Second, logger)
	b := New(cfg, logger, mc, sub, pool.NewPendingPool(logger), locks, nil, nil, nil)
	return b, sub
}

func newSenderKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

func signedLegacyTx(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, value *big.Int, data []byte) *ethtypes.Transaction {
	t.Helper()
	to := common.HexToAddress("0x00000000000000000000000000000000000007e7")
	tx, err := ethtypes.SignNewTx(key, ethtypes.LatestSignerForChainID(testChainID), &ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      100_000,
		GasPrice: big.NewInt(1_000_000_000_000), // 100 tinybar per gas
		Data:     data,
	})
	require.NoError(t, err)
	return tx
}

func rawBytes(t *testing.T, tx *ethtypes.Transaction) hexutil.Bytes {
	t.Helper()
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func TestSendRawTransactionSyncReturnsMirrorHash(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	mirrorRef := "0.0.1001-1-000000000"
	b, sub := newTestBackend(t, fundedMirror(1_000_000_000, 0, map[string]mirror.ContractResult{
		mirrorRef: {Hash: tx.Hash().Hex(), Result: mirror.ResultSuccess},
	}), nil)

	hash, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), hash)
	require.Len(t, sub.submits, 1)
	require.Empty(t, sub.staged)
	require.Zero(t, b.Pool.Len())
}

func TestSendRawTransactionSyncFallsBackToLocalHash(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	// No committed result ever appears; the submission itself succeeded so
	// the locally computed hash is trusted.
	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), nil)

	hash, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), hash)
	require.Zero(t, b.Pool.Len())
}

func TestSendRawTransactionAsyncReturnsImmediately(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), func(cfg *config.Config) {
		cfg.AsyncTxProcessing = true
	})

	hash, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), hash)

	// Background reconciliation clears the pool entry.
	require.Eventually(t, func() bool { return b.Pool.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSendRawTransactionReadOnly(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	b, sub := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), func(cfg *config.Config) {
		cfg.ReadOnly = true
	})

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	var relayErr *rpctypes.RelayError
	require.ErrorAs(t, err, &relayErr)
	require.Equal(t, rpctypes.CodeUnsupportedOperation, relayErr.Code)
	require.Empty(t, sub.submits)
}

func TestSendRawTransactionRejectsBlobTx(t *testing.T) {
	blobTx := ethtypes.NewTx(&ethtypes.BlobTx{
		ChainID:    uint256.MustFromBig(testChainID),
		Gas:        21_000,
		GasFeeCap:  uint256.NewInt(1),
		GasTipCap:  uint256.NewInt(1),
		BlobFeeCap: uint256.NewInt(1),
	})

	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), nil)

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, blobTx))
	var relayErr *rpctypes.RelayError
	require.ErrorAs(t, err, &relayErr)
	require.Equal(t, rpctypes.CodeUnsupportedTransaction, relayErr.Code)
}

func TestSendRawTransactionValueBelowTinybar(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(1), nil) // 1 weibar

	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), nil)

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	var relayErr *rpctypes.RelayError
	require.ErrorAs(t, err, &relayErr)
	require.Equal(t, rpctypes.CodeInvalidArguments, relayErr.Code)
	require.Contains(t, relayErr.Message, "tinybar")
}

func TestSendRawTransactionInsufficientFunds(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	b, _ := newTestBackend(t, fundedMirror(1, 0, nil), nil) // 1 tinybar balance

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	var relayErr *rpctypes.RelayError
	require.ErrorAs(t, err, &relayErr)
	require.Equal(t, rpctypes.CodeInsufficientFunds, relayErr.Code)
}

func TestSendRawTransactionNonceTooLow(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 2, big.NewInt(0), nil)

	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 5, nil), nil)

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	var relayErr *rpctypes.RelayError
	require.ErrorAs(t, err, &relayErr)
	require.Equal(t, rpctypes.CodeNonceTooLow, relayErr.Code)
}

func TestSendRawTransactionDuplicateRejected(t *testing.T) {
	key, sender := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), nil)
	require.NoError(t, b.Pool.Admit(&pool.Entry{Sender: sender, Tx: tx, SubmittedAt: time.Now()}))

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	require.ErrorContains(t, err, "already known")
	require.Equal(t, 1, b.Pool.Len())
}

func TestSendRawTransactionStagesLargeCallData(t *testing.T) {
	key, _ := newSenderKey(t)
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), data)

	mirrorRef := "0.0.1001-1-000000000"
	b, sub := newTestBackend(t, fundedMirror(1_000_000_000, 0, map[string]mirror.ContractResult{
		mirrorRef: {Hash: tx.Hash().Hex(), Result: mirror.ResultSuccess},
	}), func(cfg *config.Config) {
		cfg.FileAppendChunkSize = 128
	})

	raw := rawBytes(t, tx)
	hash, err := b.SendRawTransaction(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, sub.staged, 1)
	require.Equal(t, data, sub.staged[0])
	require.Equal(t, []hapi.FileID{"0.0.5005"}, sub.submitFiles)

	// The inline envelope travels without the staged call data but keeps
	// the signature; the served hash is still that of the full envelope.
	require.Len(t, sub.submits, 1)
	require.Less(t, len(sub.submits[0]), len(raw))
	require.False(t, bytes.Contains(sub.submits[0], data))

	stripped := new(ethtypes.Transaction)
	require.NoError(t, stripped.UnmarshalBinary(sub.submits[0]))
	require.Empty(t, stripped.Data())
	require.Equal(t, tx.Nonce(), stripped.Nonce())
	require.Equal(t, tx.Gas(), stripped.Gas())
	v, r, s := tx.RawSignatureValues()
	sv, sr, ss := stripped.RawSignatureValues()
	require.Equal(t, v, sv)
	require.Equal(t, r, sr)
	require.Equal(t, s, ss)
	require.Equal(t, tx.Hash(), hash)
}

func TestSendRawTransactionAsyncSwallowsTransientError(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	b, sub := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), func(cfg *config.Config) {
		cfg.AsyncTxProcessing = true
	})
	sub.submitErr = hapi.NewStatusError(hapi.StatusTimeout, "timeout exceeded")

	// The transaction's fate is unknown, not failed; async mode answers
	// with the local hash and leaves the outcome to the mirror node.
	hash, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), hash)
	require.Zero(t, b.Pool.Len())
}

func TestSendRawTransactionInlineWhenJumboEnabled(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), make([]byte, 300))

	b, sub := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), func(cfg *config.Config) {
		cfg.FileAppendChunkSize = 128
		cfg.JumboTxEnabled = true
	})

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	require.NoError(t, err)
	require.Empty(t, sub.staged)
	require.Equal(t, []hapi.FileID{""}, sub.submitFiles)
}

func TestSendRawTransactionRateLimited(t *testing.T) {
	key, _ := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	b, sub := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), nil)
	b.Limiter = denyLimiter{}

	_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
	var relayErr *rpctypes.RelayError
	require.ErrorAs(t, err, &relayErr)
	require.Equal(t, rpctypes.CodeHbarRateLimitExceeded, relayErr.Code)
	require.Empty(t, sub.submits)
	require.Zero(t, b.Pool.Len())
}

func TestSendRawTransactionSerializesSameSender(t *testing.T) {
	key, _ := newSenderKey(t)
	first := signedLegacyTx(t, key, 0, big.NewInt(0), nil)
	second := signedLegacyTx(t, key, 1, big.NewInt(0), nil)

	b, sub := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), func(cfg *config.Config) {
		cfg.ReconcileRetries = 0
		cfg.ReconcileInterval = time.Millisecond
	})
	sub.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for _, tx := range []*ethtypes.Transaction{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.SendRawTransaction(context.Background(), rawBytes(t, tx))
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, sub.submits, 2)
	require.EqualValues(t, 1, atomic.LoadInt32(&sub.maxInFlight))
}

func TestGetBalanceConvertsTinybarToWeibar(t *testing.T) {
	b, _ := newTestBackend(t, fundedMirror(100, 0, nil), nil)

	balance, err := b.GetBalance(context.Background(), common.HexToAddress("0x1"), rpctypes.EthLatestBlockNumber)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000_000_000), (*big.Int)(balance))
}

func TestGetBalanceUnknownAccountIsZero(t *testing.T) {
	b, _ := newTestBackend(t, fundedMirror(0, 0, nil), nil)
	b.Mirror = mustMirror(t, http.NotFound)

	balance, err := b.GetBalance(context.Background(), common.HexToAddress("0x1"), rpctypes.EthLatestBlockNumber)
	require.NoError(t, err)
	require.Zero(t, (*big.Int)(balance).Sign())
}

func TestGetTransactionCountPendingIncludesPool(t *testing.T) {
	key, sender := newSenderKey(t)
	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 3, nil), nil)

	pending := signedLegacyTx(t, key, 3, big.NewInt(0), nil)
	require.NoError(t, b.Pool.Admit(&pool.Entry{Sender: sender, Tx: pending, SubmittedAt: time.Now()}))

	latest, err := b.GetTransactionCount(context.Background(), sender, rpctypes.EthLatestBlockNumber)
	require.NoError(t, err)
	require.EqualValues(t, 3, *latest)

	withPool, err := b.GetTransactionCount(context.Background(), sender, rpctypes.EthPendingBlockNumber)
	require.NoError(t, err)
	require.EqualValues(t, 4, *withPool)
}

func TestGetTransactionByHashPendingFallback(t *testing.T) {
	key, sender := newSenderKey(t)
	tx := signedLegacyTx(t, key, 0, big.NewInt(0), nil)

	b, _ := newTestBackend(t, fundedMirror(1_000_000_000, 0, nil), nil)
	require.NoError(t, b.Pool.Admit(&pool.Entry{Sender: sender, Tx: tx, SubmittedAt: time.Now()}))

	rpcTx, err := b.GetTransactionByHash(context.Background(), tx.Hash())
	require.NoError(t, err)
	require.NotNil(t, rpcTx)
	require.Equal(t, sender, rpcTx.From)
	require.Nil(t, rpcTx.BlockHash)

	missing, err := b.GetTransactionByHash(context.Background(), common.HexToHash("0xdead"))
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGetBlockByNumberShape(t *testing.T) {
	blockHash := "0x" + strings.Repeat("ab", 48)
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/blocks/"):
			writeJSON(w, mirror.Block{
				Count:        2,
				Hash:         blockHash,
				Number:       7,
				PreviousHash: blockHash,
				GasUsed:      42_000,
				Timestamp:    mirror.TimestampRange{From: "1700000000.000000000", To: "1700000001.999999999"},
			})
		case r.URL.Path == "/contracts/results":
			writeJSON(w, mirror.ContractResultsResponse{Results: []mirror.ContractResult{
				{Hash: "0x" + strings.Repeat("11", 32), Result: mirror.ResultSuccess, TransactionIndex: 0},
				{Hash: "0x" + strings.Repeat("22", 32), Result: mirror.ResultWrongNonce, TransactionIndex: 1},
			}})
		default:
			http.NotFound(w, r)
		}
	}

	b, _ := newTestBackend(t, handler, nil)
	block, err := b.GetBlockByNumber(context.Background(), rpctypes.BlockNumber(7), false)
	require.NoError(t, err)
	require.NotNil(t, block)

	require.Equal(t, hexutil.Uint64(7), block["number"])
	require.Equal(t, common.HexToHash("0x"+strings.Repeat("ab", 32)), block["hash"])
	require.Equal(t, hexutil.Uint64(1700000000), block["timestamp"])
	require.Equal(t, blockBeneficiary, block["miner"])

	// Results that never consumed a nonce are filtered out.
	txs := block["transactions"].([]interface{})
	require.Len(t, txs, 1)
	require.Equal(t, common.HexToHash("0x"+strings.Repeat("11", 32)), txs[0])
}

func TestGetBlockByNumberUnknown(t *testing.T) {
	b, _ := newTestBackend(t, http.NotFound, nil)
	block, err := b.GetBlockByNumber(context.Background(), rpctypes.BlockNumber(404), false)
	require.NoError(t, err)
	require.Nil(t, block)
}

func TestGetTransactionReceiptFields(t *testing.T) {
	txHash := common.HexToHash("0x" + strings.Repeat("33", 32))
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/contracts/results/logs":
			writeJSON(w, mirror.LogsResponse{Logs: []mirror.Log{{
				Address: "0x00000000000000000000000000000000000004d2",
				Data:    "0x01",
				Topics:  []string{"0x" + strings.Repeat("44", 32)},
				Index:   0,
			}}})
		case strings.HasPrefix(r.URL.Path, "/contracts/results/"):
			writeJSON(w, mirror.ContractResult{
				BlockHash:        "0x" + strings.Repeat("ab", 48),
				BlockNumber:      7,
				From:             "0x00000000000000000000000000000000000001c8",
				To:               "0x00000000000000000000000000000000000004d2",
				GasUsed:          21_000,
				GasConsumed:      21_000,
				GasPrice:         "0x4e",
				Hash:             txHash.Hex(),
				Result:           mirror.ResultSuccess,
				TransactionIndex: 1,
			})
		default:
			http.NotFound(w, r)
		}
	}

	b, _ := newTestBackend(t, handler, nil)
	receipt, err := b.GetTransactionReceipt(context.Background(), txHash)
	require.NoError(t, err)
	require.NotNil(t, receipt)

	require.Equal(t, hexutil.Uint(1), receipt["status"])
	require.Equal(t, txHash, receipt["transactionHash"])
	require.Nil(t, receipt["contractAddress"])
	require.Equal(t, hexutil.Uint64(21_000), receipt["gasUsed"])

	// 0x4e tinybar per gas, reported in weibar.
	price := (*big.Int)(receipt["effectiveGasPrice"].(*hexutil.Big))
	require.Equal(t, big.NewInt(780_000_000_000), price)

	logs := receipt["logs"].([]map[string]interface{})
	require.Len(t, logs, 1)
	require.Equal(t, txHash, logs[0]["transactionHash"])
}

func TestTxPoolContentAndStatus(t *testing.T) {
	key, sender := newSenderKey(t)
	tx := signedLegacyTx(t, key, 9, big.NewInt(0), nil)

	b, _ := newTestBackend(t, http.NotFound, nil)
	require.NoError(t, b.Pool.Admit(&pool.Entry{Sender: sender, Tx: tx, SubmittedAt: time.Now()}))

	content, err := b.Content()
	require.NoError(t, err)
	require.Len(t, content[StatusPending], 1)
	require.Empty(t, content[StatusQueued])
	require.Equal(t, tx.Hash(), content[StatusPending][sender.Hex()]["9"].Hash)

	from, err := b.ContentFrom(sender)
	require.NoError(t, err)
	require.Len(t, from[StatusPending], 1)

	status, err := b.Status()
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint(1), status[StatusPending])
	require.Equal(t, hexutil.Uint(0), status[StatusQueued])

	inspect, err := b.Inspect()
	require.NoError(t, err)
	require.Contains(t, inspect[StatusPending][sender.Hex()]["9"], "wei + 100000 gas")
}

func mustMirror(t *testing.T, handler http.HandlerFunc) *mirror.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	mc, err := mirror.NewClient(srv.URL, nil, nil, log.NewNopLogger())
	require.NoError(t, err)
	return mc
}
