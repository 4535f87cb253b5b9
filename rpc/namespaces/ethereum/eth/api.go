// Package eth exposes the eth_* JSON-RPC namespace over the shared
// backend.
package eth

import (
	"context"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hashgraph/json-rpc-relay-go/rpc/backend"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
)

// PublicAPI is the eth_ prefixed set of APIs.
type PublicAPI struct {
	logger  log.Logger
	backend *backend.Backend
}

// NewPublicAPI creates an instance of the public ETH Web3 API.
func NewPublicAPI(logger log.Logger, b *backend.Backend) *PublicAPI {
	return &PublicAPI{
		logger:  logger.With(log.ModuleKey, "eth"),
		backend: b,
	}
}

// BlockNumber returns the current block number.
func (e *PublicAPI) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	e.logger.Debug("eth_blockNumber")
	return e.backend.BlockNumber(ctx)
}

// ChainId is the EIP-155 replay-protection chain id for the current network.
func (e *PublicAPI) ChainId() (*hexutil.Big, error) { //nolint:revive,staticcheck
	e.logger.Debug("eth_chainId")
	return (*hexutil.Big)(e.backend.ChainID()), nil
}

// Accounts returns the list of accounts available to this node. The relay
// never holds user keys.
func (e *PublicAPI) Accounts() ([]common.Address, error) {
	e.logger.Debug("eth_accounts")
	return []common.Address{}, nil
}

// Syncing returns false in all cases.
func (e *PublicAPI) Syncing() (interface{}, error) {
	e.logger.Debug("eth_syncing")
	return e.backend.Syncing()
}

// Mining returns false, there is no local mining process.
func (e *PublicAPI) Mining() bool {
	e.logger.Debug("eth_mining")
	return false
}

// Hashrate returns zero, there is no local mining process.
func (e *PublicAPI) Hashrate() hexutil.Uint64 {
	e.logger.Debug("eth_hashrate")
	return 0
}

// GasPrice returns the current gas price in weibar.
func (e *PublicAPI) GasPrice(ctx context.Context) (*hexutil.Big, error) {
	e.logger.Debug("eth_gasPrice")
	return e.backend.GasPrice(ctx)
}

// MaxPriorityFeePerGas returns the suggested priority fee, which is always
// zero on this network.
func (e *PublicAPI) MaxPriorityFeePerGas(ctx context.Context) (*hexutil.Big, error) {
	e.logger.Debug("eth_maxPriorityFeePerGas")
	return e.backend.MaxPriorityFeePerGas(ctx), nil
}

// FeeHistory returns the flat fee landscape of the network.
func (e *PublicAPI) FeeHistory(ctx context.Context, blockCount hexutil.Uint64, lastBlock rpctypes.BlockNumber, rewardPercentiles []float64) (*backend.FeeHistoryResult, error) {
	e.logger.Debug("eth_feeHistory", "blockCount", uint64(blockCount), "lastBlock", lastBlock.Int64())
	return e.backend.FeeHistory(ctx, uint64(blockCount), lastBlock, rewardPercentiles)
}

// GetBalance returns the provided account's balance up to the provided
// block number.
func (e *PublicAPI) GetBalance(ctx context.Context, address common.Address, blockNum rpctypes.BlockNumber) (*hexutil.Big, error) {
	e.logger.Debug("eth_getBalance", "address", address.Hex(), "block", blockNum.Int64())
	return e.backend.GetBalance(ctx, address, blockNum)
}

// GetTransactionCount returns the account nonce at the given block number.
func (e *PublicAPI) GetTransactionCount(ctx context.Context, address common.Address, blockNum rpctypes.BlockNumber) (*hexutil.Uint64, error) {
	e.logger.Debug("eth_getTransactionCount", "address", address.Hex(), "block", blockNum.Int64())
	return e.backend.GetTransactionCount(ctx, address, blockNum)
}

// GetCode returns the contract code at the given address.
func (e *PublicAPI) GetCode(ctx context.Context, address common.Address, blockNum rpctypes.BlockNumber) (hexutil.Bytes, error) {
	e.logger.Debug("eth_getCode", "address", address.Hex(), "block", blockNum.Int64())
	return e.backend.GetCode(ctx, address, blockNum)
}

// GetStorageAt returns the contract storage at the given address and key.
func (e *PublicAPI) GetStorageAt(ctx context.Context, address common.Address, key string, blockNum rpctypes.BlockNumber) (hexutil.Bytes, error) {
	e.logger.Debug("eth_getStorageAt", "address", address.Hex(), "key", key, "block", blockNum.Int64())
	return e.backend.GetStorageAt(ctx, address, key, blockNum)
}

// GetBlockByNumber returns the block identified by number. Depending on
// fullTx it returns full transaction objects or only their hashes.
func (e *PublicAPI) GetBlockByNumber(ctx context.Context, blockNum rpctypes.BlockNumber, fullTx bool) (map[string]interface{}, error) {
	e.logger.Debug("eth_getBlockByNumber", "block", blockNum.Int64(), "fullTx", fullTx)
	return e.backend.GetBlockByNumber(ctx, blockNum, fullTx)
}

// GetBlockByHash returns the block identified by hash.
func (e *PublicAPI) GetBlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (map[string]interface{}, error) {
	e.logger.Debug("eth_getBlockByHash", "hash", hash.Hex(), "fullTx", fullTx)
	return e.backend.GetBlockByHash(ctx, hash, fullTx)
}

// GetBlockTransactionCountByNumber returns the number of transactions in
// the block identified by number.
func (e *PublicAPI) GetBlockTransactionCountByNumber(ctx context.Context, blockNum rpctypes.BlockNumber) *hexutil.Uint {
	e.logger.Debug("eth_getBlockTransactionCountByNumber", "block", blockNum.Int64())
	return e.backend.GetBlockTransactionCountByNumber(ctx, blockNum)
}

// GetBlockTransactionCountByHash returns the number of transactions in the
// block identified by hash.
func (e *PublicAPI) GetBlockTransactionCountByHash(ctx context.Context, hash common.Hash) *hexutil.Uint {
	e.logger.Debug("eth_getBlockTransactionCountByHash", "hash", hash.Hex())
	return e.backend.GetBlockTransactionCountByHash(ctx, hash)
}

// GetUncleCountByBlockNumber returns zero, the chain has no uncles.
func (e *PublicAPI) GetUncleCountByBlockNumber(_ rpctypes.BlockNumber) hexutil.Uint {
	return 0
}

// GetUncleCountByBlockHash returns zero, the chain has no uncles.
func (e *PublicAPI) GetUncleCountByBlockHash(_ common.Hash) hexutil.Uint {
	return 0
}

// GetUncleByBlockNumberAndIndex returns nil, the chain has no uncles.
func (e *PublicAPI) GetUncleByBlockNumberAndIndex(_ rpctypes.BlockNumber, _ hexutil.Uint) map[string]interface{} {
	return nil
}

// GetUncleByBlockHashAndIndex returns nil, the chain has no uncles.
func (e *PublicAPI) GetUncleByBlockHashAndIndex(_ common.Hash, _ hexutil.Uint) map[string]interface{} {
	return nil
}

// GetTransactionByHash returns the transaction identified by hash.
func (e *PublicAPI) GetTransactionByHash(ctx context.Context, hash common.Hash) (*rpctypes.RPCTransaction, error) {
	e.logger.Debug("eth_getTransactionByHash", "hash", hash.Hex())
	return e.backend.GetTransactionByHash(ctx, hash)
}

// GetTransactionByBlockNumberAndIndex returns the transaction at the given
// block number and index.
func (e *PublicAPI) GetTransactionByBlockNumberAndIndex(ctx context.Context, blockNum rpctypes.BlockNumber, idx hexutil.Uint) (*rpctypes.RPCTransaction, error) {
	e.logger.Debug("eth_getTransactionByBlockNumberAndIndex", "block", blockNum.Int64(), "index", uint(idx))
	return e.backend.GetTransactionByBlockNumberAndIndex(ctx, blockNum, idx)
}

// GetTransactionByBlockHashAndIndex returns the transaction at the given
// block hash and index.
func (e *PublicAPI) GetTransactionByBlockHashAndIndex(ctx context.Context, hash common.Hash, idx hexutil.Uint) (*rpctypes.RPCTransaction, error) {
	e.logger.Debug("eth_getTransactionByBlockHashAndIndex", "hash", hash.Hex(), "index", uint(idx))
	return e.backend.GetTransactionByBlockHashAndIndex(ctx, hash, idx)
}

// GetTransactionReceipt returns the receipt of a committed transaction.
func (e *PublicAPI) GetTransactionReceipt(ctx context.Context, hash common.Hash) (map[string]interface{}, error) {
	e.logger.Debug("eth_getTransactionReceipt", "hash", hash.Hex())
	return e.backend.GetTransactionReceipt(ctx, hash)
}

// SendRawTransaction submits a signed transaction to the consensus network
// and returns its hash.
func (e *PublicAPI) SendRawTransaction(ctx context.Context, input hexutil.Bytes) (common.Hash, error) {
	e.logger.Debug("eth_sendRawTransaction", "length", len(input))
	return e.backend.SendRawTransaction(ctx, input)
}

// Call is not served; the relay has no execution engine of its own.
func (e *PublicAPI) Call(_ context.Context, _ interface{}, _ interface{}) (hexutil.Bytes, error) {
	return nil, rpctypes.NewUnsupportedMethodError()
}

// EstimateGas is not served; the relay has no execution engine of its own.
func (e *PublicAPI) EstimateGas(_ context.Context, _ interface{}) (hexutil.Uint64, error) {
	return 0, rpctypes.NewUnsupportedMethodError()
}

// SendTransaction requires a node-side key, which the relay never holds.
func (e *PublicAPI) SendTransaction(_ context.Context, _ interface{}) (common.Hash, error) {
	return common.Hash{}, rpctypes.NewUnsupportedMethodError()
}

// Sign requires a node-side key, which the relay never holds.
func (e *PublicAPI) Sign(_ common.Address, _ hexutil.Bytes) (hexutil.Bytes, error) {
	return nil, rpctypes.NewUnsupportedMethodError()
}

// GetProof is not served; the mirror node keeps no state trie.
func (e *PublicAPI) GetProof(_ context.Context, _ common.Address, _ []string, _ rpctypes.BlockNumber) (interface{}, error) {
	return nil, rpctypes.NewUnsupportedMethodError()
}
