package backend

import (
	"context"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/utils"
)

// blockBeneficiary is the fixed miner/beneficiary the backend reports;
// there is no block producer to attribute.
var blockBeneficiary = common.HexToAddress("0x0000000000000000000000000000000000000321")

// defaultBlockGasLimit is reported for every block; the backend has no
// per-block gas ceiling of its own.
const defaultBlockGasLimit = 15_000_000

// BlockNumber returns the latest block number known to the mirror node.
func (b *Backend) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	block, err := b.Mirror.GetLatestBlock(ctx)
	if err != nil {
		return 0, rpctypes.NewInternalError(err.Error())
	}
	number, err := utils.SafeUint64(block.Number)
	if err != nil {
		return 0, rpctypes.NewInternalError(err.Error())
	}
	return hexutil.Uint64(number), nil
}

// resolveBlock maps an inbound block reference to a mirror node block.
func (b *Backend) resolveBlock(ctx context.Context, blockNum rpctypes.BlockNumber) (*mirror.Block, error) {
	if blockNum.IsLatestish() {
		return b.Mirror.GetLatestBlock(ctx)
	}
	return b.Mirror.GetBlock(ctx, strconv.FormatInt(blockNum.Int64(), 10))
}

// GetBlockByNumber returns the JSON-RPC compatible Ethereum block identified by
// block number. Depending on fullTx it either returns the full transaction
// objects or if false only the hashes of the transactions.
func (b *Backend) GetBlockByNumber(ctx context.Context, blockNum rpctypes.BlockNumber, fullTx bool) (map[string]interface{}, error) {
	block, err := b.resolveBlock(ctx, blockNum)
	if err != nil {
		if mirror.IsNotFound(err) {
			return nil, nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return b.rpcBlockFromMirrorBlock(ctx, block, fullTx)
}

// GetBlockByHash returns the JSON-RPC compatible Ethereum block identified by
// hash.
func (b *Backend) GetBlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (map[string]interface{}, error) {
	block, err := b.Mirror.GetBlock(ctx, hash.Hex())
	if err != nil {
		if mirror.IsNotFound(err) {
			return nil, nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return b.rpcBlockFromMirrorBlock(ctx, block, fullTx)
}

// GetBlockTransactionCountByNumber returns the number of Ethereum transactions
// in the block identified by number.
func (b *Backend) GetBlockTransactionCountByNumber(ctx context.Context, blockNum rpctypes.BlockNumber) *hexutil.Uint {
	block, err := b.resolveBlock(ctx, blockNum)
	if err != nil {
		b.Logger.Debug("block not found", "number", blockNum.Int64(), "error", err.Error())
		return nil
	}
	count := hexutil.Uint(block.Count) // #nosec G115 -- transaction counts are non-negative
	return &count
}

// GetBlockTransactionCountByHash returns the number of Ethereum transactions in
// the block identified by hash.
func (b *Backend) GetBlockTransactionCountByHash(ctx context.Context, hash common.Hash) *hexutil.Uint {
	block, err := b.Mirror.GetBlock(ctx, hash.Hex())
	if err != nil {
		b.Logger.Debug("block not found", "hash", hash.Hex(), "error", err.Error())
		return nil
	}
	count := hexutil.Uint(block.Count) // #nosec G115
	return &count
}

// rpcBlockFromMirrorBlock assembles the Ethereum block shape from the
// mirror node record and its contract results.
func (b *Backend) rpcBlockFromMirrorBlock(ctx context.Context, block *mirror.Block, fullTx bool) (map[string]interface{}, error) {
	blockHash := ethHashFromMirror(block.Hash)

	var transactions []interface{}
	if block.Count > 0 {
		results, err := b.Mirror.GetContractResultsByTimestampRange(ctx, block.Timestamp.From, block.Timestamp.To)
		if err != nil && !mirror.IsNotFound(err) {
			return nil, rpctypes.NewInternalError(err.Error())
		}
		for _, result := range results {
			// Results that never consumed a nonce are not Ethereum
			// transactions and would break hash-indexed lookups.
			if result.Result == mirror.ResultWrongNonce {
				continue
			}
			if fullTx {
				transactions = append(transactions, b.rpcTransactionFromResult(result, &blockHash))
			} else {
				transactions = append(transactions, common.HexToHash(result.Hash))
			}
		}
	}
	if transactions == nil {
		transactions = []interface{}{}
	}

	return map[string]interface{}{
		"number":           hexutil.Uint64(block.Number), // #nosec G115
		"hash":             blockHash,
		"parentHash":       ethHashFromMirror(block.PreviousHash),
		"nonce":            ethtypes.BlockNonce{},
		"sha3Uncles":       ethtypes.EmptyUncleHash,
		"logsBloom":        bloomFromMirror(block.LogsBloom),
		"stateRoot":        common.Hash{},
		"miner":            blockBeneficiary,
		"mixHash":          common.Hash{},
		"difficulty":       (*hexutil.Big)(common.Big0),
		"totalDifficulty":  (*hexutil.Big)(common.Big0),
		"extraData":        hexutil.Bytes{},
		"size":             hexutil.Uint64(block.Size), // #nosec G115
		"gasLimit":         hexutil.Uint64(defaultBlockGasLimit),
		"gasUsed":          hexutil.Uint64(block.GasUsed), // #nosec G115
		"timestamp":        hexutil.Uint64(secondsOf(block.Timestamp.From)),
		"transactionsRoot": ethtypes.EmptyTxsHash,
		"receiptsRoot":     ethtypes.EmptyReceiptsHash,
		"uncles":           []common.Hash{},
		"transactions":     transactions,
		"withdrawalsRoot":  common.Hash{},
		"withdrawals":      []*ethtypes.Withdrawal{},
		"baseFeePerGas":    (*hexutil.Big)(common.Big0),
	}, nil
}

// ethHashFromMirror truncates the mirror node's 48-byte hashes to the
// Ethereum 32-byte form.
func ethHashFromMirror(hash string) common.Hash {
	trimmed := strings.TrimPrefix(hash, "0x")
	if len(trimmed) > 64 {
		trimmed = trimmed[:64]
	}
	return common.HexToHash("0x" + trimmed)
}

func bloomFromMirror(bloom string) ethtypes.Bloom {
	if bloom == "" || bloom == "0x" {
		return ethtypes.Bloom{}
	}
	raw, err := hexutil.Decode(bloom)
	if err != nil || len(raw) != ethtypes.BloomByteLength {
		return ethtypes.Bloom{}
	}
	return ethtypes.BytesToBloom(raw)
}

// secondsOf extracts the whole-second part of a consensus timestamp.
func secondsOf(timestamp string) uint64 {
	seconds, _, _ := strings.Cut(timestamp, ".")
	parsed, err := strconv.ParseUint(seconds, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
