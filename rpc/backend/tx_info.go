package backend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/utils"
)

// GetTransactionByHash returns the Ethereum format transaction identified by
// hash. Committed transactions come from the mirror node; transactions still
// in flight are served from the pending pool with null block fields.
func (b *Backend) GetTransactionByHash(ctx context.Context, txHash common.Hash) (*rpctypes.RPCTransaction, error) {
	result, err := b.Mirror.GetContractResult(ctx, txHash.Hex())
	if err == nil {
		return b.rpcTransactionFromResult(*result, nil), nil
	}
	if !mirror.IsNotFound(err) {
		return nil, rpctypes.NewInternalError(err.Error())
	}

	if b.Pool != nil {
		for _, entry := range b.Pool.All() {
			if entry.Tx.Hash() == txHash {
				return rpctypes.NewRPCTransactionFromTx(entry.Tx, entry.Sender, nil, 0, 0,
					(*hexutil.Big)(b.Cfg.ChainID)), nil
			}
		}
	}
	return nil, nil
}

// GetTransactionByBlockNumberAndIndex returns the transaction at the given
// index within the block identified by number.
func (b *Backend) GetTransactionByBlockNumberAndIndex(ctx context.Context, blockNum rpctypes.BlockNumber, idx hexutil.Uint) (*rpctypes.RPCTransaction, error) {
	block, err := b.resolveBlock(ctx, blockNum)
	if err != nil {
		if mirror.IsNotFound(err) {
			return nil, nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return b.transactionAtIndex(ctx, block, idx)
}

// GetTransactionByBlockHashAndIndex returns the transaction at the given
// index within the block identified by hash.
func (b *Backend) GetTransactionByBlockHashAndIndex(ctx context.Context, hash common.Hash, idx hexutil.Uint) (*rpctypes.RPCTransaction, error) {
	block, err := b.Mirror.GetBlock(ctx, hash.Hex())
	if err != nil {
		if mirror.IsNotFound(err) {
			return nil, nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return b.transactionAtIndex(ctx, block, idx)
}

func (b *Backend) transactionAtIndex(ctx context.Context, block *mirror.Block, idx hexutil.Uint) (*rpctypes.RPCTransaction, error) {
	results, err := b.Mirror.GetContractResultsByTimestampRange(ctx, block.Timestamp.From, block.Timestamp.To)
	if err != nil {
		if mirror.IsNotFound(err) {
			return nil, nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}
	for _, result := range results {
		if result.Result == mirror.ResultWrongNonce {
			continue
		}
		if result.TransactionIndex == int64(idx) { // #nosec G115
			return b.rpcTransactionFromResult(result, nil), nil
		}
	}
	return nil, nil
}

// GetTransactionReceipt returns the receipt of a committed transaction, or
// nil when the transaction is unknown or still pending.
func (b *Backend) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (map[string]interface{}, error) {
	result, err := b.Mirror.GetContractResult(ctx, txHash.Hex())
	if err != nil {
		if mirror.IsNotFound(err) {
			return nil, nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}

	logs, err := b.Mirror.GetLogsByTransactionHash(ctx, txHash.Hex())
	if err != nil && !mirror.IsNotFound(err) {
		return nil, rpctypes.NewInternalError(err.Error())
	}

	blockHash := ethHashFromMirror(result.BlockHash)
	blockNumber := big.NewInt(result.BlockNumber)
	txIndex := hexutil.Uint64(result.TransactionIndex) // #nosec G115

	status := hexutil.Uint(0)
	if result.Result == mirror.ResultSuccess {
		status = hexutil.Uint(1)
	}

	var to *common.Address
	if result.To != "" {
		addr := common.HexToAddress(result.To)
		to = &addr
	}

	// A creation call has no destination; the deployed address is reported
	// as contractAddress instead.
	var contractAddress *common.Address
	if result.To == "" && result.Address != "" {
		addr := common.HexToAddress(result.Address)
		contractAddress = &addr
	}

	rpcLogs := make([]map[string]interface{}, 0, len(logs))
	for _, l := range logs {
		topics := make([]common.Hash, 0, len(l.Topics))
		for _, topic := range l.Topics {
			topics = append(topics, common.HexToHash(topic))
		}
		rpcLogs = append(rpcLogs, map[string]interface{}{
			"address":          common.HexToAddress(l.Address),
			"topics":           topics,
			"data":             hexBytesOrEmpty(l.Data),
			"blockNumber":      hexutil.Uint64(l.BlockNumber), // #nosec G115
			"transactionHash":  txHash,
			"transactionIndex": txIndex,
			"blockHash":        blockHash,
			"logIndex":         hexutil.Uint64(l.Index), // #nosec G115
			"removed":          false,
		})
	}

	txType := uint64(0)
	if result.Type != nil {
		txType = uint64(*result.Type) // #nosec G115
	}

	return map[string]interface{}{
		"transactionHash":   txHash,
		"transactionIndex":  txIndex,
		"blockHash":         blockHash,
		"blockNumber":       (*hexutil.Big)(blockNumber),
		"from":              common.HexToAddress(result.From),
		"to":                to,
		"gasUsed":           hexutil.Uint64(result.GasUsed),     // #nosec G115
		"cumulativeGasUsed": hexutil.Uint64(result.GasConsumed), // #nosec G115
		"contractAddress":   contractAddress,
		"logs":              rpcLogs,
		"logsBloom":         ethtypes.Bloom{},
		"status":            status,
		"effectiveGasPrice": (*hexutil.Big)(weibarFromHex(result.GasPrice)),
		"type":              hexutil.Uint64(txType),
	}, nil
}

// rpcTransactionFromResult maps a mirror node contract result onto the
// Ethereum transaction shape. blockHash overrides the result's own block
// reference when the caller already resolved the block.
func (b *Backend) rpcTransactionFromResult(result mirror.ContractResult, blockHash *common.Hash) *rpctypes.RPCTransaction {
	var to *common.Address
	if result.To != "" {
		addr := common.HexToAddress(result.To)
		to = &addr
	}

	txType := uint64(0)
	if result.Type != nil {
		txType = uint64(*result.Type) // #nosec G115
	}

	v := new(big.Int)
	if result.V != nil {
		v.SetInt64(*result.V)
	}

	value := new(big.Int).Mul(big.NewInt(result.Amount), utils.TinybarToWeibarCoef)

	rpcTx := &rpctypes.RPCTransaction{
		Type:     hexutil.Uint64(txType),
		From:     common.HexToAddress(result.From),
		Gas:      hexutil.Uint64(result.GasLimit), // #nosec G115
		GasPrice: (*hexutil.Big)(weibarFromHex(result.GasPrice)),
		Hash:     common.HexToHash(result.Hash),
		Input:    hexBytesOrEmpty(result.FunctionParameters),
		Nonce:    hexutil.Uint64(result.Nonce),
		To:       to,
		Value:    (*hexutil.Big)(value),
		V:        (*hexutil.Big)(v),
		R:        (*hexutil.Big)(bigFromPaddedHex(result.R)),
		S:        (*hexutil.Big)(bigFromPaddedHex(result.S)),
		ChainID:  (*hexutil.Big)(b.Cfg.ChainID),
	}

	if txType == uint64(ethtypes.DynamicFeeTxType) {
		rpcTx.GasFeeCap = (*hexutil.Big)(weibarFromHex(result.MaxFeePerGas))
		rpcTx.GasTipCap = (*hexutil.Big)(weibarFromHex(result.MaxPriorityFeePerGas))
		rpcTx.GasPrice = rpcTx.GasFeeCap
	}

	if blockHash == nil && result.BlockHash != "" {
		trimmed := ethHashFromMirror(result.BlockHash)
		blockHash = &trimmed
	}
	if blockHash != nil {
		rpcTx.BlockHash = blockHash
		rpcTx.BlockNumber = (*hexutil.Big)(big.NewInt(result.BlockNumber))
		idx := hexutil.Uint64(result.TransactionIndex) // #nosec G115
		rpcTx.TransactionIndex = &idx
	}
	return rpcTx
}

// weibarFromHex converts a tinybar-denominated hex quantity from the mirror
// node into weibar.
func weibarFromHex(value string) *big.Int {
	return new(big.Int).Mul(bigFromPaddedHex(value), utils.TinybarToWeibarCoef)
}

// bigFromPaddedHex tolerates the zero-padded hex quantities the mirror node
// emits, which hexutil.DecodeBig rejects.
func bigFromPaddedHex(value string) *big.Int {
	if value == "" || value == "0x" {
		return new(big.Int)
	}
	raw, err := hexutil.Decode(value)
	if err != nil {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(raw)
}

func hexBytesOrEmpty(value string) hexutil.Bytes {
	if value == "" || value == "0x" {
		return hexutil.Bytes{}
	}
	raw, err := hexutil.Decode(value)
	if err != nil {
		return hexutil.Bytes{}
	}
	return raw
}
