package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// RPCTransaction represents a transaction shaped for the Ethereum RPC
// surface, regardless of which backend dataset it was assembled from.
type RPCTransaction struct {
	BlockHash        *common.Hash         `json:"blockHash"`
	BlockNumber      *hexutil.Big         `json:"blockNumber"`
	From             common.Address       `json:"from"`
	Gas              hexutil.Uint64       `json:"gas"`
	GasPrice         *hexutil.Big         `json:"gasPrice"`
	GasFeeCap        *hexutil.Big         `json:"maxFeePerGas,omitempty"`
	GasTipCap        *hexutil.Big         `json:"maxPriorityFeePerGas,omitempty"`
	Hash             common.Hash          `json:"hash"`
	Input            hexutil.Bytes        `json:"input"`
	Nonce            hexutil.Uint64       `json:"nonce"`
	To               *common.Address      `json:"to"`
	TransactionIndex *hexutil.Uint64      `json:"transactionIndex"`
	Value            *hexutil.Big         `json:"value"`
	Type             hexutil.Uint64       `json:"type"`
	Accesses         *ethtypes.AccessList `json:"accessList,omitempty"`
	ChainID          *hexutil.Big         `json:"chainId,omitempty"`
	V                *hexutil.Big         `json:"v"`
	R                *hexutil.Big         `json:"r"`
	S                *hexutil.Big         `json:"s"`
}

// NewRPCTransactionFromTx converts a decoded envelope into the RPC shape.
// Zero block values mean the transaction is not in a block yet.
func NewRPCTransactionFromTx(tx *ethtypes.Transaction, from common.Address, blockHash *common.Hash, blockNumber, index uint64, chainID *hexutil.Big) *RPCTransaction {
	v, r, s := tx.RawSignatureValues()
	rpcTx := &RPCTransaction{
		Type:     hexutil.Uint64(tx.Type()),
		From:     from,
		Gas:      hexutil.Uint64(tx.Gas()),
		GasPrice: (*hexutil.Big)(tx.GasPrice()),
		Hash:     tx.Hash(),
		Input:    hexutil.Bytes(tx.Data()),
		Nonce:    hexutil.Uint64(tx.Nonce()),
		To:       tx.To(),
		Value:    (*hexutil.Big)(tx.Value()),
		V:        (*hexutil.Big)(v),
		R:        (*hexutil.Big)(r),
		S:        (*hexutil.Big)(s),
		ChainID:  chainID,
	}

	switch tx.Type() {
	case ethtypes.AccessListTxType:
		al := tx.AccessList()
		rpcTx.Accesses = &al
		rpcTx.ChainID = (*hexutil.Big)(tx.ChainId())
	case ethtypes.DynamicFeeTxType:
		al := tx.AccessList()
		rpcTx.Accesses = &al
		rpcTx.ChainID = (*hexutil.Big)(tx.ChainId())
		rpcTx.GasFeeCap = (*hexutil.Big)(tx.GasFeeCap())
		rpcTx.GasTipCap = (*hexutil.Big)(tx.GasTipCap())
		rpcTx.GasPrice = (*hexutil.Big)(tx.GasFeeCap())
	}

	if blockHash != nil {
		rpcTx.BlockHash = blockHash
		rpcTx.BlockNumber = (*hexutil.Big)(new(big.Int).SetUint64(blockNumber))
		idx := hexutil.Uint64(index)
		rpcTx.TransactionIndex = &idx
	}

	return rpcTx
}
