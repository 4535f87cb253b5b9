package backend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/utils"
)

// GetBalance returns the provided account's balance in weibar. Unknown
// accounts report zero rather than an error, matching Ethereum node
// behavior.
func (b *Backend) GetBalance(ctx context.Context, addr common.Address, blockNum rpctypes.BlockNumber) (*hexutil.Big, error) {
	account, err := b.Mirror.GetAccount(ctx, addr.Hex())
	if err != nil {
		if mirror.IsNotFound(err) {
			return (*hexutil.Big)(new(big.Int)), nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}

	tinybar := account.Balance.Balance
	if !blockNum.IsLatestish() {
		block, err := b.resolveBlock(ctx, blockNum)
		if err != nil {
			if mirror.IsNotFound(err) {
				return (*hexutil.Big)(new(big.Int)), nil
			}
			return nil, rpctypes.NewInternalError(err.Error())
		}
		tinybar, err = b.Mirror.GetBalanceAt(ctx, account.Account, block.Timestamp.To)
		if err != nil {
			if mirror.IsNotFound(err) {
				return (*hexutil.Big)(new(big.Int)), nil
			}
			return nil, rpctypes.NewInternalError(err.Error())
		}
	}

	weibar, err := utils.TinybarToWeibar(big.NewInt(tinybar))
	if err != nil {
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return (*hexutil.Big)(weibar), nil
}

// GetTransactionCount returns the account's Ethereum nonce. The pending tag
// additionally counts transactions still held in the pool.
func (b *Backend) GetTransactionCount(ctx context.Context, addr common.Address, blockNum rpctypes.BlockNumber) (*hexutil.Uint64, error) {
	nonce := uint64(0)
	account, err := b.Mirror.GetAccount(ctx, addr.Hex())
	if err == nil {
		nonce = account.EthereumNonce
	} else if !mirror.IsNotFound(err) {
		return nil, rpctypes.NewInternalError(err.Error())
	}

	if blockNum == rpctypes.EthPendingBlockNumber && b.Pool != nil {
		for _, entry := range b.Pool.ContentFrom(addr) {
			if next := entry.Tx.Nonce() + 1; next > nonce {
				nonce = next
			}
		}
	}

	result := hexutil.Uint64(nonce)
	return &result, nil
}

// GetCode returns the runtime bytecode deployed at the address. Plain
// accounts and unknown addresses report empty code.
func (b *Backend) GetCode(ctx context.Context, addr common.Address, _ rpctypes.BlockNumber) (hexutil.Bytes, error) {
	contract, err := b.Mirror.GetContract(ctx, addr.Hex())
	if err != nil {
		if mirror.IsNotFound(err) {
			return hexutil.Bytes{}, nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return hexBytesOrEmpty(contract.RuntimeBytecode), nil
}

// GetStorageAt returns a contract storage slot. Unknown contracts and unset
// slots report the zero word.
func (b *Backend) GetStorageAt(ctx context.Context, addr common.Address, key string, blockNum rpctypes.BlockNumber) (hexutil.Bytes, error) {
	timestamp := ""
	if !blockNum.IsLatestish() {
		block, err := b.resolveBlock(ctx, blockNum)
		if err != nil {
			if mirror.IsNotFound(err) {
				return common.Hash{}.Bytes(), nil
			}
			return nil, rpctypes.NewInternalError(err.Error())
		}
		timestamp = block.Timestamp.To
	}

	entries, err := b.Mirror.GetContractStateAt(ctx, addr.Hex(), timestamp)
	if err != nil {
		if mirror.IsNotFound(err) {
			return common.Hash{}.Bytes(), nil
		}
		return nil, rpctypes.NewInternalError(err.Error())
	}

	slot := common.HexToHash(key)
	for _, entry := range entries {
		if common.HexToHash(entry.Slot) == slot {
			return common.HexToHash(entry.Value).Bytes(), nil
		}
	}
	return common.Hash{}.Bytes(), nil
}
