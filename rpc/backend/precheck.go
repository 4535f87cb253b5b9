package backend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/utils"
)

// parseRawTransaction decodes a signed envelope and recovers its sender.
// Blob transactions are rejected before anything else looks at them.
func (b *Backend) parseRawTransaction(raw []byte) (*ethtypes.Transaction, common.Address, error) {
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, common.Address{}, rpctypes.NewInvalidArgumentsError(err.Error())
	}
	if tx.Type() == ethtypes.BlobTxType {
		return nil, common.Address{}, rpctypes.NewUnsupportedTransactionType3Error()
	}
	if tx.Type() > ethtypes.DynamicFeeTxType {
		return nil, common.Address{}, rpctypes.NewInvalidArgumentsError("unsupported transaction type")
	}

	signer := ethtypes.LatestSignerForChainID(b.Cfg.ChainID)
	sender, err := ethtypes.Sender(signer, tx)
	if err != nil {
		return nil, common.Address{}, rpctypes.NewInvalidArgumentsError("failed to recover sender: " + err.Error())
	}
	return tx, sender, nil
}

// effectiveGasPrice is the weibar price the submission bids.
func effectiveGasPrice(tx *ethtypes.Transaction) *big.Int {
	if tx.Type() == ethtypes.DynamicFeeTxType {
		return tx.GasFeeCap()
	}
	return tx.GasPrice()
}

// precheck runs the pre-submission validations in their fixed order. Each
// failure is terminal and maps to one error kind.
func (b *Backend) precheck(ctx context.Context, tx *ethtypes.Transaction, sender common.Address) error {
	if tx.Protected() && tx.ChainId().Cmp(b.Cfg.ChainID) != 0 {
		return rpctypes.NewInvalidArgumentsError(
			"ChainId " + tx.ChainId().String() + " does not match the configured chain id " + b.Cfg.ChainID.String())
	}

	if tx.Gas() > b.Cfg.GasLimitCap {
		return rpctypes.NewGasLimitTooHighError(tx.Gas(), b.Cfg.GasLimitCap)
	}

	if !utils.IsValidInt256(tx.Value()) || !utils.IsValidInt256(tx.GasPrice()) {
		return rpctypes.NewInvalidArgumentsError("value out of 256-bit range")
	}

	if tx.Value().Sign() != 0 && tx.Value().Cmp(utils.TinybarToWeibarCoef) < 0 {
		return rpctypes.NewValueBelowTinybarError()
	}

	gasPrice := effectiveGasPrice(tx)
	minimum, err := b.minGasPrice(ctx)
	if err != nil {
		b.Logger.Error("network minimum gas price unavailable, skipping price check", "error", err)
	} else if gasPrice.Cmp(minimum) < 0 {
		return rpctypes.NewGasPriceBelowMinimumError(gasPrice.String(), minimum.String())
	}

	account, err := b.Mirror.GetAccount(ctx, sender.Hex())
	if err != nil {
		if mirror.IsNotFound(err) {
			return rpctypes.NewInsufficientFundsError(sender.Hex())
		}
		return rpctypes.NewInternalError(err.Error())
	}

	balanceWeibar, err := utils.TinybarToWeibar(big.NewInt(account.Balance.Balance))
	if err != nil {
		return rpctypes.NewInternalError(err.Error())
	}
	required := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(tx.Gas()))
	required.Add(required, tx.Value())
	if balanceWeibar.Cmp(required) < 0 {
		return rpctypes.NewInsufficientFundsError(sender.Hex())
	}

	if tx.Nonce() < account.EthereumNonce {
		return rpctypes.NewNonceTooLowError(tx.Nonce(), account.EthereumNonce)
	}
	return nil
}

// minGasPrice derives the network's minimum gas price in weibar from the
// mirror node fee schedule.
func (b *Backend) minGasPrice(ctx context.Context) (*big.Int, error) {
	fees, err := b.Mirror.GetNetworkFees(ctx)
	if err != nil {
		return nil, err
	}
	for _, fee := range fees.Fees {
		if fee.TransactionType == "EthereumTransaction" {
			return new(big.Int).Mul(big.NewInt(fee.Gas), utils.TinybarToWeibarCoef), nil
		}
	}
	return new(big.Int), nil
}
