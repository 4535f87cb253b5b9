package backend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
)

// feeHistoryMaxBlocks caps how far back eth_feeHistory will report.
const feeHistoryMaxBlocks = 10

// FeeHistoryResult is the shape eth_feeHistory returns, matching
// go-ethereum's definition.
type FeeHistoryResult struct {
	OldestBlock  *hexutil.Big     `json:"oldestBlock"`
	Reward       [][]*hexutil.Big `json:"reward,omitempty"`
	BaseFee      []*hexutil.Big   `json:"baseFeePerGas,omitempty"`
	GasUsedRatio []float64        `json:"gasUsedRatio"`
}

// GasPrice returns the network minimum gas price in weibar. The network
// charges a flat per-gas fee, so this is also the effective price.
func (b *Backend) GasPrice(ctx context.Context) (*hexutil.Big, error) {
	price, err := b.minGasPrice(ctx)
	if err != nil {
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return (*hexutil.Big)(price), nil
}

// MaxPriorityFeePerGas returns zero: there is no priority auction, tips buy
// nothing.
func (b *Backend) MaxPriorityFeePerGas(_ context.Context) *hexutil.Big {
	return (*hexutil.Big)(new(big.Int))
}

// Syncing always reports false; the relay serves whatever the mirror node
// has and has no sync phase of its own.
func (b *Backend) Syncing() (interface{}, error) {
	return false, nil
}

// FeeHistory reports a flat fee landscape: a zero base fee and the network
// gas price as the reward at every percentile.
func (b *Backend) FeeHistory(ctx context.Context, blockCount uint64, lastBlock rpctypes.BlockNumber, rewardPercentiles []float64) (*FeeHistoryResult, error) {
	if blockCount == 0 {
		return &FeeHistoryResult{OldestBlock: (*hexutil.Big)(new(big.Int))}, nil
	}
	if blockCount > feeHistoryMaxBlocks {
		blockCount = feeHistoryMaxBlocks
	}

	block, err := b.resolveBlock(ctx, lastBlock)
	if err != nil {
		return nil, rpctypes.NewInternalError(err.Error())
	}
	newest := block.Number
	if uint64(newest)+1 < blockCount { // #nosec G115 -- block heights are non-negative
		blockCount = uint64(newest) + 1 // #nosec G115
	}
	oldest := uint64(newest) + 1 - blockCount // #nosec G115

	price, err := b.minGasPrice(ctx)
	if err != nil {
		return nil, rpctypes.NewInternalError(err.Error())
	}

	result := &FeeHistoryResult{
		OldestBlock:  (*hexutil.Big)(new(big.Int).SetUint64(oldest)),
		BaseFee:      make([]*hexutil.Big, blockCount+1),
		GasUsedRatio: make([]float64, blockCount),
	}
	for i := range result.BaseFee {
		result.BaseFee[i] = (*hexutil.Big)(new(big.Int))
	}
	if len(rewardPercentiles) > 0 {
		result.Reward = make([][]*hexutil.Big, blockCount)
		for i := range result.Reward {
			rewards := make([]*hexutil.Big, len(rewardPercentiles))
			for j := range rewards {
				rewards[j] = (*hexutil.Big)(price)
			}
			result.Reward[i] = rewards
		}
	}
	return result, nil
}
