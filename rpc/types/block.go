package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockNumber is an inbound block reference: a height or a named tag.
type BlockNumber int64

const (
	EthSafeBlockNumber      = BlockNumber(-4)
	EthFinalizedBlockNumber = BlockNumber(-3)
	EthPendingBlockNumber   = BlockNumber(-2)
	EthLatestBlockNumber    = BlockNumber(-1)
	EthEarliestBlockNumber  = BlockNumber(0)
)

// UnmarshalJSON parses either a hex quantity or one of the named tags.
func (bn *BlockNumber) UnmarshalJSON(data []byte) error {
	input := strings.TrimSpace(strings.Trim(string(data), `"`))

	switch input {
	case "earliest":
		*bn = EthEarliestBlockNumber
		return nil
	case "latest":
		*bn = EthLatestBlockNumber
		return nil
	case "pending":
		*bn = EthPendingBlockNumber
		return nil
	case "finalized":
		*bn = EthFinalizedBlockNumber
		return nil
	case "safe":
		*bn = EthSafeBlockNumber
		return nil
	}

	n, err := hexutil.DecodeUint64(input)
	if err != nil {
		return fmt.Errorf("invalid block number %q: %w", input, err)
	}
	if n > uint64(1<<62) {
		return fmt.Errorf("block number %d out of range", n)
	}
	*bn = BlockNumber(n) // #nosec G115 -- bounds checked above
	return nil
}

// MarshalJSON renders the block number as hex, or the tag name.
func (bn BlockNumber) MarshalJSON() ([]byte, error) {
	if tag, ok := bn.Tag(); ok {
		return json.Marshal(tag)
	}
	return json.Marshal(hexutil.Uint64(bn)) // #nosec G115 -- non-tag values are non-negative
}

// Tag returns the symbolic name for tag values.
func (bn BlockNumber) Tag() (string, bool) {
	switch bn {
	case EthLatestBlockNumber:
		return "latest", true
	case EthPendingBlockNumber:
		return "pending", true
	case EthFinalizedBlockNumber:
		return "finalized", true
	case EthSafeBlockNumber:
		return "safe", true
	}
	return "", false
}

// IsLatestish reports whether the reference names the chain head. The
// mirror node has no pending state, so pending resolves to latest too.
func (bn BlockNumber) IsLatestish() bool {
	_, ok := bn.Tag()
	return ok
}

// Int64 converts the block number, mapping all head tags to -1.
func (bn BlockNumber) Int64() int64 {
	if bn.IsLatestish() {
		return -1
	}
	return int64(bn)
}

// MirrorRef renders the reference the way the mirror node block endpoint
// expects: a decimal height for concrete numbers.
func (bn BlockNumber) MirrorRef() string {
	if bn.IsLatestish() {
		return "latest"
	}
	return strconv.FormatInt(int64(bn), 10)
}

// BlockNumberFromBig clamps a big height into a BlockNumber.
func BlockNumberFromBig(n *big.Int) BlockNumber {
	if n == nil || !n.IsInt64() {
		return EthLatestBlockNumber
	}
	return BlockNumber(n.Int64())
}
