package tracer

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
	"github.com/hashgraph/json-rpc-relay-go/utils"
)

// Fixed header fields for raw block encoding. The backend has no
// proof-of-work or withdrawal concepts, so those slots carry constants.
var (
	rawBlockBeneficiary = common.HexToAddress("0x0000000000000000000000000000000000000321")
	zeroWithdrawalsRoot = common.Hash{}
)

const defaultBlockGasLimit = 15_000_000

// extblock mirrors go-ethereum's block RLP layout: header, transaction
// list, ommers, withdrawals.
type extblock struct {
	Header      *gethtypes.Header
	Txs         []*gethtypes.Transaction
	Uncles      []*gethtypes.Header
	Withdrawals []*gethtypes.Withdrawal
}

// GetRawBlock RLP-encodes a block the way an Ethereum client would ship
// it over devp2p. An unknown block reference yields the literal "0x".
func (t *Tracer) GetRawBlock(ctx context.Context, blockRef string) (string, error) {
	block, err := t.blockByRef(ctx, blockRef)
	if mirror.IsNotFound(err) {
		return "0x", nil
	}
	if err != nil {
		return "", err
	}

	var txs []*gethtypes.Transaction
	if block.Count > 0 {
		results, err := t.mirror.GetContractResultsByTimestampRange(ctx, block.Timestamp.From, block.Timestamp.To)
		if err != nil && !mirror.IsNotFound(err) {
			return "", err
		}
		for _, result := range results {
			tx, err := t.reconstructTransaction(result)
			if err != nil {
				// Synthetic results carry no signed envelope to rebuild.
				t.logger.Debug("transaction omitted from raw block", "hash", result.Hash, "error", err)
				continue
			}
			txs = append(txs, tx)
		}
	}

	encoded, err := rlp.EncodeToBytes(&extblock{
		Header:      headerFromBlock(block),
		Txs:         txs,
		Uncles:      []*gethtypes.Header{},
		Withdrawals: []*gethtypes.Withdrawal{},
	})
	if err != nil {
		return "", err
	}
	return hexutil.Encode(encoded), nil
}

func headerFromBlock(block *mirror.Block) *gethtypes.Header {
	withdrawalsRoot := zeroWithdrawalsRoot
	return &gethtypes.Header{
		ParentHash:      hashFromMirror(block.PreviousHash),
		UncleHash:       gethtypes.EmptyUncleHash,
		Coinbase:        rawBlockBeneficiary,
		Root:            gethtypes.EmptyRootHash,
		TxHash:          gethtypes.EmptyTxsHash,
		ReceiptHash:     gethtypes.EmptyReceiptsHash,
		Bloom:           bloomFromMirror(block.LogsBloom),
		Difficulty:      new(big.Int),
		Number:          big.NewInt(block.Number),
		GasLimit:        defaultBlockGasLimit,
		GasUsed:         uint64(block.GasUsed), // #nosec G115 -- mirror node gas fits int64
		Time:            secondsOf(block.Timestamp.From),
		MixDigest:       common.Hash{}, // prevRandao
		Nonce:           gethtypes.BlockNonce{},
		BaseFee:         new(big.Int),
		WithdrawalsHash: &withdrawalsRoot,
	}
}

// hashFromMirror truncates the mirror node's 48-byte hashes to the
// Ethereum 32-byte form.
func hashFromMirror(hash string) common.Hash {
	trimmed := strings.TrimPrefix(hash, "0x")
	if len(trimmed) > 64 {
		trimmed = trimmed[:64]
	}
	return common.HexToHash("0x" + trimmed)
}

func bloomFromMirror(bloom string) gethtypes.Bloom {
	if bloom == "" || bloom == "0x" {
		return gethtypes.Bloom{}
	}
	raw, err := hexutil.Decode(bloom)
	if err != nil || len(raw) != gethtypes.BloomByteLength {
		return gethtypes.Bloom{}
	}
	return gethtypes.BytesToBloom(raw)
}

// secondsOf extracts the whole-second part of a consensus timestamp
// ("seconds.nanos").
func secondsOf(timestamp string) uint64 {
	seconds, _, _ := strings.Cut(timestamp, ".")
	parsed, err := strconv.ParseUint(seconds, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// reconstructTransaction rebuilds the signed typed transaction from a
// contract result's detail fields.
func (t *Tracer) reconstructTransaction(result mirror.ContractResult) (*gethtypes.Transaction, error) {
	if result.Type == nil {
		return nil, errNoEnvelope
	}
	value := new(big.Int).Mul(big.NewInt(result.Amount), utils.TinybarToWeibarCoef)
	data, err := hexutil.Decode(emptyHexIfBlank(result.FunctionParameters))
	if err != nil {
		return nil, errors.Wrap(err, "decoding call data")
	}
	gas := uint64(result.GasLimit) // #nosec G115

	var to *common.Address
	if result.To != "" {
		addr := common.HexToAddress(result.To)
		to = &addr
	}

	r, err := bigFromHex(result.R)
	if err != nil {
		return nil, err
	}
	s, err := bigFromHex(result.S)
	if err != nil {
		return nil, err
	}
	var v *big.Int
	if result.V != nil {
		v = big.NewInt(*result.V)
	} else {
		v = new(big.Int)
	}

	switch *result.Type {
	case 0:
		gasPrice, err := bigFromHex(result.GasPrice)
		if err != nil {
			return nil, err
		}
		return gethtypes.NewTx(&gethtypes.LegacyTx{
			Nonce: result.Nonce, GasPrice: gasPrice, Gas: gas,
			To: to, Value: value, Data: data, V: v, R: r, S: s,
		}), nil
	case 1:
		gasPrice, err := bigFromHex(result.GasPrice)
		if err != nil {
			return nil, err
		}
		return gethtypes.NewTx(&gethtypes.AccessListTx{
			ChainID: t.chainID, Nonce: result.Nonce, GasPrice: gasPrice, Gas: gas,
			To: to, Value: value, Data: data, V: v, R: r, S: s,
		}), nil
	case 2:
		maxFee, err := bigFromHex(result.MaxFeePerGas)
		if err != nil {
			return nil, err
		}
		tip, err := bigFromHex(result.MaxPriorityFeePerGas)
		if err != nil {
			return nil, err
		}
		return gethtypes.NewTx(&gethtypes.DynamicFeeTx{
			ChainID: t.chainID, Nonce: result.Nonce, GasTipCap: tip, GasFeeCap: maxFee, Gas: gas,
			To: to, Value: value, Data: data, V: v, R: r, S: s,
		}), nil
	default:
		return nil, errNoEnvelope
	}
}

var errNoEnvelope = errors.New("result carries no signed envelope")

// bigFromHex parses a mirror node hex quantity. Values arrive zero
// padded, which hexutil.DecodeBig rejects, so parse via raw bytes.
func bigFromHex(value string) (*big.Int, error) {
	if value == "" || value == "0x" {
		return new(big.Int), nil
	}
	raw, err := hexutil.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing quantity %q", value)
	}
	return new(big.Int).SetBytes(raw), nil
}
