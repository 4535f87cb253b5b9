package utils

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// The network denominates balances and fees in tinybar while the Ethereum
// surface speaks weibar. The two differ by a fixed factor of 10^10.
var (
	// TinybarToWeibarCoef is the number of weibar in one tinybar.
	TinybarToWeibarCoef = big.NewInt(10_000_000_000)

	// TotalSupplyTinybars is the fixed total coin supply, in tinybar.
	TotalSupplyTinybars = big.NewInt(5_000_000_000_000_000_000)
)

// TinybarToWeibar converts a tinybar amount to weibar. Amounts above the
// total supply cannot come from the network and are rejected.
func TinybarToWeibar(tinybar *big.Int) (*big.Int, error) {
	if tinybar == nil {
		return nil, fmt.Errorf("tinybar amount is nil")
	}
	if tinybar.Sign() < 0 {
		return nil, fmt.Errorf("tinybar amount is negative: %s", tinybar)
	}
	if tinybar.Cmp(TotalSupplyTinybars) > 0 {
		return nil, fmt.Errorf("tinybar amount %s exceeds total supply", tinybar)
	}
	return new(big.Int).Mul(tinybar, TinybarToWeibarCoef), nil
}

// WeibarToTinybar converts a weibar amount to tinybar. Any non-zero
// fractional remainder rounds up to the smallest unit, so dust transfers
// are never silently dropped to zero.
func WeibarToTinybar(weibar *big.Int) (*big.Int, error) {
	if weibar == nil {
		return nil, fmt.Errorf("weibar amount is nil")
	}
	if weibar.Sign() < 0 {
		return nil, fmt.Errorf("weibar amount is negative: %s", weibar)
	}
	quo, rem := new(big.Int).QuoRem(weibar, TinybarToWeibarCoef, new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo, nil
}

// WeibarHexToTinybar converts a 0x-prefixed weibar quantity to tinybar.
func WeibarHexToTinybar(value string) (*big.Int, error) {
	weibar, err := hexutil.DecodeBig(value)
	if err != nil {
		return nil, fmt.Errorf("invalid weibar quantity %q: %w", value, err)
	}
	return WeibarToTinybar(weibar)
}

// ASCIIToHex encodes s as a 0x-prefixed hex string.
func ASCIIToHex(s string) string {
	return "0x" + hex.EncodeToString([]byte(s))
}

// HexToASCII decodes a 0x-prefixed hex string back to text.
func HexToASCII(s string) (string, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// revertSelector is the 4-byte selector of Error(string).
var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// DecodeRevertReason extracts the human readable message from an
// ABI-encoded Error(string) revert payload. Payloads that do not carry the
// Error(string) selector are returned unchanged so callers can still
// surface the raw bytes.
func DecodeRevertReason(output string) string {
	if output == "" || output == "0x" {
		return ""
	}
	data, err := hexutil.Decode(output)
	if err != nil || len(data) < 4 {
		return output
	}
	if !bytes.Equal(data[:4], revertSelector) {
		return output
	}
	payload := data[4:]
	// offset (32) + length (32) + string bytes
	if len(payload) < 64 {
		return output
	}
	offset := new(big.Int).SetBytes(payload[:32]).Uint64()
	if offset+32 > uint64(len(payload)) {
		return output
	}
	strLen := new(big.Int).SetBytes(payload[offset : offset+32]).Uint64()
	if offset+32+strLen > uint64(len(payload)) {
		return output
	}
	return string(payload[offset+32 : offset+32+strLen])
}

// IsZeroAddress reports whether addr is the all-zero address.
func IsZeroAddress(addr common.Address) bool {
	return addr == common.Address{}
}
