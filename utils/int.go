package utils

import (
	"fmt"
	"math/big"
)

const maxBitLen = 256

// SafeUint64 checks for underflows while casting an int64 to uint64 value.
func SafeUint64(value int64) (uint64, error) {
	if value < 0 {
		return 0, fmt.Errorf("invalid value: %d", value)
	}
	return uint64(value), nil
}

// IsValidInt256 check the bound of 256 bit number
func IsValidInt256(i *big.Int) bool {
	return i == nil || i.BitLen() <= maxBitLen
}
