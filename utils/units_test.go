package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTinybarToWeibar(t *testing.T) {
	testCases := []struct {
		name    string
		tinybar *big.Int
		expWei  *big.Int
		expErr  bool
	}{
		{"zero", big.NewInt(0), big.NewInt(0), false},
		{"one tinybar", big.NewInt(1), big.NewInt(10_000_000_000), false},
		{"total supply", TotalSupplyTinybars, new(big.Int).Mul(TotalSupplyTinybars, TinybarToWeibarCoef), false},
		{"over total supply", new(big.Int).Add(TotalSupplyTinybars, big.NewInt(1)), nil, true},
		{"negative", big.NewInt(-1), nil, true},
		{"nil", nil, nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TinybarToWeibar(tc.tinybar)
			if tc.expErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Zero(t, tc.expWei.Cmp(got))
		})
	}
}

func TestWeibarToTinybarRoundsUp(t *testing.T) {
	testCases := []struct {
		name   string
		weibar *big.Int
		exp    int64
	}{
		{"zero stays zero", big.NewInt(0), 0},
		{"dust rounds up", big.NewInt(5), 1},
		{"exact boundary", big.NewInt(10_000_000_000), 1},
		{"boundary plus dust", big.NewInt(10_000_000_001), 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WeibarToTinybar(tc.weibar)
			require.NoError(t, err)
			require.Equal(t, tc.exp, got.Int64())
		})
	}
}

func TestWeibarHexToTinybar(t *testing.T) {
	got, err := WeibarHexToTinybar("0x5")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Int64())

	_, err = WeibarHexToTinybar("not-hex")
	require.Error(t, err)
}

func TestHexASCIIRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "Set to revert", "special chars: \t\n"} {
		enc := ASCIIToHex(s)
		dec, err := HexToASCII(enc)
		require.NoError(t, err)
		require.Equal(t, s, dec)
	}
}

func TestDecodeRevertReason(t *testing.T) {
	// Error("Set to revert") as emitted by solc
	payload := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"000000000000000000000000000000000000000000000000000000000000000d" +
		"53657420746f207265766572740000000000000000000000000000000000000000"

	require.Equal(t, "Set to revert", DecodeRevertReason(payload))
	require.Equal(t, "", DecodeRevertReason("0x"))
	require.Equal(t, "", DecodeRevertReason(""))
	// non Error(string) payloads pass through untouched
	require.Equal(t, "0xdeadbeef", DecodeRevertReason("0xdeadbeef"))
}
