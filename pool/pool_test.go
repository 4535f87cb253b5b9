package pool

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"
)

func legacyTx(nonce uint64, gasPrice int64) *ethtypes.Transaction {
	to := common.HexToAddress("0x000000000000000000000000000000000000acc1")
	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(gasPrice),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(1),
	})
}

func dynamicTx(nonce uint64, feeCap int64) *ethtypes.Transaction {
	to := common.HexToAddress("0x000000000000000000000000000000000000acc1")
	return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   big.NewInt(298),
		Nonce:     nonce,
		GasFeeCap: big.NewInt(feeCap),
		GasTipCap: big.NewInt(1),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	})
}

func TestPoolAdmitSingleEntryPerSenderNonce(t *testing.T) {
	p := NewPendingPool(log.NewNopLogger())
	sender := common.HexToAddress("0xabc0000000000000000000000000000000000001")

	require.NoError(t, p.Admit(&Entry{Sender: sender, Tx: legacyTx(0, 100), SubmittedAt: time.Now()}))
	require.Equal(t, 1, p.Len())

	// same price is rejected as already known
	err := p.Admit(&Entry{Sender: sender, Tx: legacyTx(0, 100), SubmittedAt: time.Now()})
	require.ErrorIs(t, err, ErrAlreadyKnown)

	// lower price is rejected
	err = p.Admit(&Entry{Sender: sender, Tx: legacyTx(0, 50), SubmittedAt: time.Now()})
	require.ErrorIs(t, err, ErrAlreadyKnown)
	require.Equal(t, 1, p.Len())
}

func TestPoolReplaceByHigherPrice(t *testing.T) {
	p := NewPendingPool(log.NewNopLogger())
	sender := common.HexToAddress("0xabc0000000000000000000000000000000000001")

	first := legacyTx(0, 100)
	second := legacyTx(0, 200)
	require.NoError(t, p.Admit(&Entry{Sender: sender, Tx: first}))
	require.NoError(t, p.Admit(&Entry{Sender: sender, Tx: second}))

	require.Equal(t, 1, p.Len())
	got, ok := p.Get(sender, 0)
	require.True(t, ok)
	require.Equal(t, second.Hash(), got.Tx.Hash())
}

func TestPoolDynamicFeeUsesFeeCap(t *testing.T) {
	p := NewPendingPool(log.NewNopLogger())
	sender := common.HexToAddress("0xabc0000000000000000000000000000000000002")

	require.NoError(t, p.Admit(&Entry{Sender: sender, Tx: dynamicTx(3, 100)}))
	require.NoError(t, p.Admit(&Entry{Sender: sender, Tx: dynamicTx(3, 150)}))
	err := p.Admit(&Entry{Sender: sender, Tx: dynamicTx(3, 120)})
	require.ErrorIs(t, err, ErrAlreadyKnown)
}

func TestPoolDistinctSendersAndNonces(t *testing.T) {
	p := NewPendingPool(log.NewNopLogger())
	s1 := common.HexToAddress("0xabc0000000000000000000000000000000000001")
	s2 := common.HexToAddress("0xabc0000000000000000000000000000000000002")

	require.NoError(t, p.Admit(&Entry{Sender: s1, Tx: legacyTx(0, 100)}))
	require.NoError(t, p.Admit(&Entry{Sender: s1, Tx: legacyTx(1, 100)}))
	require.NoError(t, p.Admit(&Entry{Sender: s2, Tx: legacyTx(0, 100)}))

	require.Equal(t, 3, p.Len())
	require.Len(t, p.ContentFrom(s1), 2)
	require.Len(t, p.ContentFrom(s2), 1)

	p.Remove(s1, 0)
	require.Equal(t, 2, p.Len())
	require.Len(t, p.ContentFrom(s1), 1)
}
