package pool

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"cosmossdk.io/log"
)

var (
	// ErrAlreadyKnown is returned when a (sender, nonce) slot is occupied
	// by a transaction with an equal or higher effective gas price.
	ErrAlreadyKnown = errors.New("already known")
)

type key struct {
	sender common.Address
	nonce  uint64
}

// Entry is one accepted-but-unresolved submission.
type Entry struct {
	Sender      common.Address
	Tx          *ethtypes.Transaction
	RawBytes    []byte
	SubmittedAt time.Time
	// Session ties the entry to the sender-lock acquisition that admitted it.
	Session string
}

// effectiveGasPrice is the price used for replacement tie-breaks.
func (e *Entry) effectiveGasPrice() *big.Int {
	if e.Tx.Type() == ethtypes.DynamicFeeTxType {
		return e.Tx.GasFeeCap()
	}
	return e.Tx.GasPrice()
}

// PendingPool tracks accepted submissions until the mirror node reports a
// result or a timeout elapses. At most one entry exists per (sender, nonce).
type PendingPool struct {
	mtx     sync.Mutex
	entries map[key]*Entry
	logger  log.Logger
}

// NewPendingPool creates an empty pool.
func NewPendingPool(logger log.Logger) *PendingPool {
	return &PendingPool{
		entries: make(map[key]*Entry),
		logger:  logger.With(log.ModuleKey, "txpool"),
	}
}

// Admit inserts the entry. A duplicate (sender, nonce) with a strictly
// higher effective gas price replaces the resident entry; an equal or lower
// price is rejected with ErrAlreadyKnown.
func (p *PendingPool) Admit(e *Entry) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	k := key{sender: e.Sender, nonce: e.Tx.Nonce()}
	if resident, ok := p.entries[k]; ok {
		if e.effectiveGasPrice().Cmp(resident.effectiveGasPrice()) <= 0 {
			return ErrAlreadyKnown
		}
		p.logger.Debug("replacing pooled transaction with higher priced one",
			"sender", e.Sender.Hex(), "nonce", e.Tx.Nonce(),
			"old_hash", resident.Tx.Hash().Hex(), "new_hash", e.Tx.Hash().Hex())
	}
	p.entries[k] = e
	return nil
}

// Remove drops the (sender, nonce) entry if present.
func (p *PendingPool) Remove(sender common.Address, nonce uint64) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	delete(p.entries, key{sender: sender, nonce: nonce})
}

// Get returns the entry for (sender, nonce).
func (p *PendingPool) Get(sender common.Address, nonce uint64) (*Entry, bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	e, ok := p.entries[key{sender: sender, nonce: nonce}]
	return e, ok
}

// All returns a snapshot of every pooled entry.
func (p *PendingPool) All() []*Entry {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	out := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e)
	}
	return out
}

// ContentFrom returns a snapshot of the sender's pooled entries.
func (p *PendingPool) ContentFrom(sender common.Address) []*Entry {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	var out []*Entry
	for k, e := range p.entries {
		if k.sender == sender {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of pooled entries.
func (p *PendingPool) Len() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.entries)
}
