package backend

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
)

const (
	StatusPending = "pending"
	StatusQueued  = "queued"
)

// The code style for this API is based off of the Go-Ethereum implementation.
// The relay admits transactions only after their nonce gap is resolved, so
// the queued bucket is always empty.

// Content returns the transactions contained within the transaction pool.
func (b *Backend) Content() (map[string]map[string]map[string]*rpctypes.RPCTransaction, error) {
	content := map[string]map[string]map[string]*rpctypes.RPCTransaction{
		StatusPending: make(map[string]map[string]*rpctypes.RPCTransaction),
		StatusQueued:  make(map[string]map[string]*rpctypes.RPCTransaction),
	}
	if b.Pool == nil {
		return content, nil
	}

	for _, entry := range b.Pool.All() {
		addrStr := entry.Sender.Hex()
		if content[StatusPending][addrStr] == nil {
			content[StatusPending][addrStr] = make(map[string]*rpctypes.RPCTransaction)
		}
		content[StatusPending][addrStr][strconv.FormatUint(entry.Tx.Nonce(), 10)] =
			b.pendingRPCTransaction(entry.Tx, entry.Sender)
	}
	return content, nil
}

// ContentFrom returns the pool transactions submitted by a single sender.
func (b *Backend) ContentFrom(addr common.Address) (map[string]map[string]*rpctypes.RPCTransaction, error) {
	content := make(map[string]map[string]*rpctypes.RPCTransaction, 2)

	// variable name comes from go-ethereum: https://github.com/ethereum/go-ethereum/blob/0dacfef8ac42e7be5db26c2956f2b238ba7c75e8/internal/ethapi/api.go#L221
	dump := make(map[string]*rpctypes.RPCTransaction)
	if b.Pool != nil {
		for _, entry := range b.Pool.ContentFrom(addr) {
			dump[fmt.Sprintf("%d", entry.Tx.Nonce())] = b.pendingRPCTransaction(entry.Tx, entry.Sender)
		}
	}
	content[StatusPending] = dump
	content[StatusQueued] = make(map[string]*rpctypes.RPCTransaction)
	return content, nil
}

// Inspect returns the content of the transaction pool and flattens it into an
// easily inspectable list.
func (b *Backend) Inspect() (map[string]map[string]map[string]string, error) {
	inspect := map[string]map[string]map[string]string{
		StatusPending: make(map[string]map[string]string),
		StatusQueued:  make(map[string]map[string]string),
	}
	if b.Pool == nil {
		return inspect, nil
	}

	format := func(tx *ethtypes.Transaction) string {
		if to := tx.To(); to != nil {
			return fmt.Sprintf("%s: %v wei + %v gas × %v wei",
				to.Hex(), tx.Value(), tx.Gas(), tx.GasPrice())
		}
		return fmt.Sprintf("contract creation: %v wei + %v gas × %v wei",
			tx.Value(), tx.Gas(), tx.GasPrice())
	}

	for _, entry := range b.Pool.All() {
		addrStr := entry.Sender.Hex()
		if inspect[StatusPending][addrStr] == nil {
			inspect[StatusPending][addrStr] = make(map[string]string)
		}
		inspect[StatusPending][addrStr][fmt.Sprintf("%d", entry.Tx.Nonce())] = format(entry.Tx)
	}
	return inspect, nil
}

// Status returns the number of pending and queued transaction in the pool.
func (b *Backend) Status() (map[string]hexutil.Uint, error) {
	pending := 0
	if b.Pool != nil {
		pending = b.Pool.Len()
	}
	return map[string]hexutil.Uint{
		StatusPending: hexutil.Uint(pending), // #nosec G115 -- the pool caps out far below overflow
		StatusQueued:  hexutil.Uint(0),
	}, nil
}

// pendingRPCTransaction shapes a pooled transaction for display. Block
// fields stay null until the transaction is committed.
func (b *Backend) pendingRPCTransaction(tx *ethtypes.Transaction, from common.Address) *rpctypes.RPCTransaction {
	return rpctypes.NewRPCTransactionFromTx(tx, from, nil, 0, 0, (*hexutil.Big)(b.Cfg.ChainID))
}
