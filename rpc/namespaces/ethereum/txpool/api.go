// Package txpool exposes the txpool_* JSON-RPC namespace over the pending
// pool.
package txpool

import (
	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hashgraph/json-rpc-relay-go/rpc/backend"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
)

// PublicAPI is the txpool_ prefixed set of APIs.
type PublicAPI struct {
	logger  log.Logger
	backend *backend.Backend
}

// NewPublicAPI creates an instance of the Tx Pool API.
func NewPublicAPI(logger log.Logger, b *backend.Backend) *PublicAPI {
	return &PublicAPI{
		logger:  logger.With(log.ModuleKey, "txpool"),
		backend: b,
	}
}

// Content returns the transactions contained within the transaction pool.
func (api *PublicAPI) Content() (map[string]map[string]map[string]*rpctypes.RPCTransaction, error) {
	api.logger.Debug("txpool_content")
	return api.backend.Content()
}

// ContentFrom returns the transactions from one sender contained within
// the transaction pool.
func (api *PublicAPI) ContentFrom(addr common.Address) (map[string]map[string]*rpctypes.RPCTransaction, error) {
	api.logger.Debug("txpool_contentFrom", "address", addr.Hex())
	return api.backend.ContentFrom(addr)
}

// Inspect returns the content of the transaction pool and flattens it into
// an easily inspectable list.
func (api *PublicAPI) Inspect() (map[string]map[string]map[string]string, error) {
	api.logger.Debug("txpool_inspect")
	return api.backend.Inspect()
}

// Status returns the number of pending and queued transactions in the pool.
func (api *PublicAPI) Status() (map[string]hexutil.Uint, error) {
	api.logger.Debug("txpool_status")
	return api.backend.Status()
}
