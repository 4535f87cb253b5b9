// Package net exposes the net_* JSON-RPC namespace.
package net

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PublicAPI is the net_ prefixed set of APIs.
type PublicAPI struct {
	chainID *big.Int
}

// NewPublicAPI creates an instance of the public Net Web3 API.
func NewPublicAPI(chainID *big.Int) *PublicAPI {
	return &PublicAPI{chainID: new(big.Int).Set(chainID)}
}

// Version returns the current ethereum protocol version.
func (s *PublicAPI) Version() string {
	return s.chainID.String()
}

// Listening returns if client is actively listening for network connections.
func (s *PublicAPI) Listening() bool {
	return true
}

// PeerCount returns the number of peers currently connected to the client.
// The relay has no peer-to-peer layer.
func (s *PublicAPI) PeerCount() hexutil.Uint {
	return 0
}
