// Package rpc assembles the JSON-RPC namespaces served by the relay.
package rpc

import (
	"cosmossdk.io/log"
	ethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/hashgraph/json-rpc-relay-go/rpc/backend"
	"github.com/hashgraph/json-rpc-relay-go/rpc/namespaces/ethereum/debug"
	"github.com/hashgraph/json-rpc-relay-go/rpc/namespaces/ethereum/eth"
	"github.com/hashgraph/json-rpc-relay-go/rpc/namespaces/ethereum/net"
	"github.com/hashgraph/json-rpc-relay-go/rpc/namespaces/ethereum/txpool"
	"github.com/hashgraph/json-rpc-relay-go/rpc/namespaces/ethereum/web3"
)

// RPC namespaces.
const (
	EthNamespace    = "eth"
	NetNamespace    = "net"
	Web3Namespace   = "web3"
	DebugNamespace  = "debug"
	TxPoolNamespace = "txpool"
)

const apiVersion = "1.0"

// GetRPCAPIs returns the list of namespace services to register, honoring
// the debug and txpool feature toggles.
func GetRPCAPIs(logger log.Logger, b *backend.Backend) []ethrpc.API {
	apis := []ethrpc.API{
		{
			Namespace: EthNamespace,
			Version:   apiVersion,
			Service:   eth.NewPublicAPI(logger, b),
			Public:    true,
		},
		{
			Namespace: NetNamespace,
			Version:   apiVersion,
			Service:   net.NewPublicAPI(b.ChainID()),
			Public:    true,
		},
		{
			Namespace: Web3Namespace,
			Version:   apiVersion,
			Service:   web3.NewPublicAPI(),
			Public:    true,
		},
	}

	if b.Cfg.DebugAPIEnabled {
		apis = append(apis, ethrpc.API{
			Namespace: DebugNamespace,
			Version:   apiVersion,
			Service:   debug.NewAPI(logger, b),
			Public:    true,
		})
	}

	if b.Cfg.TxPoolAPIEnabled {
		apis = append(apis, ethrpc.API{
			Namespace: TxPoolNamespace,
			Version:   apiVersion,
			Service:   txpool.NewPublicAPI(logger, b),
			Public:    true,
		})
	}

	return apis
}
