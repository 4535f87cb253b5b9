// Package backend implements the shared service layer behind every RPC
// namespace: transaction submission, mirror node reads, and pool
// bookkeeping.
package backend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hashgraph/json-rpc-relay-go/cache"
	"github.com/hashgraph/json-rpc-relay-go/hapi"
	"github.com/hashgraph/json-rpc-relay-go/mirror"
	"github.com/hashgraph/json-rpc-relay-go/pool"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/server/config"
	"github.com/hashgraph/json-rpc-relay-go/tracer"

	"cosmossdk.io/log"
)

// ConsensusSubmitter is the write path to the consensus network.
// Satisfied by hapi.Supervisor.
type ConsensusSubmitter interface {
	SubmitEthereumTransaction(ctx context.Context, rawTx []byte, callDataFile hapi.FileID, sender common.Address, rc rpctypes.RequestContext) (*hapi.TransactionResponse, error)
	CreateFile(ctx context.Context, contents []byte, sender common.Address, rc rpctypes.RequestContext) (hapi.FileID, error)
	DeleteFile(ctx context.Context, fileID hapi.FileID, sender common.Address, rc rpctypes.RequestContext) error
}

// Backend wires the relay's subsystems together for the RPC namespaces.
type Backend struct {
	Cfg        *config.Config
	Logger     log.Logger
	Mirror     *mirror.Client
	Supervisor ConsensusSubmitter
	Pool       *pool.PendingPool
	Locks      *pool.LockRegistry
	Limiter    hapi.Limiter
	Tracer     *tracer.Tracer
	Cache      cache.Service
}

// New assembles a backend. Limiter and Supervisor may be nil in read-only
// deployments; the write path then rejects submissions.
func New(
	cfg *config.Config,
	logger log.Logger,
	mc *mirror.Client,
	supervisor ConsensusSubmitter,
	pendingPool *pool.PendingPool,
	locks *pool.LockRegistry,
	limiter hapi.Limiter,
	tr *tracer.Tracer,
	c cache.Service,
) *Backend {
	return &Backend{
		Cfg:        cfg,
		Logger:     logger.With(log.ModuleKey, "backend"),
		Mirror:     mc,
		Supervisor: supervisor,
		Pool:       pendingPool,
		Locks:      locks,
		Limiter:    limiter,
		Tracer:     tr,
		Cache:      c,
	}
}

// ChainID returns the configured EVM chain id.
func (b *Backend) ChainID() *big.Int {
	return new(big.Int).Set(b.Cfg.ChainID)
}

// requestContext pulls the per-request metadata injected by the transport
// layer; internally originated calls get a fresh one.
func (b *Backend) requestContext(ctx context.Context) rpctypes.RequestContext {
	return rpctypes.RequestContextFromCtx(ctx)
}
