// Package debug exposes the debug_* JSON-RPC namespace: transaction and
// block tracing plus raw block retrieval, all reconstructed from mirror
// node data.
package debug

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/hashgraph/json-rpc-relay-go/rpc/backend"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/tracer"
)

// API is the debug_ prefixed set of APIs.
type API struct {
	logger  log.Logger
	backend *backend.Backend
}

// NewAPI creates an instance of the Debug API.
func NewAPI(logger log.Logger, b *backend.Backend) *API {
	return &API{
		logger:  logger.With(log.ModuleKey, "debug"),
		backend: b,
	}
}

// TraceTransaction returns the structured trace of a single transaction.
func (a *API) TraceTransaction(ctx context.Context, hash common.Hash, config *tracer.Config) (json.RawMessage, error) {
	a.logger.Debug("debug_traceTransaction", "hash", hash.Hex())
	cfg, err := a.tracerConfig(config)
	if err != nil {
		return nil, err
	}
	return a.backend.Tracer.TraceTransaction(ctx, hash.Hex(), cfg)
}

// TraceBlockByNumber traces every transaction of the block identified by
// number.
func (a *API) TraceBlockByNumber(ctx context.Context, blockNum rpctypes.BlockNumber, config *tracer.Config) ([]tracer.TxTraceResult, error) {
	a.logger.Debug("debug_traceBlockByNumber", "block", blockNum.Int64())
	cfg, err := a.tracerConfig(config)
	if err != nil {
		return nil, err
	}
	return a.backend.Tracer.TraceBlockByNumber(ctx, blockNum.MirrorRef(), cfg)
}

// GetRawBlock returns the RLP encoding of the block identified by number.
func (a *API) GetRawBlock(ctx context.Context, blockNum rpctypes.BlockNumber) (string, error) {
	a.logger.Debug("debug_getRawBlock", "block", blockNum.Int64())
	return a.backend.Tracer.GetRawBlock(ctx, blockNum.MirrorRef())
}

// tracerConfig validates the requested tracer against the process
// configuration. The opcode logger is the default tracer but can be
// switched off independently of the rest of the namespace.
func (a *API) tracerConfig(config *tracer.Config) (tracer.Config, error) {
	cfg := tracer.Config{}
	if config != nil {
		cfg = *config
	}
	if (cfg.Tracer == "" || cfg.Tracer == tracer.OpcodeLogger) && !a.backend.Cfg.OpcodeLoggerEnabled {
		return cfg, rpctypes.NewUnsupportedOperationError("opcodeLogger tracer is disabled")
	}
	return cfg, nil
}
