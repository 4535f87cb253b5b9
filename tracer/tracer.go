// Package tracer produces Ethereum-standard debug traces (callTracer,
// prestateTracer, opcodeLogger) by stitching together mirror node
// endpoints. Transactions without an EVM execution record ("synthetic"
// token transfers that only emit logs) are handled by a fallback path.
package tracer

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/hashgraph/json-rpc-relay-go/cache"
	"github.com/hashgraph/json-rpc-relay-go/mirror"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"

	"cosmossdk.io/log"
)

// Tracer names accepted in debug_traceTransaction requests.
const (
	CallTracer     = "callTracer"
	PrestateTracer = "prestateTracer"
	OpcodeLogger   = "opcodeLogger"
)

// DefaultTxGas is the gas attributed to synthetic transactions, which
// never ran EVM code.
const DefaultTxGas = 400_000

// prestateCacheTTL bounds how long a computed prestate is reusable.
const prestateCacheTTL = time.Hour

// Config is the tracer selection and its per-tracer options, decoded from
// the request's tracer config object.
type Config struct {
	Tracer       string `json:"tracer"`
	TracerConfig struct {
		OnlyTopCall bool `json:"onlyTopCall"`
	} `json:"tracerConfig"`

	// Opcode logger detail flags.
	EnableMemory   bool `json:"enableMemory"`
	DisableStack   bool `json:"disableStack"`
	DisableStorage bool `json:"disableStorage"`
}

// blockByRef resolves a block reference to a mirror node block. The
// blocks/{ref} endpoint only accepts a hash or height, so the head tag
// goes through the latest-block query instead.
func (t *Tracer) blockByRef(ctx context.Context, blockRef string) (*mirror.Block, error) {
	if blockRef == "latest" {
		return t.mirror.GetLatestBlock(ctx)
	}
	return t.mirror.GetBlock(ctx, blockRef)
}

// Tracer serves the debug namespace's trace operations.
type Tracer struct {
	mirror  *mirror.Client
	cache   cache.Service
	chainID *big.Int
	logger  log.Logger
}

// New builds a tracer over the mirror node client. The cache backs
// prestate memoization; chainID is needed to reconstruct typed
// transactions for raw block encoding.
func New(mc *mirror.Client, c cache.Service, chainID *big.Int, logger log.Logger) *Tracer {
	return &Tracer{
		mirror:  mc,
		cache:   c,
		chainID: chainID,
		logger:  logger.With(log.ModuleKey, "tracer"),
	}
}

// TraceTransaction runs the configured tracer against one transaction,
// identified by consensus transaction id or ethereum hash. The default
// tracer is the opcode logger.
func (t *Tracer) TraceTransaction(ctx context.Context, idOrHash string, cfg Config) (json.RawMessage, error) {
	switch cfg.Tracer {
	case CallTracer:
		return t.traceCall(ctx, idOrHash, cfg.TracerConfig.OnlyTopCall)
	case PrestateTracer:
		return t.tracePrestate(ctx, idOrHash, cfg.TracerConfig.OnlyTopCall)
	case OpcodeLogger, "":
		return t.traceOpcodes(ctx, idOrHash, cfg)
	default:
		return nil, rpctypes.NewInvalidArgumentsError("unknown tracer " + cfg.Tracer)
	}
}

func marshalTrace(v interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, rpctypes.NewInternalError(err.Error())
	}
	return raw, nil
}
