package tracer

import (
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
)

// TxTraceResult pairs a transaction hash with its trace, in block order.
type TxTraceResult struct {
	TxHash string          `json:"txHash"`
	Result json.RawMessage `json:"result"`
}

// traceBlockConcurrency bounds parallel per-transaction traces.
const traceBlockConcurrency = 8

// TraceBlockByNumber traces every transaction of a block: EVM contract
// results first, then synthetic transactions known only through their
// logs, deduplicated in that order. Results that never reached the EVM
// (wrong nonce, gas cap) get an empty trace without consulting the
// actions endpoint.
func (t *Tracer) TraceBlockByNumber(ctx context.Context, blockRef string, cfg Config) ([]TxTraceResult, error) {
	block, err := t.blockByRef(ctx, blockRef)
	if err != nil {
		return nil, err
	}
	if block.Count == 0 {
		return []TxTraceResult{}, nil
	}

	results, err := t.mirror.GetContractResultsByTimestampRange(ctx, block.Timestamp.From, block.Timestamp.To)
	if err != nil && !mirror.IsNotFound(err) {
		return nil, err
	}
	logs, err := t.mirror.GetLogsByTimestampRange(ctx, block.Timestamp.From, block.Timestamp.To)
	if err != nil && !mirror.IsNotFound(err) {
		return nil, err
	}

	type entry struct {
		hash        string
		precomputed json.RawMessage
	}
	var (
		entries []entry
		seen    = make(map[string]struct{})
	)
	add := func(hash string, precomputed json.RawMessage) {
		key := strings.ToLower(hash)
		if hash == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		entries = append(entries, entry{hash: hash, precomputed: precomputed})
	}

	for _, result := range results {
		if result.Result == mirror.ResultWrongNonce || result.Result == mirror.ResultMaxGasLimitExceeded {
			raw, err := marshalTrace(emptyTraceFrame(result))
			if err != nil {
				return nil, err
			}
			add(result.Hash, raw)
			continue
		}
		add(result.Hash, nil)
	}
	for _, logEntry := range logs {
		add(logEntry.TransactionHash, nil)
	}

	traces := make([]TxTraceResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(traceBlockConcurrency)
	for i, e := range entries {
		traces[i].TxHash = e.hash
		if e.precomputed != nil {
			traces[i].Result = e.precomputed
			continue
		}
		g.Go(func() error {
			raw, err := t.TraceTransaction(gctx, e.hash, cfg)
			if err != nil {
				return err
			}
			traces[i].Result = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return traces, nil
}
