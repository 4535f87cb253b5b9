package tracer

import (
	"context"
	"encoding/json"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
)

// OpcodeTrace is the opcodeLogger result shape.
type OpcodeTrace struct {
	Gas         int64       `json:"gas"`
	Failed      bool        `json:"failed"`
	ReturnValue string      `json:"returnValue"`
	StructLogs  []StructLog `json:"structLogs"`
}

// StructLog is one executed opcode. The detail fields are null when the
// corresponding request flag disabled them.
type StructLog struct {
	Pc      int64              `json:"pc"`
	Op      string             `json:"op"`
	Gas     int64              `json:"gas"`
	GasCost int64              `json:"gasCost"`
	Depth   int64              `json:"depth"`
	Stack   *[]string          `json:"stack"`
	Memory  *[]string          `json:"memory"`
	Storage *map[string]string `json:"storage"`
	Reason  *string            `json:"reason"`
}

func (t *Tracer) traceOpcodes(ctx context.Context, idOrHash string, cfg Config) (json.RawMessage, error) {
	resp, err := t.mirror.GetContractOpcodes(ctx, idOrHash,
		cfg.EnableMemory, !cfg.DisableStack, !cfg.DisableStorage)
	if mirror.IsNotFound(err) {
		// Synthetic transactions executed no opcodes.
		if _, fallbackErr := t.syntheticLog(ctx, idOrHash); fallbackErr != nil {
			return nil, fallbackErr
		}
		return marshalTrace(OpcodeTrace{ReturnValue: "", StructLogs: []StructLog{}})
	}
	if err != nil {
		return nil, err
	}

	trace := OpcodeTrace{
		Gas:         resp.Gas,
		Failed:      resp.Failed,
		ReturnValue: resp.ReturnValue,
		StructLogs:  make([]StructLog, 0, len(resp.Opcodes)),
	}
	for _, op := range resp.Opcodes {
		entry := StructLog{
			Pc:      op.Pc,
			Op:      op.Op,
			Gas:     op.Gas,
			GasCost: op.GasCost,
			Depth:   op.Depth,
			Reason:  op.Reason,
		}
		if cfg.EnableMemory {
			memory := op.Memory
			if memory == nil {
				memory = []string{}
			}
			entry.Memory = &memory
		}
		if !cfg.DisableStack {
			stack := op.Stack
			if stack == nil {
				stack = []string{}
			}
			entry.Stack = &stack
		}
		if !cfg.DisableStorage {
			storage := op.Storage
			if storage == nil {
				storage = map[string]string{}
			}
			entry.Storage = &storage
		}
		trace.StructLogs = append(trace.StructLogs, entry)
	}
	return marshalTrace(trace)
}
