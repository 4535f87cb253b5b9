package tracer

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
	"github.com/hashgraph/json-rpc-relay-go/utils"
)

// CallFrame is one node of a callTracer result tree.
type CallFrame struct {
	Type         string       `json:"type"`
	From         string       `json:"from"`
	To           string       `json:"to"`
	Value        string       `json:"value"`
	Gas          string       `json:"gas"`
	GasUsed      string       `json:"gasUsed"`
	Input        string       `json:"input"`
	Output       string       `json:"output"`
	Error        string       `json:"error,omitempty"`
	RevertReason string       `json:"revertReason,omitempty"`
	Calls        []*CallFrame `json:"calls"`
}

func (t *Tracer) traceCall(ctx context.Context, idOrHash string, onlyTopCall bool) (json.RawMessage, error) {
	var (
		result  *mirror.ContractResult
		actions []mirror.ContractAction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		result, err = t.mirror.GetContractResult(gctx, idOrHash)
		if mirror.IsNotFound(err) {
			err = nil
		}
		return err
	})
	g.Go(func() (err error) {
		actions, err = t.mirror.GetContractActions(gctx, idOrHash)
		if mirror.IsNotFound(err) {
			actions = nil
			err = nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if result == nil || len(actions) == 0 {
		frame, err := t.syntheticCallFrame(ctx, idOrHash)
		if err != nil {
			return nil, err
		}
		return marshalTrace(frame)
	}

	root := frameFromResult(result)
	if !onlyTopCall {
		root.Calls = framesFromActions(actions)
	}
	return marshalTrace(root)
}

// frameFromResult builds the root call frame from the contract result
// detail record.
func frameFromResult(result *mirror.ContractResult) *CallFrame {
	frame := &CallFrame{
		Type:    callTypeOf(result),
		From:    emptyHexIfBlank(result.From),
		To:      emptyHexIfBlank(result.To),
		Value:   tinybarToWeibarHex(result.Amount),
		Gas:     hexutil.EncodeUint64(uint64(result.GasLimit)), // #nosec G115 -- mirror node gas fits int64
		GasUsed: hexutil.EncodeUint64(uint64(result.GasUsed)),  // #nosec G115
		Input:   emptyHexIfBlank(result.FunctionParameters),
		Output:  emptyHexIfBlank(result.CallResult),
		Calls:   []*CallFrame{},
	}
	if result.Result != mirror.ResultSuccess {
		frame.Error = result.Result
		frame.RevertReason = revertReasonOf(result.ErrorMessage, result.CallResult)
	}
	return frame
}

// framesFromActions turns the flat depth-annotated action list (sans the
// root at index 0) into a nested child tree.
func framesFromActions(actions []mirror.ContractAction) []*CallFrame {
	root := &CallFrame{Calls: []*CallFrame{}}
	// byDepth[d] is the most recent frame seen at depth d.
	byDepth := map[int64]*CallFrame{0: root}
	for _, action := range actions[1:] {
		frame := frameFromAction(action)
		parent, ok := byDepth[action.CallDepth-1]
		if !ok {
			parent = root
		}
		parent.Calls = append(parent.Calls, frame)
		byDepth[action.CallDepth] = frame
	}
	return root.Calls
}

func frameFromAction(action mirror.ContractAction) *CallFrame {
	from := action.From
	if from == "" {
		from = action.Caller
	}
	to := action.To
	if to == "" {
		to = action.Recipient
	}
	frame := &CallFrame{
		Type:    strings.ToUpper(action.CallOperationType),
		From:    emptyHexIfBlank(from),
		To:      emptyHexIfBlank(to),
		Value:   tinybarToWeibarHex(action.Value),
		Gas:     hexutil.EncodeUint64(uint64(action.Gas)),     // #nosec G115
		GasUsed: hexutil.EncodeUint64(uint64(action.GasUsed)), // #nosec G115
		Input:   emptyHexIfBlank(action.Input),
		Output:  emptyHexIfBlank(action.ResultData),
		Calls:   []*CallFrame{},
	}
	if action.ResultDataType != "" && action.ResultDataType != "OUTPUT" {
		frame.Error = action.ResultDataType
		frame.RevertReason = revertReasonOf(action.ResultData, "")
		frame.Output = "0x"
	}
	return frame
}

// emptyTraceFrame is the trace emitted for results that never reached the
// EVM (wrong nonce, gas cap exceeded). Everything except the failure
// cause is zeroed.
func emptyTraceFrame(result mirror.ContractResult) *CallFrame {
	return &CallFrame{
		Type:         "CALL",
		From:         emptyHexIfBlank(result.From),
		To:           emptyHexIfBlank(result.To),
		Value:        "0x0",
		Gas:          "0x0",
		GasUsed:      "0x0",
		Input:        "0x",
		Output:       "0x",
		Error:        result.Result,
		RevertReason: revertReasonOf(result.ErrorMessage, ""),
		Calls:        []*CallFrame{},
	}
}

func callTypeOf(result *mirror.ContractResult) string {
	if result.To == "" {
		return "CREATE"
	}
	return "CALL"
}

// revertReasonOf decodes a solidity Error(string) payload from whichever
// of the candidates carries one; an undecodable payload is returned as-is.
func revertReasonOf(candidates ...string) string {
	for _, c := range candidates {
		if c == "" || c == "0x" {
			continue
		}
		return utils.DecodeRevertReason(c)
	}
	return ""
}

// tinybarToWeibarHex renders a tinybar amount as a weibar hex quantity.
func tinybarToWeibarHex(tinybar int64) string {
	if tinybar <= 0 {
		return "0x0"
	}
	weibar := new(big.Int).Mul(big.NewInt(tinybar), utils.TinybarToWeibarCoef)
	return hexutil.EncodeBig(weibar)
}

func emptyHexIfBlank(s string) string {
	if s == "" {
		return "0x"
	}
	return s
}
