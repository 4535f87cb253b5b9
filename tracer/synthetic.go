package tracer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
)

// syntheticLog finds the first log of a transaction that has no EVM
// execution record. No logs at all means the transaction is unknown.
func (t *Tracer) syntheticLog(ctx context.Context, idOrHash string) (*mirror.Log, error) {
	logs, err := t.mirror.GetLogsByTransactionHash(ctx, idOrHash)
	if err != nil && !mirror.IsNotFound(err) {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, rpctypes.NewResourceNotFoundError(
			fmt.Sprintf("Failed to retrieve transaction information for %s", idOrHash))
	}
	return &logs[0], nil
}

// syntheticCallFrame builds the minimal CALL object for a synthetic
// transfer. A standard Transfer event carries the participants in its
// indexed topics; anything else attributes the transfer to the emitting
// contract.
func (t *Tracer) syntheticCallFrame(ctx context.Context, idOrHash string) (*CallFrame, error) {
	logEntry, err := t.syntheticLog(ctx, idOrHash)
	if err != nil {
		return nil, err
	}

	from := logEntry.Address
	to := logEntry.Address
	if len(logEntry.Topics) >= 3 {
		from = addressFromTopic(logEntry.Topics[1])
		to = addressFromTopic(logEntry.Topics[2])
	}

	allowed := []string{mirror.EntityContract, mirror.EntityAccount, mirror.EntityToken}
	from = t.resolveEvmAddress(ctx, from, allowed)
	to = t.resolveEvmAddress(ctx, to, allowed)

	return &CallFrame{
		Type:    "CALL",
		From:    from,
		To:      to,
		Value:   "0x0",
		Gas:     hexutil.EncodeUint64(DefaultTxGas),
		GasUsed: "0x0",
		Input:   "0x",
		Output:  "0x",
		Calls:   []*CallFrame{},
	}, nil
}

// addressFromTopic takes the last 20 bytes of a 32-byte topic, rendered
// the lowercase way mirror node addresses arrive.
func addressFromTopic(topic string) string {
	return strings.ToLower(common.HexToAddress(topic).Hex())
}

// resolveEvmAddress swaps an entity id or long-zero address for the
// entity's EVM address when the mirror node knows one. Resolution
// failures keep the input address; the surrounding trace still succeeds.
func (t *Tracer) resolveEvmAddress(ctx context.Context, addr string, allowedTypes []string) string {
	if addr == "" {
		return addr
	}
	for _, entity := range allowedTypes {
		switch entity {
		case mirror.EntityContract:
			if info, err := t.mirror.GetContract(ctx, addr); err == nil && info.EvmAddress != "" {
				return info.EvmAddress
			}
		case mirror.EntityAccount:
			if account, err := t.mirror.GetAccount(ctx, addr); err == nil && account.EvmAddress != "" {
				return account.EvmAddress
			}
		case mirror.EntityToken:
			// Tokens have no distinct EVM address; the long-zero form stands.
			if _, err := t.mirror.GetToken(ctx, addr); err == nil {
				return addr
			}
		}
	}
	return addr
}
