package tracer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashgraph/json-rpc-relay-go/mirror"
)

// PrestateAccount is one account's state immediately before the traced
// transaction executed.
type PrestateAccount struct {
	Balance string            `json:"balance"`
	Nonce   uint64            `json:"nonce"`
	Code    string            `json:"code"`
	Storage map[string]string `json:"storage"`
}

// participant is a distinct address referenced by the action set.
type participant struct {
	address    string
	entityType string
	timestamp  string
}

func (t *Tracer) tracePrestate(ctx context.Context, idOrHash string, onlyTopCall bool) (json.RawMessage, error) {
	cacheKey := fmt.Sprintf("%s:%s:%t", PrestateTracer, idOrHash, onlyTopCall)
	if t.cache != nil {
		if cached, ok := t.cache.Get(ctx, cacheKey, PrestateTracer); ok {
			return json.RawMessage(cached), nil
		}
	}

	actions, err := t.mirror.GetContractActions(ctx, idOrHash)
	if err != nil && !mirror.IsNotFound(err) {
		return nil, err
	}
	if len(actions) == 0 {
		// Synthetic transactions have no EVM prestate. The fallback still
		// verifies the transaction exists.
		if _, err := t.syntheticLog(ctx, idOrHash); err != nil {
			return nil, err
		}
		return json.RawMessage("{}"), nil
	}

	if onlyTopCall {
		top := actions[:0:0]
		for _, action := range actions {
			if action.CallDepth == 0 {
				top = append(top, action)
			}
		}
		actions = top
	}

	result := make(map[string]PrestateAccount)
	for _, p := range collectParticipants(actions) {
		account, err := t.prestateOf(ctx, p)
		if err != nil {
			t.logger.Debug("prestate entity skipped", "address", p.address, "error", err)
			continue
		}
		result[p.address] = *account
	}

	raw, err := marshalTrace(result)
	if err != nil {
		return nil, err
	}
	if t.cache != nil {
		t.cache.Set(ctx, cacheKey, string(raw), PrestateTracer, prestateCacheTTL)
	}
	return raw, nil
}

// collectParticipants gathers the distinct from/to addresses with their
// declared entity types, keeping first-seen order.
func collectParticipants(actions []mirror.ContractAction) []participant {
	seen := make(map[string]struct{})
	var out []participant
	add := func(addr, entityType, timestamp string) {
		if addr == "" {
			return
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, participant{address: addr, entityType: strings.ToLower(entityType), timestamp: timestamp})
	}
	for _, action := range actions {
		from := action.From
		if from == "" {
			from = action.Caller
		}
		to := action.To
		if to == "" {
			to = action.Recipient
		}
		add(from, action.CallerType, action.Timestamp)
		add(to, action.RecipientType, action.Timestamp)
	}
	return out
}

// prestateOf assembles one participant's balance, nonce, code and storage
// as of the action timestamp. Plain accounts carry no code or storage.
func (t *Tracer) prestateOf(ctx context.Context, p participant) (*PrestateAccount, error) {
	if p.entityType == mirror.EntityContract {
		info, err := t.mirror.GetContract(ctx, p.address)
		if err != nil {
			return nil, err
		}
		balance, err := t.mirror.GetBalanceAt(ctx, info.ContractID, p.timestamp)
		if err != nil {
			return nil, err
		}
		state, err := t.mirror.GetContractStateAt(ctx, p.address, p.timestamp)
		if err != nil && !mirror.IsNotFound(err) {
			return nil, err
		}
		storage := make(map[string]string, len(state))
		for _, slot := range state {
			storage[slot.Slot] = slot.Value
		}
		code := info.RuntimeBytecode
		if code == "" {
			code = "0x"
		}
		return &PrestateAccount{
			Balance: tinybarToWeibarHex(balance),
			Nonce:   info.Nonce,
			Code:    code,
			Storage: storage,
		}, nil
	}

	account, err := t.mirror.GetAccount(ctx, p.address)
	if err != nil {
		return nil, err
	}
	balance, err := t.mirror.GetBalanceAt(ctx, account.Account, p.timestamp)
	if err != nil {
		return nil, err
	}
	return &PrestateAccount{
		Balance: tinybarToWeibarHex(balance),
		Nonce:   account.EthereumNonce,
		Code:    "0x",
		Storage: map[string]string{},
	}, nil
}
