package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hashgraph/json-rpc-relay-go/cache"

	"cosmossdk.io/log"
)

// ErrNotFound is the sentinel for a 404 from the mirror node. Callers
// distinguish "not present" from transport or server failures through it.
var ErrNotFound = errors.New("mirror node: not found")

// IsNotFound reports whether err is the mirror node's not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Collection names used as cache-key prefixes and memoizer method names.
const (
	collectionBlock          = "block"
	collectionContractResult = "contract_result"
	collectionActions        = "contract_actions"
	collectionOpcodes        = "contract_opcodes"
	collectionLogs           = "contract_logs"
	collectionContract       = "contract"
	collectionAccount        = "account"
	collectionToken          = "token"
	collectionState          = "contract_state"
	collectionBalances       = "balances"
	collectionFees           = "network_fees"
	collectionExchangeRate   = "network_exchangerate"
)

// DefaultMemoPolicies are the per-collection memoization policies. Head
// references ("latest" and friends) are never cached.
func DefaultMemoPolicies() map[string]cache.Policy {
	headTags := []cache.SkipParam{
		{Index: 0, Value: "latest"},
		{Index: 0, Value: "pending"},
		{Index: 0, Value: "finalized"},
		{Index: 0, Value: "safe"},
	}
	return map[string]cache.Policy{
		collectionBlock:          {TTL: time.Hour, SkipParams: headTags},
		collectionContractResult: {TTL: time.Hour},
		collectionActions:        {TTL: time.Hour},
		collectionOpcodes:        {TTL: time.Hour},
		collectionContract:       {TTL: 30 * time.Minute},
		collectionToken:          {TTL: 30 * time.Minute},
		collectionState:          {TTL: time.Hour},
		collectionFees:           {TTL: time.Minute},
		collectionExchangeRate:   {TTL: 15 * time.Minute},
	}
}

// Client is the mirror node REST client. All reads go through the
// memoizer; collections with no registered policy hit the backend every
// time.
type Client struct {
	base   *url.URL
	http   *http.Client
	memo   *cache.Memoizer
	logger log.Logger
}

// NewClient builds a mirror node client for baseURL, e.g.
// "https://testnet.mirrornode.hedera.com/api/v1".
func NewClient(baseURL string, httpClient *http.Client, memo *cache.Memoizer, logger log.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid mirror node url")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		base:   base,
		http:   httpClient,
		memo:   memo,
		logger: logger.With(log.ModuleKey, "mirror"),
	}, nil
}

// get fetches path and decodes the JSON body into out. 404 yields
// ErrNotFound, any other non-2xx a wrapped error.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	u := *c.base
	endpoint, query, _ := strings.Cut(path, "?")
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	u.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "building mirror node request")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "mirror node request %s", path)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case res.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return errors.Errorf("mirror node %s: status %d: %s", path, res.StatusCode, string(body))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding mirror node response %s", path)
	}
	return nil
}

// getMemoized routes the fetch through the memoizer under the collection's
// policy. Not-found responses are not cached.
func getMemoized[T any](ctx context.Context, c *Client, collection string, args []interface{}, path string) (*T, error) {
	if c.memo == nil {
		var out T
		if err := c.get(ctx, path, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
	out, err := cache.Memoize(ctx, c.memo, collection, args, func() (*T, error) {
		var fresh T
		if err := c.get(ctx, path, &fresh); err != nil {
			return nil, err
		}
		return &fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBlock fetches blocks/{ref} where ref is a height or a block hash.
func (c *Client) GetBlock(ctx context.Context, ref string) (*Block, error) {
	return getMemoized[Block](ctx, c, collectionBlock, []interface{}{ref}, "blocks/"+url.PathEscape(ref))
}

// GetLatestBlock fetches the chain head.
func (c *Client) GetLatestBlock(ctx context.Context) (*Block, error) {
	var out BlocksResponse
	if err := c.get(ctx, "blocks?limit=1&order=desc", &out); err != nil {
		return nil, err
	}
	if len(out.Blocks) == 0 {
		return nil, ErrNotFound
	}
	return &out.Blocks[0], nil
}

// GetContractResult fetches contracts/results/{id} by transaction id or
// ethereum hash.
func (c *Client) GetContractResult(ctx context.Context, idOrHash string) (*ContractResult, error) {
	return getMemoized[ContractResult](ctx, c, collectionContractResult, []interface{}{idOrHash},
		"contracts/results/"+url.PathEscape(idOrHash))
}

// GetContractResultUncached bypasses the memoizer; used by reconciliation
// polling where a 404 now may become a hit a moment later.
func (c *Client) GetContractResultUncached(ctx context.Context, idOrHash string) (*ContractResult, error) {
	var out ContractResult
	if err := c.get(ctx, "contracts/results/"+url.PathEscape(idOrHash), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContractResultsByTimestampRange lists contract results inside a
// consensus-timestamp window, ascending.
func (c *Client) GetContractResultsByTimestampRange(ctx context.Context, from, to string) ([]ContractResult, error) {
	path := fmt.Sprintf("contracts/results?timestamp=gte:%s&timestamp=lte:%s&limit=100&order=asc", from, to)
	var out ContractResultsResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetContractActions fetches the call-tree actions of a result.
func (c *Client) GetContractActions(ctx context.Context, idOrHash string) ([]ContractAction, error) {
	out, err := getMemoized[ContractActionsResponse](ctx, c, collectionActions, []interface{}{idOrHash},
		"contracts/results/"+url.PathEscape(idOrHash)+"/actions")
	if err != nil {
		return nil, err
	}
	return out.Actions, nil
}

// GetContractOpcodes fetches the opcode-level trace with the given detail
// flags mapped onto the endpoint's query string.
func (c *Client) GetContractOpcodes(ctx context.Context, idOrHash string, memory, stack, storage bool) (*OpcodesResponse, error) {
	path := fmt.Sprintf("contracts/results/%s/opcodes?memory=%t&stack=%t&storage=%t",
		url.PathEscape(idOrHash), memory, stack, storage)
	return getMemoized[OpcodesResponse](ctx, c, collectionOpcodes, []interface{}{idOrHash, memory, stack, storage}, path)
}

// GetLogsByTransactionHash fetches all logs attached to a transaction.
func (c *Client) GetLogsByTransactionHash(ctx context.Context, hash string) ([]Log, error) {
	path := fmt.Sprintf("contracts/results/logs?transaction.hash=%s&limit=100&order=asc", url.QueryEscape(hash))
	var out LogsResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// GetLogsByTimestampRange fetches all logs inside a consensus-timestamp
// window, ascending.
func (c *Client) GetLogsByTimestampRange(ctx context.Context, from, to string) ([]Log, error) {
	path := fmt.Sprintf("contracts/results/logs?timestamp=gte:%s&timestamp=lte:%s&limit=100&order=asc", from, to)
	var out LogsResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// GetContract fetches contracts/{addr} by EVM address or entity id.
func (c *Client) GetContract(ctx context.Context, addr string) (*ContractInfo, error) {
	return getMemoized[ContractInfo](ctx, c, collectionContract, []interface{}{addr},
		"contracts/"+url.PathEscape(addr))
}

// GetAccount fetches accounts/{addr} without its transaction list.
func (c *Client) GetAccount(ctx context.Context, addr string) (*Account, error) {
	var out Account
	if err := c.get(ctx, "accounts/"+url.PathEscape(addr)+"?transactions=false", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalanceAt fetches an account's balance snapshot at a consensus
// timestamp. Returns 0 when no snapshot exists.
func (c *Client) GetBalanceAt(ctx context.Context, accountID, timestamp string) (int64, error) {
	path := fmt.Sprintf("balances?account.id=%s&timestamp=%s", url.QueryEscape(accountID), url.QueryEscape(timestamp))
	var out BalancesResponse
	if err := c.get(ctx, path, &out); err != nil {
		return 0, err
	}
	if len(out.Balances) == 0 {
		return 0, nil
	}
	return out.Balances[0].Balance, nil
}

// GetContractStateAt fetches a contract's storage as of a consensus
// timestamp, newest slots first.
func (c *Client) GetContractStateAt(ctx context.Context, idOrAddr, timestamp string) ([]ContractStateEntry, error) {
	path := fmt.Sprintf("contracts/%s/state?timestamp=%s&limit=100&order=desc",
		url.PathEscape(idOrAddr), url.QueryEscape(timestamp))
	out, err := getMemoized[ContractStateResponse](ctx, c, collectionState, []interface{}{idOrAddr, timestamp}, path)
	if err != nil {
		return nil, err
	}
	return out.State, nil
}

// GetNetworkFees fetches the current gas prices per transaction type.
func (c *Client) GetNetworkFees(ctx context.Context) (*NetworkFeesResponse, error) {
	return getMemoized[NetworkFeesResponse](ctx, c, collectionFees, []interface{}{"current"}, "network/fees")
}

// GetExchangeRate fetches the current cent/hbar exchange rate.
func (c *Client) GetExchangeRate(ctx context.Context) (*ExchangeRateResponse, error) {
	return getMemoized[ExchangeRateResponse](ctx, c, collectionExchangeRate, []interface{}{"current"}, "network/exchangerate")
}

// GetToken fetches tokens/{id}.
func (c *Client) GetToken(ctx context.Context, id string) (*TokenInfo, error) {
	return getMemoized[TokenInfo](ctx, c, collectionToken, []interface{}{id}, "tokens/"+url.PathEscape(id))
}
