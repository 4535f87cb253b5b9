package mirror

// Data transfer objects for the mirror node REST API. Field sets cover what
// the gateway consumes; unrecognized response fields are ignored.

// Timestamp is the consensus-timestamp range of a block.
type TimestampRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Block is a mirror node block record.
type Block struct {
	Count        int64          `json:"count"`
	HapiVersion  string         `json:"hapi_version"`
	Hash         string         `json:"hash"`
	Name         string         `json:"name"`
	Number       int64          `json:"number"`
	PreviousHash string         `json:"previous_hash"`
	Size         int64          `json:"size"`
	Timestamp    TimestampRange `json:"timestamp"`
	GasUsed      int64          `json:"gas_used"`
	LogsBloom    string         `json:"logs_bloom"`
}

type BlocksResponse struct {
	Blocks []Block `json:"blocks"`
}

// ContractResult is a contract execution result. The detail endpoint
// (contracts/results/{id}) fills every field; the list endpoint fills a
// subset.
type ContractResult struct {
	Address              string   `json:"address"`
	Amount               int64    `json:"amount"`
	BlockHash            string   `json:"block_hash"`
	BlockNumber          int64    `json:"block_number"`
	CallResult           string   `json:"call_result"`
	ContractID           string   `json:"contract_id"`
	CreatedContractIDs   []string `json:"created_contract_ids"`
	ErrorMessage         string   `json:"error_message"`
	From                 string   `json:"from"`
	FunctionParameters   string   `json:"function_parameters"`
	GasConsumed          int64    `json:"gas_consumed"`
	GasLimit             int64    `json:"gas_limit"`
	GasPrice             string   `json:"gas_price"`
	GasUsed              int64    `json:"gas_used"`
	Hash                 string   `json:"hash"`
	MaxFeePerGas         string   `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas string   `json:"max_priority_fee_per_gas"`
	Nonce                uint64   `json:"nonce"`
	R                    string   `json:"r"`
	Result               string   `json:"result"`
	S                    string   `json:"s"`
	Status               string   `json:"status"`
	Timestamp            string   `json:"timestamp"`
	To                   string   `json:"to"`
	TransactionIndex     int64    `json:"transaction_index"`
	Type                 *int64   `json:"type"`
	V                    *int64   `json:"v"`
}

type ContractResultsResponse struct {
	Results []ContractResult `json:"results"`
}

// Contract result statuses the tracer special-cases.
const (
	ResultSuccess             = "SUCCESS"
	ResultWrongNonce          = "WRONG_NONCE"
	ResultMaxGasLimitExceeded = "MAX_GAS_LIMIT_EXCEEDED"
)

// ContractAction is one frame of the call tree recorded for a result.
type ContractAction struct {
	CallDepth         int64  `json:"call_depth"`
	CallOperationType string `json:"call_operation_type"`
	CallType          string `json:"call_type"`
	Caller            string `json:"caller"`
	CallerType        string `json:"caller_type"`
	From              string `json:"from"`
	Gas               int64  `json:"gas"`
	GasUsed           int64  `json:"gas_used"`
	Index             int64  `json:"index"`
	Input             string `json:"input"`
	Recipient         string `json:"recipient"`
	RecipientType     string `json:"recipient_type"`
	ResultData        string `json:"result_data"`
	ResultDataType    string `json:"result_data_type"`
	Timestamp         string `json:"timestamp"`
	To                string `json:"to"`
	Value             int64  `json:"value"`
}

type ContractActionsResponse struct {
	Actions []ContractAction `json:"actions"`
}

// Opcode is a single executed opcode from the opcodes endpoint.
type Opcode struct {
	Pc      int64             `json:"pc"`
	Op      string            `json:"op"`
	Gas     int64             `json:"gas"`
	GasCost int64             `json:"gas_cost"`
	Depth   int64             `json:"depth"`
	Stack   []string          `json:"stack"`
	Memory  []string          `json:"memory"`
	Storage map[string]string `json:"storage"`
	Reason  *string           `json:"reason"`
}

// OpcodesResponse is the full opcode-level trace of one transaction.
type OpcodesResponse struct {
	Address     string   `json:"address"`
	ContractID  string   `json:"contract_id"`
	Failed      bool     `json:"failed"`
	Gas         int64    `json:"gas"`
	Opcodes     []Opcode `json:"opcodes"`
	ReturnValue string   `json:"return_value"`
}

// Log is an Ethereum-style log emitted by a contract or a synthetic
// (HTS precompile) transfer.
type Log struct {
	Address          string   `json:"address"`
	Bloom            string   `json:"bloom"`
	ContractID       string   `json:"contract_id"`
	Data             string   `json:"data"`
	Index            int64    `json:"index"`
	Topics           []string `json:"topics"`
	BlockHash        string   `json:"block_hash"`
	BlockNumber      int64    `json:"block_number"`
	RootContractID   string   `json:"root_contract_id"`
	Timestamp        string   `json:"timestamp"`
	TransactionHash  string   `json:"transaction_hash"`
	TransactionIndex int64    `json:"transaction_index"`
}

type LogsResponse struct {
	Logs []Log `json:"logs"`
}

// AccountBalance is an account balance snapshot, in tinybar.
type AccountBalance struct {
	Balance   int64  `json:"balance"`
	Timestamp string `json:"timestamp"`
}

// Account is an account entity record.
type Account struct {
	Account       string         `json:"account"`
	Alias         string         `json:"alias"`
	Balance       AccountBalance `json:"balance"`
	Deleted       bool           `json:"deleted"`
	EthereumNonce uint64         `json:"ethereum_nonce"`
	EvmAddress    string         `json:"evm_address"`
}

// ContractInfo is a contract entity record.
type ContractInfo struct {
	ContractID      string         `json:"contract_id"`
	EvmAddress      string         `json:"evm_address"`
	FileID          string         `json:"file_id"`
	RuntimeBytecode string         `json:"runtime_bytecode"`
	Bytecode        string         `json:"bytecode"`
	Deleted         bool           `json:"deleted"`
	Nonce           uint64         `json:"nonce"`
	Timestamp       TimestampRange `json:"timestamp"`
}

// TokenInfo is a token entity record.
type TokenInfo struct {
	TokenID  string `json:"token_id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals string `json:"decimals"`
	Type     string `json:"type"`
}

// ContractStateEntry is one storage slot value at a timestamp.
type ContractStateEntry struct {
	Address    string `json:"address"`
	ContractID string `json:"contract_id"`
	Slot       string `json:"slot"`
	Value      string `json:"value"`
	Timestamp  string `json:"timestamp"`
}

type ContractStateResponse struct {
	State []ContractStateEntry `json:"state"`
}

// BalanceSnapshot is the balances endpoint response entry.
type BalanceSnapshot struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type BalancesResponse struct {
	Timestamp string            `json:"timestamp"`
	Balances  []BalanceSnapshot `json:"balances"`
}

// NetworkFee is the gas price for one transaction type, in tinycents.
type NetworkFee struct {
	Gas             int64  `json:"gas"`
	TransactionType string `json:"transaction_type"`
}

type NetworkFeesResponse struct {
	Fees      []NetworkFee `json:"fees"`
	Timestamp string       `json:"timestamp"`
}

// ExchangeRate is one cent/hbar rate window.
type ExchangeRate struct {
	CentEquivalent int64 `json:"cent_equivalent"`
	HbarEquivalent int64 `json:"hbar_equivalent"`
	ExpirationTime int64 `json:"expiration_time"`
}

// ExchangeRateResponse carries the current and next rate windows.
type ExchangeRateResponse struct {
	CurrentRate ExchangeRate `json:"current_rate"`
	NextRate    ExchangeRate `json:"next_rate"`
	Timestamp   string       `json:"timestamp"`
}

// Entity types used by the tracer's address resolution.
const (
	EntityContract = "contract"
	EntityToken    = "token"
	EntityAccount  = "account"
)
