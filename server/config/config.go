// Package config loads the relay's configuration from environment-keyed
// settings, with viper as the lookup layer so values can also come from a
// config file or flags.
package config

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/hashgraph/json-rpc-relay-go/hapi"
	"github.com/hashgraph/json-rpc-relay-go/hbar"
)

// Server defaults.
const (
	DefaultJSONRPCAddress       = "0.0.0.0:7546"
	DefaultWSAddress            = "0.0.0.0:8546"
	DefaultMetricsAddress       = "0.0.0.0:9464"
	DefaultHTTPTimeout          = 30 * time.Second
	DefaultHTTPIdleTimeout      = 120 * time.Second
	DefaultBatchRequestLimit    = 100
	DefaultMaxBatchResponseSize = 25 * 1000 * 1000
)

// Pipeline defaults.
const (
	DefaultGasLimitCap       = 15_000_000
	DefaultCacheEntries      = 4096
	DefaultReconcileRetries  = 10
	DefaultReconcileInterval = time.Second
)

// Config is the full relay configuration.
type Config struct {
	// Chain identity.
	ChainID       *big.Int
	HederaNetwork string

	// Consensus node operator.
	Operator hapi.Operator

	// Mirror node.
	MirrorNodeURL string

	// JSON-RPC transport.
	JSONRPCAddress       string
	WSAddress            string
	MetricsAddress       string
	HTTPTimeout          time.Duration
	HTTPIdleTimeout      time.Duration
	BatchRequestLimit    int
	BatchResponseMaxSize int
	UnsafeCORS           bool

	// Feature toggles.
	ReadOnly            bool
	DebugAPIEnabled     bool
	OpcodeLoggerEnabled bool
	TxPoolAPIEnabled    bool
	TxPoolEnabled       bool
	AsyncTxProcessing   bool
	NonceOrdering       bool
	JumboTxEnabled      bool

	// Submission pipeline.
	GasLimitCap       uint64
	ReconcileRetries  int
	ReconcileInterval time.Duration

	// Consensus client supervision.
	HapiClientTransactionReset int64
	HapiClientDurationReset    time.Duration
	HapiClientErrorReset       []hapi.Status
	FileAppendChunkSize        int
	FileAppendMaxChunks        int

	// HBAR budget.
	HbarRateLimitDuration   time.Duration
	HbarSpendingPlansConfig string
	HbarBudget              hbar.Budget

	// Cache.
	CacheEntries int
}

// Load reads the configuration from v. Call viper.AutomaticEnv (or bind
// the keys explicitly) beforehand so environment variables take effect.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	chainID, ok := new(big.Int).SetString(v.GetString("CHAIN_ID"), 0)
	if !ok || chainID.Sign() <= 0 {
		return nil, errors.Errorf("invalid CHAIN_ID %q", v.GetString("CHAIN_ID"))
	}

	keyFormat := hapi.OperatorKeyFormat(v.GetString("OPERATOR_KEY_FORMAT"))
	switch keyFormat {
	case hapi.KeyFormatDER, hapi.KeyFormatHexED, hapi.KeyFormatHexECDSA:
	default:
		return nil, errors.Errorf("invalid OPERATOR_KEY_FORMAT %q", keyFormat)
	}

	var errorReset []hapi.Status
	for _, code := range v.GetStringSlice("HAPI_CLIENT_ERROR_RESET") {
		errorReset = append(errorReset, hapi.Status(code))
	}

	cfg := &Config{
		ChainID:       chainID,
		HederaNetwork: v.GetString("HEDERA_NETWORK"),
		Operator: hapi.Operator{
			AccountID: v.GetString("OPERATOR_ID_MAIN"),
			Key:       v.GetString("OPERATOR_KEY_MAIN"),
			KeyFormat: keyFormat,
		},
		MirrorNodeURL: v.GetString("MIRROR_NODE_URL"),

		JSONRPCAddress:       v.GetString("SERVER_ADDRESS"),
		WSAddress:            v.GetString("WS_ADDRESS"),
		MetricsAddress:       v.GetString("METRICS_ADDRESS"),
		HTTPTimeout:          v.GetDuration("HTTP_TIMEOUT"),
		HTTPIdleTimeout:      v.GetDuration("HTTP_IDLE_TIMEOUT"),
		BatchRequestLimit:    cast.ToInt(v.Get("BATCH_REQUEST_LIMIT")),
		BatchResponseMaxSize: cast.ToInt(v.Get("BATCH_RESPONSE_MAX_SIZE")),
		UnsafeCORS:           v.GetBool("UNSAFE_CORS"),

		ReadOnly:            v.GetBool("READ_ONLY"),
		DebugAPIEnabled:     v.GetBool("DEBUG_API_ENABLED"),
		OpcodeLoggerEnabled: v.GetBool("OPCODELOGGER_ENABLED"),
		TxPoolAPIEnabled:    v.GetBool("TXPOOL_API_ENABLED"),
		TxPoolEnabled:       v.GetBool("ENABLE_TX_POOL"),
		AsyncTxProcessing:   v.GetBool("USE_ASYNC_TX_PROCESSING"),
		NonceOrdering:       v.GetBool("ENABLE_NONCE_ORDERING"),
		JumboTxEnabled:      v.GetBool("JUMBO_TX_ENABLED"),

		GasLimitCap:       cast.ToUint64(v.Get("GAS_LIMIT_CAP")),
		ReconcileRetries:  cast.ToInt(v.Get("RECONCILE_RETRIES")),
		ReconcileInterval: v.GetDuration("RECONCILE_INTERVAL"),

		HapiClientTransactionReset: cast.ToInt64(v.Get("HAPI_CLIENT_TRANSACTION_RESET")),
		HapiClientDurationReset:    v.GetDuration("HAPI_CLIENT_DURATION_RESET"),
		HapiClientErrorReset:       errorReset,
		FileAppendChunkSize:        cast.ToInt(v.Get("FILE_APPEND_CHUNK_SIZE")),
		FileAppendMaxChunks:        cast.ToInt(v.Get("FILE_APPEND_MAX_CHUNKS")),

		HbarRateLimitDuration:   v.GetDuration("HBAR_RATE_LIMIT_DURATION"),
		HbarSpendingPlansConfig: v.GetString("HBAR_SPENDING_PLANS_CONFIG"),
		HbarBudget: hbar.Budget{
			Global:        bigFromConfig(v, "HBAR_RATE_LIMIT_TINYBAR"),
			Basic:         bigFromConfig(v, "HBAR_RATE_LIMIT_BASIC"),
			Extended:      bigFromConfig(v, "HBAR_RATE_LIMIT_EXTENDED"),
			Privileged:    bigFromConfig(v, "HBAR_RATE_LIMIT_PRIVILEGED"),
			ResetDuration: v.GetDuration("HBAR_RATE_LIMIT_DURATION"),
		},

		CacheEntries: cast.ToInt(v.Get("CACHE_ENTRIES")),
	}

	if !cfg.ReadOnly && cfg.Operator.AccountID == "" {
		return nil, errors.New("OPERATOR_ID_MAIN is required unless READ_ONLY is set")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CHAIN_ID", "0x12a")
	v.SetDefault("HEDERA_NETWORK", "testnet")
	v.SetDefault("MIRROR_NODE_URL", "https://testnet.mirrornode.hedera.com/api/v1")
	v.SetDefault("OPERATOR_KEY_FORMAT", string(hapi.KeyFormatDER))

	v.SetDefault("SERVER_ADDRESS", DefaultJSONRPCAddress)
	v.SetDefault("WS_ADDRESS", DefaultWSAddress)
	v.SetDefault("METRICS_ADDRESS", DefaultMetricsAddress)
	v.SetDefault("HTTP_TIMEOUT", DefaultHTTPTimeout)
	v.SetDefault("HTTP_IDLE_TIMEOUT", DefaultHTTPIdleTimeout)
	v.SetDefault("BATCH_REQUEST_LIMIT", DefaultBatchRequestLimit)
	v.SetDefault("BATCH_RESPONSE_MAX_SIZE", DefaultMaxBatchResponseSize)

	v.SetDefault("ENABLE_NONCE_ORDERING", true)
	v.SetDefault("ENABLE_TX_POOL", true)
	v.SetDefault("USE_ASYNC_TX_PROCESSING", true)

	v.SetDefault("GAS_LIMIT_CAP", DefaultGasLimitCap)
	v.SetDefault("RECONCILE_RETRIES", DefaultReconcileRetries)
	v.SetDefault("RECONCILE_INTERVAL", DefaultReconcileInterval)

	v.SetDefault("FILE_APPEND_CHUNK_SIZE", hapi.DefaultFileAppendChunkSize)
	v.SetDefault("FILE_APPEND_MAX_CHUNKS", hapi.DefaultFileAppendMaxChunks)

	v.SetDefault("HBAR_RATE_LIMIT_DURATION", 24*time.Hour)

	v.SetDefault("CACHE_ENTRIES", DefaultCacheEntries)
}

// bigFromConfig parses a big integer option; unset or zero yields nil,
// which disables the corresponding cap.
func bigFromConfig(v *viper.Viper, key string) *big.Int {
	raw := v.GetString(key)
	if raw == "" {
		return nil
	}
	value, ok := new(big.Int).SetString(raw, 0)
	if !ok || value.Sign() <= 0 {
		return nil
	}
	return value
}
