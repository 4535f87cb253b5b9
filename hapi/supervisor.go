package hapi

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/hashgraph/json-rpc-relay-go/metrics"
	"github.com/hashgraph/json-rpc-relay-go/mirror"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"

	"cosmossdk.io/log"
)

// Execution modes reported to the budget limiter.
const (
	ModeTransaction = "TRANSACTION"
	ModeQuery       = "QUERY"
)

// Transaction constructor names used for limiter bookkeeping and logs.
const (
	ConstructorEthereumTransaction = "EthereumTransaction"
	ConstructorFileCreate          = "FileCreateTransaction"
	ConstructorFileAppend          = "FileAppendTransaction"
	ConstructorFileDelete          = "FileDeleteTransaction"
	ConstructorRecordQuery         = "TransactionRecordQuery"
)

// Defaults for large-payload staging.
const (
	DefaultFileAppendChunkSize = 2048
	DefaultFileAppendMaxChunks = 20
)

// ErrFileEmpty is returned when a staged call-data file reads back empty.
var ErrFileEmpty = errors.New("Created file is empty.")

// Limiter is the budget gate consulted before every consensus submission.
// Satisfied by hbar.Limiter.
type Limiter interface {
	ShouldLimit(ctx context.Context, mode, methodName, txConstructor string, sender common.Address, rc rpctypes.RequestContext) bool
	AddExpense(ctx context.Context, amount *big.Int, txConstructor string, sender common.Address, rc rpctypes.RequestContext)
}

// ExchangeRateSource supplies the current cent/hbar rate for record-charge
// accounting. Satisfied by mirror.Client.
type ExchangeRateSource interface {
	GetExchangeRate(ctx context.Context) (*mirror.ExchangeRateResponse, error)
}

// Config carries the supervisor's reset policy and staging limits.
type Config struct {
	// TransactionReset rebuilds the client after this many GetClient calls.
	// Zero disables the count trigger.
	TransactionReset int64
	// DurationReset rebuilds the client when it has been alive this long.
	// Zero disables the time trigger.
	DurationReset time.Duration
	// ErrorStatusReset rebuilds the client after a submission fails with
	// one of these status codes.
	ErrorStatusReset []Status

	FileAppendChunkSize int
	FileAppendMaxChunks int
}

// Supervisor owns the process-global consensus client handle. It rebuilds
// the handle when the configured transaction-count, duration, or
// error-code triggers fire, and performs fee accounting for every
// committed submission.
type Supervisor struct {
	mtx     sync.Mutex
	factory ClientFactory
	client  ConsensusClient

	cfg           Config
	txRemaining   int64
	resetDeadline time.Time
	shouldReset   bool
	reinitEnabled bool
	errorTriggers map[Status]struct{}

	limiter Limiter
	rates   ExchangeRateSource
	logger  log.Logger
}

// NewSupervisor builds the initial client handle and arms the reset policy.
// Reinitialization is disabled entirely when all three triggers are unset.
func NewSupervisor(factory ClientFactory, cfg Config, limiter Limiter, rates ExchangeRateSource, logger log.Logger) (*Supervisor, error) {
	if cfg.FileAppendChunkSize <= 0 {
		cfg.FileAppendChunkSize = DefaultFileAppendChunkSize
	}
	if cfg.FileAppendMaxChunks <= 0 {
		cfg.FileAppendMaxChunks = DefaultFileAppendMaxChunks
	}

	client, err := factory()
	if err != nil {
		return nil, errors.Wrap(err, "initializing consensus client")
	}

	triggers := make(map[Status]struct{}, len(cfg.ErrorStatusReset))
	for _, s := range cfg.ErrorStatusReset {
		triggers[s] = struct{}{}
	}

	s := &Supervisor{
		factory:       factory,
		client:        client,
		cfg:           cfg,
		txRemaining:   cfg.TransactionReset,
		errorTriggers: triggers,
		reinitEnabled: cfg.TransactionReset > 0 || cfg.DurationReset > 0 || len(triggers) > 0,
		limiter:       limiter,
		rates:         rates,
		logger:        logger.With(log.ModuleKey, "hapi_supervisor"),
	}
	if cfg.DurationReset > 0 {
		s.resetDeadline = time.Now().Add(cfg.DurationReset)
	}
	if !s.reinitEnabled {
		s.logger.Info("consensus client reinitialization disabled")
	}
	return s, nil
}

// GetClient returns the current handle, rebuilding it first when a reset
// trigger has fired. Submissions use the returned snapshot; a concurrent
// reset never invalidates a handle already handed out.
func (s *Supervisor) GetClient() (ConsensusClient, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.reinitEnabled && s.shouldReset {
		if err := s.rebuildLocked(); err != nil {
			return nil, err
		}
	}

	if s.cfg.TransactionReset > 0 {
		s.txRemaining--
		if s.txRemaining <= 0 {
			s.shouldReset = true
			s.logger.Debug("transaction-count reset latched")
		}
	}
	if s.cfg.DurationReset > 0 && time.Now().After(s.resetDeadline) {
		s.shouldReset = true
		s.logger.Debug("duration reset latched")
	}

	return s.client, nil
}

// rebuildLocked swaps the handle. Callers hold s.mtx.
func (s *Supervisor) rebuildLocked() error {
	next, err := s.factory()
	if err != nil {
		return errors.Wrap(err, "rebuilding consensus client")
	}
	if closeErr := s.client.Close(); closeErr != nil {
		s.logger.Error("closing stale consensus client", "error", closeErr)
	}
	s.client = next
	s.txRemaining = s.cfg.TransactionReset
	if s.cfg.DurationReset > 0 {
		s.resetDeadline = time.Now().Add(s.cfg.DurationReset)
	}
	s.shouldReset = false
	metrics.ConsensusClientResets.WithLabelValues("policy").Inc()
	s.logger.Info("consensus client reinitialized")
	return nil
}

// ReportError latches a reset when status is one of the configured error
// triggers.
func (s *Supervisor) ReportError(status Status) {
	if status == "" {
		return
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, hit := s.errorTriggers[status]; hit {
		s.shouldReset = true
		metrics.ConsensusClientResets.WithLabelValues("error").Inc()
		s.logger.Info("error-code reset latched", "status", status)
	}
}

// SubmitEthereumTransaction submits a signed envelope through the current
// handle, classifies failures for the reset policy, and records the fee
// against the caller's spending plan.
func (s *Supervisor) SubmitEthereumTransaction(ctx context.Context, rawTx []byte, callDataFile FileID, sender common.Address, rc rpctypes.RequestContext) (*TransactionResponse, error) {
	client, err := s.GetClient()
	if err != nil {
		return nil, err
	}

	resp, err := client.SubmitEthereumTransaction(ctx, rawTx, callDataFile)
	if err != nil {
		s.ReportError(StatusOf(err))
		metrics.EthereumTransactions.WithLabelValues("consensus_error").Inc()
		return nil, err
	}

	s.recordExpense(ctx, client, resp.TransactionID, ConstructorEthereumTransaction, sender, rc)
	return resp, nil
}

// CreateFile stages contents as a file on the consensus node, chunked for
// appends. Invariant: it returns either a handle to a non-empty file or an
// error, never a handle to an empty one.
func (s *Supervisor) CreateFile(ctx context.Context, contents []byte, sender common.Address, rc rpctypes.RequestContext) (FileID, error) {
	if len(contents) == 0 {
		return "", errors.New("refusing to stage empty call data")
	}
	client, err := s.GetClient()
	if err != nil {
		return "", err
	}

	chunkSize := s.cfg.FileAppendChunkSize
	first := contents
	if len(first) > chunkSize {
		first = contents[:chunkSize]
	}
	rest := contents[len(first):]

	appendChunks := (len(rest) + chunkSize - 1) / chunkSize
	if appendChunks > s.cfg.FileAppendMaxChunks {
		return "", errors.Errorf("call data needs %d append chunks, limit is %d", appendChunks, s.cfg.FileAppendMaxChunks)
	}

	if s.limiter != nil && s.limiter.ShouldLimit(ctx, ModeTransaction, "eth_sendRawTransaction", ConstructorFileCreate, sender, rc) {
		return "", rpctypes.NewHbarRateLimitExceededError()
	}
	resp, err := client.CreateFile(ctx, first)
	if err != nil {
		s.ReportError(StatusOf(err))
		return "", errors.Wrap(err, "file create")
	}
	record := s.recordExpense(ctx, client, resp.TransactionID, ConstructorFileCreate, sender, rc)
	if record == nil || record.FileID == "" {
		return "", errors.New("file create committed without a file id")
	}
	fileID := record.FileID

	for offset := 0; offset < len(rest); offset += chunkSize {
		end := offset + chunkSize
		if end > len(rest) {
			end = len(rest)
		}
		// A budget exceedance mid-staging abandons the remaining chunks.
		if s.limiter != nil && s.limiter.ShouldLimit(ctx, ModeTransaction, "eth_sendRawTransaction", ConstructorFileAppend, sender, rc) {
			metrics.FileAppendChunks.WithLabelValues("limited").Inc()
			return "", rpctypes.NewHbarRateLimitExceededError()
		}
		appendResp, err := client.AppendFile(ctx, fileID, rest[offset:end])
		if err != nil {
			s.ReportError(StatusOf(err))
			metrics.FileAppendChunks.WithLabelValues("failure").Inc()
			return "", errors.Wrapf(err, "file append at offset %d", offset)
		}
		metrics.FileAppendChunks.WithLabelValues("success").Inc()
		s.recordExpense(ctx, client, appendResp.TransactionID, ConstructorFileAppend, sender, rc)
	}

	info, err := client.GetFileInfo(ctx, fileID)
	if err != nil {
		return "", errors.Wrap(err, "verifying staged file")
	}
	if info.Size == 0 {
		return "", ErrFileEmpty
	}
	if info.Size < int64(len(contents)) {
		s.logger.Error("staged file shorter than call data",
			"file_id", fileID, "file_size", info.Size, "call_data_size", len(contents), "request_id", rc.RequestID)
		return "", errors.Errorf("staged file holds %d bytes, call data is %d", info.Size, len(contents))
	}
	return fileID, nil
}

// DeleteFile removes a staged file after the enclosing submission. Errors
// are reported to the reset policy and returned; callers treat them as
// best-effort cleanup.
func (s *Supervisor) DeleteFile(ctx context.Context, fileID FileID, sender common.Address, rc rpctypes.RequestContext) error {
	client, err := s.GetClient()
	if err != nil {
		return err
	}
	resp, err := client.DeleteFile(ctx, fileID)
	if err != nil {
		s.ReportError(StatusOf(err))
		return err
	}
	s.recordExpense(ctx, client, resp.TransactionID, ConstructorFileDelete, sender, rc)
	return nil
}

// recordExpense fetches the committed record for id and charges the
// transaction fee plus the record-query charge to the caller's plan.
// Accounting failures are logged, never surfaced: the submission itself
// already succeeded.
func (s *Supervisor) recordExpense(ctx context.Context, client ConsensusClient, id TransactionID, constructor string, sender common.Address, rc rpctypes.RequestContext) *TransactionRecord {
	if id.IsZero() {
		return nil
	}
	record, err := client.GetTransactionRecord(ctx, id)
	if err != nil {
		s.logger.Error("transaction record unavailable, fee not charged",
			"transaction_id", id.String(), "constructor", constructor, "error", err)
		return nil
	}

	amount := new(big.Int)
	if record.TransactionFee != nil {
		amount.Set(record.TransactionFee)
	}
	amount.Add(amount, s.recordChargeTinybar(ctx))

	if amount.Sign() > 0 {
		metrics.ConsensusTransactionFees.Add(float64(amount.Int64()))
		if s.limiter != nil {
			s.limiter.AddExpense(ctx, amount, constructor, sender, rc)
		}
	}
	s.logger.Debug("consensus fee charged",
		"transaction_id", id.String(), "constructor", constructor,
		"amount_tinybar", amount.String(), "gas_used", record.GasUsed, "request_id", rc.RequestID)
	return record
}

// Cost of a transaction record query, in hundredths of a cent.
const recordQueryFeeCentiCents = 1

// recordChargeTinybar converts the record-query fee to tinybar at the
// current exchange rate. A missing rate charges nothing.
func (s *Supervisor) recordChargeTinybar(ctx context.Context) *big.Int {
	if s.rates == nil {
		return new(big.Int)
	}
	resp, err := s.rates.GetExchangeRate(ctx)
	if err != nil || resp.CurrentRate.CentEquivalent <= 0 {
		if err != nil {
			s.logger.Debug("exchange rate unavailable, record charge skipped", "error", err)
		}
		return new(big.Int)
	}
	return RecordChargeTinybar(resp.CurrentRate)
}

// RecordChargeTinybar computes the record-query charge for one rate
// window: fee_cents / (cent_equivalent / hbar_equivalent) hbar, rounded
// half up to tinybar.
func RecordChargeTinybar(rate mirror.ExchangeRate) *big.Int {
	if rate.CentEquivalent <= 0 || rate.HbarEquivalent <= 0 {
		return new(big.Int)
	}
	// fee(hbar) = (centiCents/100) / (cent/hbar); tinybar = hbar * 1e8
	num := new(big.Int).SetInt64(rate.HbarEquivalent)
	num.Mul(num, big.NewInt(recordQueryFeeCentiCents*1_000_000))
	den := big.NewInt(rate.CentEquivalent)
	num.Add(num, new(big.Int).Rsh(den, 1))
	return num.Div(num, den)
}
