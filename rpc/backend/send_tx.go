package backend

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/hashgraph/json-rpc-relay-go/hapi"
	"github.com/hashgraph/json-rpc-relay-go/metrics"
	"github.com/hashgraph/json-rpc-relay-go/mirror"
	"github.com/hashgraph/json-rpc-relay-go/pool"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
)

// SendRawTransaction accepts a signed transaction and resolves it to a
// transaction hash, or a well-typed error. See the package documentation
// for the pipeline stages.
func (b *Backend) SendRawTransaction(ctx context.Context, input hexutil.Bytes) (common.Hash, error) {
	rc := b.requestContext(ctx)

	tx, sender, err := b.parseRawTransaction(input)
	if err != nil {
		metrics.EthereumTransactions.WithLabelValues("rejected").Inc()
		return common.Hash{}, err
	}

	if b.Cfg.ReadOnly || b.Supervisor == nil {
		return common.Hash{}, rpctypes.NewUnsupportedOperationError("Relay is in read-only mode")
	}

	if err := b.precheck(ctx, tx, sender); err != nil {
		metrics.EthereumTransactions.WithLabelValues("rejected").Inc()
		return common.Hash{}, err
	}

	// Per-sender serialization. The token ties every release to this
	// acquisition; all failure paths below must release before returning.
	var token string
	if b.Cfg.NonceOrdering {
		token, err = b.Locks.Acquire(ctx, sender)
		if err != nil {
			metrics.EthereumTransactions.WithLabelValues("lock_timeout").Inc()
			if errors.Is(err, pool.ErrLockTimeout) {
				return common.Hash{}, rpctypes.NewInternalError(err.Error())
			}
			return common.Hash{}, err
		}
	}
	release := func() {
		if token != "" {
			b.Locks.Release(sender, token)
			token = ""
		}
	}

	pooled := false
	if b.Cfg.TxPoolEnabled {
		entry := &pool.Entry{
			Sender:      sender,
			Tx:          tx,
			RawBytes:    input,
			SubmittedAt: time.Now(),
			Session:     token,
		}
		if err := b.Pool.Admit(entry); err != nil {
			release()
			metrics.EthereumTransactions.WithLabelValues("duplicate").Inc()
			return common.Hash{}, rpctypes.NewAlreadyKnownError()
		}
		pooled = true
		metrics.PendingPoolSize.Set(float64(b.Pool.Len()))
	}
	removeFromPool := func() {
		if pooled {
			b.Pool.Remove(sender, tx.Nonce())
			metrics.PendingPoolSize.Set(float64(b.Pool.Len()))
		}
	}

	// Large call data is staged as a file unless jumbo transactions may go
	// inline. The consensus node reads the payload from the staged file, so
	// the inline envelope is re-encoded without it.
	submitBytes := []byte(input)
	var callDataFile hapi.FileID
	if !b.Cfg.JumboTxEnabled && len(input) > b.Cfg.FileAppendChunkSize && len(tx.Data()) > 0 {
		callDataFile, err = b.Supervisor.CreateFile(ctx, tx.Data(), sender, rc)
		if err != nil {
			release()
			removeFromPool()
			metrics.EthereumTransactions.WithLabelValues("staging_failed").Inc()
			return common.Hash{}, asRelayError(err)
		}
		submitBytes, err = encodeWithoutCallData(tx)
		if err != nil {
			release()
			removeFromPool()
			metrics.EthereumTransactions.WithLabelValues("staging_failed").Inc()
			return common.Hash{}, rpctypes.NewInternalError(err.Error())
		}
	}

	if b.Limiter != nil && b.Limiter.ShouldLimit(ctx, hapi.ModeTransaction, "eth_sendRawTransaction",
		hapi.ConstructorEthereumTransaction, sender, rc) {
		release()
		removeFromPool()
		metrics.EthereumTransactions.WithLabelValues("rate_limited").Inc()
		return common.Hash{}, rpctypes.NewHbarRateLimitExceededError()
	}

	resp, submitErr := b.Supervisor.SubmitEthereumTransaction(ctx, submitBytes, callDataFile, sender, rc)

	// The nonce is consumed the moment the consensus node accepts the
	// submission; later submissions from this sender may overlap with
	// reconciliation.
	release()

	localHash := tx.Hash()

	if submitErr != nil && !hapi.IsTransient(submitErr) {
		removeFromPool()
		metrics.EthereumTransactions.WithLabelValues("failed").Inc()
		return common.Hash{}, asRelayError(submitErr)
	}

	var txID hapi.TransactionID
	if resp != nil {
		txID = resp.TransactionID
	}

	// Async mode answers with the local hash once the submission is in
	// flight; a transient error leaves the outcome to reconciliation.
	if b.Cfg.AsyncTxProcessing {
		if txID.IsZero() {
			// Nothing to reconcile against; surface the local hash as-is.
			removeFromPool()
			metrics.EthereumTransactions.WithLabelValues("accepted").Inc()
			return localHash, nil
		}
		go b.reconcileAsync(txID, localHash, sender, tx.Nonce(), pooled)
		metrics.EthereumTransactions.WithLabelValues("accepted").Inc()
		return localHash, nil
	}

	hash, err := b.reconcileSync(ctx, txID, localHash, submitErr)
	removeFromPool()
	if err != nil {
		metrics.EthereumTransactions.WithLabelValues("failed").Inc()
		return common.Hash{}, err
	}
	metrics.EthereumTransactions.WithLabelValues("accepted").Inc()
	return hash, nil
}

// encodeWithoutCallData re-encodes a signed envelope with its call data
// removed, keeping the original signature fields. The stripped form is
// what goes inline when the call data travels as a staged file; the
// transaction hash served to the caller stays the one of the full
// envelope.
func encodeWithoutCallData(tx *ethtypes.Transaction) ([]byte, error) {
	v, r, s := tx.RawSignatureValues()
	var inner ethtypes.TxData
	switch tx.Type() {
	case ethtypes.LegacyTxType:
		inner = &ethtypes.LegacyTx{
			Nonce:    tx.Nonce(),
			GasPrice: tx.GasPrice(),
			Gas:      tx.Gas(),
			To:       tx.To(),
			Value:    tx.Value(),
			V:        v, R: r, S: s,
		}
	case ethtypes.AccessListTxType:
		inner = &ethtypes.AccessListTx{
			ChainID:    tx.ChainId(),
			Nonce:      tx.Nonce(),
			GasPrice:   tx.GasPrice(),
			Gas:        tx.Gas(),
			To:         tx.To(),
			Value:      tx.Value(),
			AccessList: tx.AccessList(),
			V:          v, R: r, S: s,
		}
	case ethtypes.DynamicFeeTxType:
		inner = &ethtypes.DynamicFeeTx{
			ChainID:    tx.ChainId(),
			Nonce:      tx.Nonce(),
			GasTipCap:  tx.GasTipCap(),
			GasFeeCap:  tx.GasFeeCap(),
			Gas:        tx.Gas(),
			To:         tx.To(),
			Value:      tx.Value(),
			AccessList: tx.AccessList(),
			V:          v, R: r, S: s,
		}
	default:
		return nil, errors.Errorf("cannot strip call data from transaction type %d", tx.Type())
	}
	return ethtypes.NewTx(inner).MarshalBinary()
}

// reconcileSync polls the mirror node for the committed result and returns
// the hash it reports. Absence throughout the retry budget falls back to
// the locally computed hash when the submission itself succeeded.
func (b *Backend) reconcileSync(ctx context.Context, txID hapi.TransactionID, localHash common.Hash, submitErr error) (common.Hash, error) {
	if txID.IsZero() {
		if submitErr != nil {
			return common.Hash{}, rpctypes.NewInternalError(submitErr.Error())
		}
		return common.Hash{}, rpctypes.NewInternalError("consensus node returned an empty transaction id")
	}

	result := b.pollContractResult(ctx, txID)
	if result != nil && result.Hash != "" {
		mirrorHash := common.HexToHash(result.Hash)
		if mirrorHash != localHash {
			b.reportHashMismatch(txID, localHash, mirrorHash)
		}
		return mirrorHash, nil
	}

	// The mirror node never surfaced the result. A transient submission
	// error now becomes terminal; a clean submission trusts the local hash.
	if submitErr != nil {
		return common.Hash{}, rpctypes.NewInternalError(submitErr.Error())
	}
	return localHash, nil
}

// reconcileAsync is the background half of async mode: it waits for the
// mirror node to surface the result, flags hash mismatches, and clears the
// pool entry.
func (b *Backend) reconcileAsync(txID hapi.TransactionID, localHash common.Hash, sender common.Address, nonce uint64, pooled bool) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(b.Cfg.ReconcileRetries+1)*b.Cfg.ReconcileInterval)
	defer cancel()

	result := b.pollContractResult(ctx, txID)
	switch {
	case result == nil:
		b.Logger.Info("transaction not surfaced by mirror node within retry budget",
			"transaction_id", txID.String(), "hash", localHash.Hex())
	case result.Hash != "" && common.HexToHash(result.Hash) != localHash:
		b.reportHashMismatch(txID, localHash, common.HexToHash(result.Hash))
	case result.Result != mirror.ResultSuccess:
		b.Logger.Debug("transaction committed with failure result",
			"hash", localHash.Hex(), "result", result.Result)
	}

	if pooled {
		b.Pool.Remove(sender, nonce)
		metrics.PendingPoolSize.Set(float64(b.Pool.Len()))
	}
}

// pollContractResult polls contracts/results/{tx_id} with the configured
// retry budget. nil means the result never appeared.
func (b *Backend) pollContractResult(ctx context.Context, txID hapi.TransactionID) *mirror.ContractResult {
	ref := txID.MirrorFormat()
	for attempt := 0; attempt <= b.Cfg.ReconcileRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(b.Cfg.ReconcileInterval):
			}
		}
		result, err := b.Mirror.GetContractResultUncached(ctx, ref)
		if err == nil {
			return result
		}
		if !mirror.IsNotFound(err) {
			b.Logger.Error("mirror node poll failed", "transaction_id", ref, "error", err)
		}
	}
	return nil
}

// reportHashMismatch flags a divergence between the locally computed hash
// and the one the mirror node committed. This must never happen for a
// well-formed envelope; treat it as an alert condition.
func (b *Backend) reportHashMismatch(txID hapi.TransactionID, localHash, mirrorHash common.Hash) {
	metrics.HashMismatches.Inc()
	b.Logger.Error("FATAL transaction hash mismatch between local computation and mirror node",
		"transaction_id", txID.String(), "local_hash", localHash.Hex(), "mirror_hash", mirrorHash.Hex())
}

// asRelayError passes through typed relay errors and wraps everything else
// as internal.
func asRelayError(err error) error {
	var relayErr *rpctypes.RelayError
	if errors.As(err, &relayErr) {
		return relayErr
	}
	return rpctypes.NewInternalError(err.Error())
}
