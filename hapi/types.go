// Package hapi wraps the consensus-node SDK behind narrow interfaces and
// supervises the long-lived client handle.
package hapi

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Status is a consensus-node precheck/receipt status code.
type Status string

// Status codes the relay reacts to.
const (
	StatusOK                   Status = "OK"
	StatusSuccess              Status = "SUCCESS"
	StatusDuplicateTransaction Status = "DUPLICATE_TRANSACTION"
	StatusWrongNonce           Status = "WRONG_NONCE"
	StatusInsufficientTxFee    Status = "INSUFFICIENT_TX_FEE"
	StatusBusy                 Status = "BUSY"
	StatusPlatformNotActive    Status = "PLATFORM_NOT_ACTIVE"
	StatusPlatformTxNotCreated Status = "PLATFORM_TRANSACTION_NOT_CREATED"
	StatusTimeout              Status = "TIMEOUT"
	StatusInvalidFileID        Status = "INVALID_FILE_ID"
	StatusMaxChunksExceeded    Status = "MAX_CHUNKS_EXCEEDED"
	StatusTransactionExpired   Status = "TRANSACTION_EXPIRED"
	StatusInsufficientPayerBal Status = "INSUFFICIENT_PAYER_BALANCE"
	StatusFileContentEmpty     Status = "FILE_CONTENT_EMPTY"
)

// StatusError is a failed consensus-node interaction carrying its status
// code and the SDK's message.
type StatusError struct {
	Status  Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return string(e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// NewStatusError builds a StatusError from a status code and message.
func NewStatusError(status Status, message string) *StatusError {
	return &StatusError{Status: status, Message: message}
}

// IsTransient reports whether err is a network-level failure that leaves
// the transaction's fate unknown. The mirror node may still have the
// result, so callers fall back to mirror-node reconciliation.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout exceeded") ||
		strings.Contains(msg, "Connection dropped")
}

// StatusOf extracts the status code from err, or empty if err carries none.
func StatusOf(err error) Status {
	if se, ok := err.(*StatusError); ok {
		return se.Status
	}
	return ""
}

// TransactionID identifies a consensus transaction: payer account plus the
// valid-start timestamp, rendered as "0.0.x@seconds.nanos".
type TransactionID struct {
	AccountID  string
	ValidStart time.Time
}

func (id TransactionID) String() string {
	if id.AccountID == "" {
		return ""
	}
	return fmt.Sprintf("%s@%d.%09d", id.AccountID, id.ValidStart.Unix(), id.ValidStart.Nanosecond())
}

// MirrorFormat renders the id the way the mirror node's REST paths expect,
// "0.0.x-seconds-nanos".
func (id TransactionID) MirrorFormat() string {
	if id.AccountID == "" {
		return ""
	}
	return fmt.Sprintf("%s-%d-%09d", id.AccountID, id.ValidStart.Unix(), id.ValidStart.Nanosecond())
}

// IsZero reports whether the id is unset.
func (id TransactionID) IsZero() bool { return id.AccountID == "" }

// FileID identifies a file entity on the consensus node, "0.0.x".
type FileID string

// TransactionResponse is the consensus node's acknowledgment of a
// submitted transaction.
type TransactionResponse struct {
	TransactionID TransactionID
	NodeID        string
}

// TransactionRecord is the committed outcome of a consensus transaction,
// as reported by a record query.
type TransactionRecord struct {
	TransactionID  TransactionID
	Status         Status
	TransactionFee *big.Int // tinybar
	GasUsed        int64
	EthereumHash   []byte
	FileID         FileID
}

// FileInfo describes a file entity.
type FileInfo struct {
	FileID  FileID
	Size    int64
	Deleted bool
}
