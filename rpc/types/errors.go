package types

import (
	"fmt"
)

// JSON-RPC error codes of the externalised error contract. The code and the
// message template of every kind are stable; clients match on them.
const (
	CodeInvalidArguments       = -32602
	CodeUnsupportedMethod      = -32601
	CodeInternalError          = -32603
	CodeInsufficientFunds      = -32000
	CodeResourceNotFound       = -32001
	CodeUnsupportedOperation   = -32002
	CodeNonceTooLow            = -32004
	CodeGasLimitTooHigh        = -32005
	CodeHbarRateLimitExceeded  = -32606
	CodeGasPriceBelowMinimum   = -32009
	CodeUnsupportedTransaction = -32611
)

// RelayError is the JSON-RPC error shape returned to clients. It implements
// the go-ethereum rpc.Error and rpc.DataError interfaces so the rpc server
// serializes code, message and data without further translation.
type RelayError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *RelayError) Error() string { return e.Message }

// ErrorCode implements rpc.Error.
func (e *RelayError) ErrorCode() int { return e.Code }

// ErrorData implements rpc.DataError.
func (e *RelayError) ErrorData() interface{} { return e.Data }

// NewInvalidArgumentsError reports a parse or validation failure.
func NewInvalidArgumentsError(detail string) *RelayError {
	return &RelayError{Code: CodeInvalidArguments, Message: fmt.Sprintf("Invalid arguments: %s", detail)}
}

// NewUnsupportedMethodError is returned for any method outside the surface.
func NewUnsupportedMethodError() *RelayError {
	return &RelayError{Code: CodeUnsupportedMethod, Message: "Unsupported JSON-RPC method"}
}

// NewUnsupportedOperationError reports an operation that is disabled in the
// current process configuration, e.g. writes while in read-only mode.
func NewUnsupportedOperationError(detail string) *RelayError {
	return &RelayError{Code: CodeUnsupportedOperation, Message: fmt.Sprintf("Unsupported operation. %s", detail)}
}

// NewUnsupportedTransactionType3Error rejects EIP-4844 blob transactions.
func NewUnsupportedTransactionType3Error() *RelayError {
	return &RelayError{Code: CodeUnsupportedTransaction, Message: "Transaction type 3 is not supported"}
}

// NewGasLimitTooHighError reports a gas limit above the configured cap.
func NewGasLimitTooHighError(gasLimit, cap uint64) *RelayError {
	return &RelayError{
		Code:    CodeGasLimitTooHigh,
		Message: fmt.Sprintf("Transaction gas limit '%d' exceeds max gas per sec limit '%d'", gasLimit, cap),
	}
}

// NewGasPriceBelowMinimumError reports an effective gas price under the
// network minimum.
func NewGasPriceBelowMinimumError(gasPrice, minimum string) *RelayError {
	return &RelayError{
		Code:    CodeGasPriceBelowMinimum,
		Message: fmt.Sprintf("Gas price '%s' is below configured minimum gas price '%s'", gasPrice, minimum),
	}
}

// NewValueBelowTinybarError rejects values below one tinybar equivalent.
// Non-zero values under 10^10 weibar cannot be represented on the network.
func NewValueBelowTinybarError() *RelayError {
	return &RelayError{
		Code:    CodeInvalidArguments,
		Message: "Value can't be non-zero and less than 10_000_000_000 wei which is 1 tinybar",
	}
}

// NewInsufficientFundsError reports a sender balance below value + gas*price.
func NewInsufficientFundsError(sender string) *RelayError {
	return &RelayError{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("Insufficient funds for transfer, account: %s", sender),
	}
}

// NewNonceTooLowError reports a nonce below the sender's network nonce.
func NewNonceTooLowError(txNonce, accountNonce uint64) *RelayError {
	return &RelayError{
		Code:    CodeNonceTooLow,
		Message: fmt.Sprintf("Nonce too low. Provided nonce: %d, current nonce: %d", txNonce, accountNonce),
	}
}

// NewResourceNotFoundError reports a missing entity on a direct read path.
func NewResourceNotFoundError(detail string) *RelayError {
	return &RelayError{Code: CodeResourceNotFound, Message: fmt.Sprintf("Requested resource not found. %s", detail)}
}

// NewHbarRateLimitExceededError reports an exhausted spending budget.
func NewHbarRateLimitExceededError() *RelayError {
	return &RelayError{Code: CodeHbarRateLimitExceeded, Message: "HBAR Rate limit exceeded"}
}

// NewInternalError wraps an unclassified failure.
func NewInternalError(detail string) *RelayError {
	if detail == "" {
		detail = "Unknown error invoking RPC"
	}
	return &RelayError{Code: CodeInternalError, Message: detail}
}

// ErrAlreadyKnown is returned when a (sender, nonce) pool entry already
// exists with an equal or higher effective gas price.
func NewAlreadyKnownError() *RelayError {
	return &RelayError{Code: CodeInternalError, Message: "already known"}
}
