package hapi

import (
	"context"
)

// OperatorKeyFormat selects how the operator's private key is encoded.
type OperatorKeyFormat string

const (
	KeyFormatDER      OperatorKeyFormat = "DER"
	KeyFormatHexED    OperatorKeyFormat = "HEX_ED25519"
	KeyFormatHexECDSA OperatorKeyFormat = "HEX_ECDSA"
)

// Operator is the account that pays for consensus submissions.
type Operator struct {
	AccountID string
	Key       string
	KeyFormat OperatorKeyFormat
}

// ConsensusClient is one connection to the consensus network. Handles are
// built by a ClientFactory and rotated by the Supervisor; callers obtain
// them through Supervisor.GetClient and never hold one across submissions.
type ConsensusClient interface {
	// SubmitEthereumTransaction submits a signed RLP envelope, optionally
	// referencing a staged call-data file.
	SubmitEthereumTransaction(ctx context.Context, rawTx []byte, callDataFile FileID) (*TransactionResponse, error)

	// CreateFile creates a file seeded with the first chunk of contents.
	CreateFile(ctx context.Context, contents []byte) (*TransactionResponse, error)

	// AppendFile appends one chunk to an existing file.
	AppendFile(ctx context.Context, fileID FileID, contents []byte) (*TransactionResponse, error)

	// DeleteFile marks a staged file as deleted after use.
	DeleteFile(ctx context.Context, fileID FileID) (*TransactionResponse, error)

	// GetFileInfo queries a file's metadata.
	GetFileInfo(ctx context.Context, fileID FileID) (*FileInfo, error)

	// GetTransactionRecord queries the committed record of a transaction.
	GetTransactionRecord(ctx context.Context, id TransactionID) (*TransactionRecord, error)

	// Close releases the underlying network channels.
	Close() error
}

// ClientFactory builds a fresh ConsensusClient. The Supervisor calls it at
// startup and on every reset.
type ClientFactory func() (ConsensusClient, error)
