package hapi

import (
	"context"
	"math/big"
	"time"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/pkg/errors"
)

// hederaClient adapts the Hedera SDK to the ConsensusClient surface. One
// instance wraps one SDK client handle; the Supervisor rotates instances.
type hederaClient struct {
	client *hedera.Client
}

// NewHederaClientFactory returns a factory building SDK clients for the
// named network ("mainnet", "testnet", "previewnet") with the operator
// configured as payer.
func NewHederaClientFactory(network string, operator Operator) ClientFactory {
	return func() (ConsensusClient, error) {
		client, err := hedera.ClientForName(network)
		if err != nil {
			return nil, errors.Wrap(err, "unknown hedera network")
		}

		accountID, err := hedera.AccountIDFromString(operator.AccountID)
		if err != nil {
			return nil, errors.Wrap(err, "invalid operator account id")
		}

		var key hedera.PrivateKey
		switch operator.KeyFormat {
		case KeyFormatHexED:
			key, err = hedera.PrivateKeyFromStringEd25519(operator.Key)
		case KeyFormatHexECDSA:
			key, err = hedera.PrivateKeyFromStringECDSA(operator.Key)
		default:
			key, err = hedera.PrivateKeyFromStringDer(operator.Key)
		}
		if err != nil {
			return nil, errors.Wrap(err, "invalid operator key")
		}

		client.SetOperator(accountID, key)
		return &hederaClient{client: client}, nil
	}
}

func (c *hederaClient) SubmitEthereumTransaction(_ context.Context, rawTx []byte, callDataFile FileID) (*TransactionResponse, error) {
	tx := hedera.NewEthereumTransaction().SetEthereumData(rawTx)
	if callDataFile != "" {
		fileID, err := hedera.FileIDFromString(string(callDataFile))
		if err != nil {
			return nil, errors.Wrap(err, "invalid call data file id")
		}
		tx.SetCallDataFileID(fileID)
	}

	resp, err := tx.Execute(c.client)
	if err != nil {
		return nil, translateSDKError(err)
	}
	return responseFromSDK(resp), nil
}

func (c *hederaClient) CreateFile(_ context.Context, contents []byte) (*TransactionResponse, error) {
	resp, err := hedera.NewFileCreateTransaction().
		SetKeys(c.client.GetOperatorPublicKey()).
		SetContents(contents).
		Execute(c.client)
	if err != nil {
		return nil, translateSDKError(err)
	}
	return responseFromSDK(resp), nil
}

func (c *hederaClient) AppendFile(_ context.Context, fileID FileID, contents []byte) (*TransactionResponse, error) {
	id, err := hedera.FileIDFromString(string(fileID))
	if err != nil {
		return nil, errors.Wrap(err, "invalid file id")
	}
	resp, err := hedera.NewFileAppendTransaction().
		SetFileID(id).
		SetContents(contents).
		Execute(c.client)
	if err != nil {
		return nil, translateSDKError(err)
	}
	return responseFromSDK(resp), nil
}

func (c *hederaClient) DeleteFile(_ context.Context, fileID FileID) (*TransactionResponse, error) {
	id, err := hedera.FileIDFromString(string(fileID))
	if err != nil {
		return nil, errors.Wrap(err, "invalid file id")
	}
	resp, err := hedera.NewFileDeleteTransaction().
		SetFileID(id).
		Execute(c.client)
	if err != nil {
		return nil, translateSDKError(err)
	}
	return responseFromSDK(resp), nil
}

func (c *hederaClient) GetFileInfo(_ context.Context, fileID FileID) (*FileInfo, error) {
	id, err := hedera.FileIDFromString(string(fileID))
	if err != nil {
		return nil, errors.Wrap(err, "invalid file id")
	}
	info, err := hedera.NewFileInfoQuery().
		SetFileID(id).
		Execute(c.client)
	if err != nil {
		return nil, translateSDKError(err)
	}
	return &FileInfo{
		FileID:  FileID(info.FileID.String()),
		Size:    info.Size,
		Deleted: info.IsDeleted,
	}, nil
}

func (c *hederaClient) GetTransactionRecord(_ context.Context, id TransactionID) (*TransactionRecord, error) {
	sdkID, err := hedera.TransactionIdFromString(id.String())
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction id")
	}
	record, err := hedera.NewTransactionRecordQuery().
		SetTransactionID(sdkID).
		Execute(c.client)
	if err != nil {
		return nil, translateSDKError(err)
	}

	out := &TransactionRecord{
		TransactionID:  id,
		Status:         Status(record.Receipt.Status.String()),
		TransactionFee: big.NewInt(record.TransactionFee.AsTinybar()),
		EthereumHash:   record.EthereumHash,
	}
	if record.CallResult != nil {
		out.GasUsed = int64(record.CallResult.GasUsed) // #nosec G115
	}
	if record.Receipt.FileID != nil {
		out.FileID = FileID(record.Receipt.FileID.String())
	}
	return out, nil
}

func (c *hederaClient) Close() error {
	return c.client.Close()
}

func responseFromSDK(resp hedera.TransactionResponse) *TransactionResponse {
	out := &TransactionResponse{
		TransactionID: TransactionID{
			ValidStart: validStartOf(resp.TransactionID),
		},
		NodeID: resp.NodeID.String(),
	}
	if resp.TransactionID.AccountID != nil {
		out.TransactionID.AccountID = resp.TransactionID.AccountID.String()
	}
	return out
}

func validStartOf(id hedera.TransactionID) time.Time {
	if id.ValidStart != nil {
		return *id.ValidStart
	}
	return time.Time{}
}

// translateSDKError maps SDK status errors onto StatusError so the
// supervisor's reset triggers and the transient-failure classifier see the
// raw status code.
func translateSDKError(err error) error {
	var precheck hedera.ErrHederaPreCheckStatus
	if errors.As(err, &precheck) {
		return NewStatusError(Status(precheck.Status.String()), err.Error())
	}
	var receipt hedera.ErrHederaReceiptStatus
	if errors.As(err, &receipt) {
		return NewStatusError(Status(receipt.Status.String()), err.Error())
	}
	return err
}
