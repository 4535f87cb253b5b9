// Package web3 exposes the web3_* JSON-RPC namespace.
package web3

import (
	"fmt"
	"runtime"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Version is the relay release reported by web3_clientVersion; set at
// build time via -ldflags.
var Version = "dev"

// PublicAPI is the web3_ prefixed set of APIs.
type PublicAPI struct{}

// NewPublicAPI creates an instance of the Web3 API.
func NewPublicAPI() *PublicAPI {
	return &PublicAPI{}
}

// ClientVersion returns the client version in the Web3 user agent format.
func (a *PublicAPI) ClientVersion() string {
	return fmt.Sprintf("relay/%s/%s-%s/%s", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// Sha3 returns the keccak-256 hash of the passed-in input.
func (a *PublicAPI) Sha3(input hexutil.Bytes) hexutil.Bytes {
	return crypto.Keccak256(input)
}
