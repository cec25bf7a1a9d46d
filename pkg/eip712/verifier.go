package eip712

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultTimestampTolerance is the default allowed time drift for signatures
	DefaultTimestampTolerance = 5 * time.Minute

	// DefaultDomainName is the EIP-712 domain name used when none is configured
	DefaultDomainName = "Nonce Service"
)

// SignedNonceMessage represents the EIP-712 typed data message
type SignedNonceMessage struct {
	Wallet    string `json:"wallet"`
	Nonce     string `json:"nonce"`
	Timestamp int64  `json:"timestamp"`
}

// Config holds EIP-712 domain configuration
type Config struct {
	DomainName         string
	ChainID            int64
	VerifyingContract  string
	TimestampTolerance time.Duration
}

// NonceChecker consumes a nonce, reporting whether it was valid
type NonceChecker interface {
	Check(ctx context.Context, token string) (bool, error)
}

// Verifier defines the interface for EIP-712 signature verification
type Verifier interface {
	// VerifySignedNonce verifies the signature over message and then consumes its nonce
	VerifySignedNonce(ctx context.Context, address string, message SignedNonceMessage, signature []byte) error

	// VerifySignatureOnly verifies only the cryptographic signature without nonce handling
	VerifySignatureOnly(address string, message SignedNonceMessage, signature []byte) (bool, error)
}

// Error definitions
var (
	ErrSignatureExpired    = errors.New("signature timestamp expired")
	ErrSignatureFuture     = errors.New("signature timestamp is in the future")
	ErrInvalidAddress      = errors.New("invalid ethereum address")
	ErrAddressMismatch     = errors.New("recovered address does not match")
	ErrWalletMismatch      = errors.New("message wallet does not match address")
	ErrInvalidSignatureLen = errors.New("signature must be 65 bytes")
	ErrNonceRejected       = errors.New("nonce is unknown, used or expired")
)
