package eip712

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

const primaryType = "SignedNonce"

// EthVerifier implements Verifier interface using go-ethereum
type EthVerifier struct {
	config    Config
	nonces    NonceChecker
	typedData apitypes.TypedData
	now       func() time.Time
	logger    *zap.Logger
}

// Compile-time interface compliance check
var _ Verifier = (*EthVerifier)(nil)

// NewEthVerifier creates a new EIP-712 verifier
func NewEthVerifier(config Config, nonces NonceChecker, logger *zap.Logger) *EthVerifier {
	if config.TimestampTolerance == 0 {
		config.TimestampTolerance = DefaultTimestampTolerance
	}
	if config.DomainName == "" {
		config.DomainName = DefaultDomainName
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	domainTypes := []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	}
	// verifyingContract is optional in the domain; an empty value must not be hashed
	if config.VerifyingContract != "" {
		domainTypes = append(domainTypes, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainTypes,
			primaryType: {
				{Name: "wallet", Type: "address"},
				{Name: "nonce", Type: "string"},
				{Name: "timestamp", Type: "uint256"},
			},
		},
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              config.DomainName,
			Version:           "1",
			ChainId:           (*math.HexOrDecimal256)(big.NewInt(config.ChainID)),
			VerifyingContract: config.VerifyingContract,
		},
	}

	return &EthVerifier{
		config:    config,
		nonces:    nonces,
		typedData: typedData,
		now:       time.Now,
		logger:    logger,
	}
}

// VerifySignedNonce checks address, wallet, timestamp and signature, then consumes the nonce.
// The nonce is only consumed once the signature is known to be valid.
func (v *EthVerifier) VerifySignedNonce(
	ctx context.Context,
	address string,
	message SignedNonceMessage,
	signature []byte,
) error {
	if !common.IsHexAddress(address) {
		return ErrInvalidAddress
	}
	if !strings.EqualFold(message.Wallet, address) {
		return ErrWalletMismatch
	}

	if err := v.validateTimestamp(message.Timestamp); err != nil {
		return err
	}

	valid, err := v.VerifySignatureOnly(address, message, signature)
	if err != nil {
		return err
	}
	if !valid {
		return ErrAddressMismatch
	}

	ok, err := v.nonces.Check(ctx, message.Nonce)
	if err != nil {
		v.logger.Error("nonce check failed",
			zap.String("address", address),
			zap.Error(err),
		)
		return fmt.Errorf("nonce validation failed: %w", err)
	}
	if !ok {
		v.logger.Warn("signed request with rejected nonce",
			zap.String("address", address),
			zap.String("nonce", message.Nonce),
		)
		return ErrNonceRejected
	}

	v.logger.Info("signed nonce verified", zap.String("address", address))
	return nil
}

// VerifySignatureOnly verifies only the cryptographic signature
func (v *EthVerifier) VerifySignatureOnly(
	address string,
	message SignedNonceMessage,
	signature []byte,
) (bool, error) {
	if len(signature) != 65 {
		return false, ErrInvalidSignatureLen
	}

	digest, err := v.digest(message)
	if err != nil {
		return false, err
	}

	// Normalize v value (27/28 -> 0/1)
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return false, fmt.Errorf("failed to recover public key: %w", err)
	}

	recoveredAddr := crypto.PubkeyToAddress(*pubKey)
	return strings.EqualFold(recoveredAddr.Hex(), address), nil
}

// digest returns keccak256("\x19\x01" || domainSeparator || hashStruct(message))
func (v *EthVerifier) digest(message SignedNonceMessage) ([]byte, error) {
	messageMap := apitypes.TypedDataMessage{
		"wallet":    message.Wallet,
		"nonce":     message.Nonce,
		"timestamp": big.NewInt(message.Timestamp),
	}

	domainSeparator, err := v.typedData.HashStruct("EIP712Domain", v.typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := v.typedData.HashStruct(primaryType, messageMap)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	// byte-level concatenation, not string
	rawData := make([]byte, 0, 66)
	rawData = append(rawData, 0x19, 0x01)
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)

	return crypto.Keccak256(rawData), nil
}

// validateTimestamp checks if the timestamp is within acceptable range
func (v *EthVerifier) validateTimestamp(timestamp int64) error {
	msgTime := time.Unix(timestamp, 0)
	now := v.now()

	if msgTime.Before(now.Add(-v.config.TimestampTolerance)) {
		return ErrSignatureExpired
	}
	if msgTime.After(now.Add(v.config.TimestampTolerance)) {
		return ErrSignatureFuture
	}
	return nil
}
