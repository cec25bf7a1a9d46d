package nonces

import "time"

// ============================================================================
// Request DTOs
// ============================================================================

// CreateNonceRequest represents the optional request body for nonce issuance.
// Omitting duration_ms uses the configured default; zero or negative issues
// a token that is never stored.
type CreateNonceRequest struct {
	DurationMS *int64 `json:"duration_ms,omitempty" example:"60000"`
}

// CheckNonceRequest represents the request body for nonce consumption
type CheckNonceRequest struct {
	Nonce string `json:"nonce" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// VerifySignatureRequest represents an EIP-712 signed nonce
type VerifySignatureRequest struct {
	Address string `json:"address" binding:"required,len=42" example:"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"`
	// Signature: 0x prefix + 130 hex chars (65 bytes)
	Signature string                 `json:"signature" binding:"required,len=132" example:"0x1234...abcd"`
	Message   VerifySignatureMessage `json:"message" binding:"required"`
}

// VerifySignatureMessage contains the EIP-712 message data
type VerifySignatureMessage struct {
	Wallet    string `json:"wallet" binding:"required,len=42" example:"0x742d35Cc6634C0532925a3b844Bc454e4438f44e"`
	Nonce     string `json:"nonce" binding:"required,max=64" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp int64  `json:"timestamp" binding:"required,gt=0" example:"1706000000"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// CreateNonceResponse represents an issued nonce
type CreateNonceResponse struct {
	Nonce     string     `json:"nonce" example:"550e8400-e29b-41d4-a716-446655440000"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Persisted bool       `json:"persisted" example:"true"`
}

// CheckNonceResponse reports the outcome of a check
type CheckNonceResponse struct {
	Valid bool `json:"valid" example:"true"`
}

// PruneNoncesResponse reports how many expired nonces were removed
type PruneNoncesResponse struct {
	Removed int64 `json:"removed" example:"3"`
}

// VerifySignatureResponse reports a successful signed nonce verification
type VerifySignatureResponse struct {
	Verified bool `json:"verified" example:"true"`
}
