package nonces

import (
	"encoding/hex"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ahwlsqja/nonce-service/internal/common/errors"
	"github.com/ahwlsqja/nonce-service/internal/common/middleware"
	"github.com/ahwlsqja/nonce-service/pkg/eip712"
	"github.com/ahwlsqja/nonce-service/pkg/nonce"
)

// Handler handles HTTP requests for nonce operations
type Handler struct {
	service  *nonce.Service
	verifier eip712.Verifier
	logger   *zap.Logger
}

// NewHandler creates a new nonce handler.
// verifier may be nil, in which case the signature route is not registered.
func NewHandler(service *nonce.Service, verifier eip712.Verifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// RegisterRoutes registers nonce routes on the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	nonces := rg.Group("/nonces")
	{
		nonces.POST("", h.CreateNonce)
		nonces.POST("/check", h.CheckNonce)
		nonces.POST("/prune", h.PruneNonces)
		if h.verifier != nil {
			nonces.POST("/verify-signature", h.VerifySignature)
		}
	}
}

// CreateNonce godoc
// @Summary Issue a nonce
// @Description Issue a single-use nonce. duration_ms defaults to the configured duration; zero or negative yields an unstored token.
// @Tags nonces
// @Accept json
// @Produce json
// @Param request body CreateNonceRequest false "Nonce duration"
// @Success 201 {object} middleware.SuccessResponse{data=CreateNonceResponse} "Nonce issued"
// @Failure 400 {object} middleware.ErrorResponse "Invalid input"
// @Failure 503 {object} middleware.ErrorResponse "Storage unavailable"
// @Router /api/v1/nonces [post]
func (h *Handler) CreateNonce(c *gin.Context) {
	var req CreateNonceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		middleware.RespondError(c, errors.InvalidInput(err.Error()))
		return
	}

	duration := h.service.DefaultDuration()
	if req.DurationMS != nil {
		switch ms := *req.DurationMS; {
		case ms > nonce.MaxDurationMS:
			middleware.RespondError(c, errors.InvalidInput("duration_ms is too large").
				WithDetails(map[string]any{"max_duration_ms": nonce.MaxDurationMS}))
			return
		case ms <= 0:
			// never stored; large negatives must not wrap into a positive duration
			duration = 0
		default:
			duration = time.Duration(ms) * time.Millisecond
		}
	}

	now := h.service.Now()
	token, err := h.service.CreateFor(c.Request.Context(), duration, now)
	if err != nil {
		middleware.RespondError(c, errors.StorageError(err))
		return
	}

	resp := CreateNonceResponse{Nonce: token, Persisted: duration > 0}
	if duration > 0 {
		expiresAt := nonce.Expiration(now, duration)
		resp.ExpiresAt = &expiresAt
		middleware.SetNonceOutcome(c, "issued")
	} else {
		middleware.SetNonceOutcome(c, "issued_unstored")
	}
	middleware.RespondCreated(c, resp)
}

// CheckNonce godoc
// @Summary Check and consume a nonce
// @Description Validate a nonce and consume it. Unknown, used, expired and empty nonces all report valid=false.
// @Tags nonces
// @Accept json
// @Produce json
// @Param request body CheckNonceRequest true "Nonce to check"
// @Success 200 {object} middleware.SuccessResponse{data=CheckNonceResponse} "Check outcome"
// @Failure 400 {object} middleware.ErrorResponse "Invalid input"
// @Failure 503 {object} middleware.ErrorResponse "Storage unavailable"
// @Router /api/v1/nonces/check [post]
func (h *Handler) CheckNonce(c *gin.Context) {
	var req CheckNonceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		middleware.RespondError(c, errors.InvalidInput(err.Error()))
		return
	}

	valid, err := h.service.Check(c.Request.Context(), req.Nonce)
	if err != nil {
		middleware.RespondError(c, errors.StorageError(err))
		return
	}

	if valid {
		middleware.SetNonceOutcome(c, "used")
	} else {
		middleware.SetNonceOutcome(c, "rejected")
	}
	middleware.RespondOK(c, CheckNonceResponse{Valid: valid})
}

// PruneNonces godoc
// @Summary Prune expired nonces
// @Description Remove every nonce whose expiration has passed
// @Tags nonces
// @Produce json
// @Success 200 {object} middleware.SuccessResponse{data=PruneNoncesResponse} "Prune outcome"
// @Failure 503 {object} middleware.ErrorResponse "Storage unavailable"
// @Router /api/v1/nonces/prune [post]
func (h *Handler) PruneNonces(c *gin.Context) {
	removed, err := h.service.Prune(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, errors.StorageError(err))
		return
	}

	middleware.SetNonceOutcome(c, "pruned")
	middleware.RespondOK(c, PruneNoncesResponse{Removed: removed})
}

// VerifySignature godoc
// @Summary Verify an EIP-712 signed nonce
// @Description Verify the signature over (wallet, nonce, timestamp), then consume the nonce
// @Tags nonces
// @Accept json
// @Produce json
// @Param request body VerifySignatureRequest true "Signed nonce"
// @Success 200 {object} middleware.SuccessResponse{data=VerifySignatureResponse} "Verified"
// @Failure 400 {object} middleware.ErrorResponse "Invalid input"
// @Failure 401 {object} middleware.ErrorResponse "Signature or nonce rejected"
// @Failure 503 {object} middleware.ErrorResponse "Storage unavailable"
// @Router /api/v1/nonces/verify-signature [post]
func (h *Handler) VerifySignature(c *gin.Context) {
	var req VerifySignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.InvalidInput(err.Error()))
		return
	}

	signature, err := parseSignature(req.Signature)
	if err != nil {
		middleware.RespondError(c, errors.InvalidInput("Invalid signature format"))
		return
	}

	message := eip712.SignedNonceMessage{
		Wallet:    req.Message.Wallet,
		Nonce:     req.Message.Nonce,
		Timestamp: req.Message.Timestamp,
	}

	err = h.verifier.VerifySignedNonce(c.Request.Context(), req.Address, message, signature)
	switch {
	case err == nil:
		middleware.SetNonceOutcome(c, "used")
		middleware.RespondOK(c, VerifySignatureResponse{Verified: true})
	case stderrors.Is(err, nonce.ErrStorage):
		middleware.RespondError(c, errors.StorageError(err))
	case stderrors.Is(err, eip712.ErrInvalidAddress):
		middleware.RespondError(c, errors.InvalidInput("Invalid Ethereum address format"))
	default:
		middleware.SetNonceOutcome(c, "rejected")
		h.logger.Warn("signed nonce rejected",
			zap.String("address", req.Address),
			zap.Error(err),
		)
		middleware.RespondError(c, errors.SignatureInvalid(err.Error()))
	}
}

// parseSignature parses hex signature string to bytes
func parseSignature(sig string) ([]byte, error) {
	sig = strings.TrimPrefix(sig, "0x")
	if len(sig) != 130 {
		return nil, errors.InvalidInput("Signature must be 65 bytes")
	}
	return hex.DecodeString(sig)
}
