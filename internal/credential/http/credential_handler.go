// Package http provides HTTP handlers for credential verification and
// revocation.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MCPTrustFramework/mcpf/internal/credential/http/dto"
	credentialUseCase "github.com/MCPTrustFramework/mcpf/internal/credential/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/httputil"
)

// CredentialHandler handles HTTP requests for credential operations.
type CredentialHandler struct {
	credentialUseCase credentialUseCase.UseCase
	logger            *slog.Logger
}

// NewCredentialHandler creates a new credential handler with required
// dependencies.
func NewCredentialHandler(useCase credentialUseCase.UseCase, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{
		credentialUseCase: useCase,
		logger:            logger,
	}
}

// VerifyHandler verifies a submitted credential.
// POST /v1/credentials/verify
// Always returns 200 with a verdict for a decodable request; a negative
// verdict is not an HTTP error.
func (h *CredentialHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyCredentialRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	result, err := h.credentialUseCase.Verify(c.Request.Context(), req.ToCredential(), req.ExpectedSubjectDID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, dto.MapResultToResponse(result))
}

// VerifyAgentHandler verifies the newest stored credential for a DID.
// GET /v1/credentials/verify-agent?did=did:web:...
func (h *CredentialHandler) VerifyAgentHandler(c *gin.Context) {
	did := c.Query("did")

	result, err := h.credentialUseCase.VerifyAgent(c.Request.Context(), did)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, dto.MapResultToResponse(result))
}

// StoreHandler stores an issued credential for later verify-agent lookups.
// POST /v1/credentials
func (h *CredentialHandler) StoreHandler(c *gin.Context) {
	var req dto.StoreCredentialRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	credential := req.ToCredential()
	if err := h.credentialUseCase.Store(c.Request.Context(), credential); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusCreated, dto.StoredCredentialResponse{ID: credential.ID})
}

// RevokeHandler records a revocation id.
// POST /v1/credentials/revoke
func (h *CredentialHandler) RevokeHandler(c *gin.Context) {
	var req dto.RevokeCredentialRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.credentialUseCase.Revoke(c.Request.Context(), req.RevocationID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
