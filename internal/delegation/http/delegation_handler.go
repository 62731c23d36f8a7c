// Package http provides HTTP handlers for the delegation policy engine.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MCPTrustFramework/mcpf/internal/delegation/http/dto"
	delegationUseCase "github.com/MCPTrustFramework/mcpf/internal/delegation/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/httputil"
)

// DelegationHandler handles HTTP requests for delegation checks and policy
// management.
type DelegationHandler struct {
	delegationUseCase delegationUseCase.UseCase
	logger            *slog.Logger
}

// NewDelegationHandler creates a new delegation handler with required
// dependencies.
func NewDelegationHandler(useCase delegationUseCase.UseCase, logger *slog.Logger) *DelegationHandler {
	return &DelegationHandler{
		delegationUseCase: useCase,
		logger:            logger,
	}
}

// CheckHandler decides a delegation attempt.
// POST /v1/delegations/check
// A denial is a 200 with allowed=false; only infrastructure failures map to
// error statuses. When the matched policy requires approval the request
// blocks until an approver responds or the wait times out.
func (h *DelegationHandler) CheckHandler(c *gin.Context) {
	var req dto.CheckDelegationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	decision, err := h.delegationUseCase.CheckDelegation(c.Request.Context(), req.FromDID, req.ToDID, req.Action)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, dto.MapDecisionToResponse(decision))
}

// CreatePolicyHandler stores a policy and activates it.
// POST /v1/policies
func (h *DelegationHandler) CreatePolicyHandler(c *gin.Context) {
	var req dto.CreatePolicyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	policy, err := h.delegationUseCase.CreatePolicy(c.Request.Context(), dto.ToCreatePolicyInput(&req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusCreated, dto.MapPolicyToResponse(policy))
}

// ListPoliciesHandler lists stored policies.
// GET /v1/policies?offset=0&limit=50
func (h *DelegationHandler) ListPoliciesHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	policies, err := h.delegationUseCase.ListPolicies(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, dto.MapPoliciesToResponse(policies))
}

// ReloadPoliciesHandler rebuilds the active policy set from storage and the
// declarative policy file.
// POST /v1/policies/reload
func (h *DelegationHandler) ReloadPoliciesHandler(c *gin.Context) {
	count, err := h.delegationUseCase.ReloadPolicies(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, dto.ReloadResponse{ActivePolicies: count})
}
