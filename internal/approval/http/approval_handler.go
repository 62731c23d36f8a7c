// Package http provides HTTP handlers for approval coordination.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MCPTrustFramework/mcpf/internal/approval/http/dto"
	approvalUseCase "github.com/MCPTrustFramework/mcpf/internal/approval/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/httputil"
)

// ApprovalHandler handles HTTP requests for approval operations.
type ApprovalHandler struct {
	approvalUseCase approvalUseCase.UseCase
	logger          *slog.Logger
}

// NewApprovalHandler creates a new approval handler with required
// dependencies.
func NewApprovalHandler(useCase approvalUseCase.UseCase, logger *slog.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		approvalUseCase: useCase,
		logger:          logger,
	}
}

// ListPendingHandler retrieves pending approval requests.
// GET /v1/approvals/pending?offset=0&limit=50
func (h *ApprovalHandler) ListPendingHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	requests, err := h.approvalUseCase.ListPending(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.ListRequestsResponse{
		Requests: make([]dto.RequestResponse, 0, len(requests)),
		Offset:   offset,
		Limit:    limit,
	}
	for _, request := range requests {
		response.Requests = append(response.Requests, dto.MapRequestToResponse(request))
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, response)
}

// RespondHandler settles a pending approval request.
// POST /v1/approvals/:id/respond
func (h *ApprovalHandler) RespondHandler(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid request id"), h.logger)
		return
	}

	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	approverID, err := uuid.Parse(req.ApproverID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid approver id"), h.logger)
		return
	}

	err = h.approvalUseCase.Respond(c.Request.Context(), requestID, approverID, req.Secret, req.Approve)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterApproverHandler registers a new approver.
// POST /v1/approvers
// The generated secret appears in this response exactly once.
func (h *ApprovalHandler) RegisterApproverHandler(c *gin.Context) {
	var req dto.RegisterApproverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	output, err := h.approvalUseCase.RegisterApprover(c.Request.Context(), req.Name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.RegisterApproverResponse{
		ID:        output.Approver.ID,
		Name:      output.Approver.Name,
		Secret:    output.PlainSecret,
		CreatedAt: output.Approver.CreatedAt,
	}
	httputil.MakeJSONResponse(c.Writer, http.StatusCreated, response)
}
