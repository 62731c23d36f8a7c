// Package http provides HTTP handlers for audit trail queries.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	"github.com/MCPTrustFramework/mcpf/internal/audit/http/dto"
	auditUseCase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/httputil"
)

// AuditHandler handles HTTP requests for audit trail queries.
type AuditHandler struct {
	auditUseCase auditUseCase.UseCase
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler with required dependencies.
func NewAuditHandler(auditUseCase auditUseCase.UseCase, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		auditUseCase: auditUseCase,
		logger:       logger,
	}
}

// ListHandler retrieves audit entries with pagination and optional filtering.
// GET /v1/audit?kind=delegation&from_sequence=100&offset=0&limit=50&created_at_from=...&created_at_to=...
// Entries are returned in ascending sequence order so consumers can restart a
// scan from the last sequence number they processed.
func (h *AuditHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	fromSequence, err := httputil.ParseSequence(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := auditDomain.Filter{
		FromSequence: fromSequence,
		Offset:       offset,
		Limit:        limit,
	}

	if kindStr := c.Query("kind"); kindStr != "" {
		kind := auditDomain.Kind(kindStr)
		if !kind.Valid() {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid kind: must be one of resolution, verification, delegation, approval"),
				h.logger)
			return
		}
		filter.Kind = kind
	}

	if fromStr := c.Query("created_at_from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid created_at_from format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		filter.CreatedAtFrom = &utcTime
	}

	if toStr := c.Query("created_at_to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			httputil.HandleValidationErrorGin(c,
				fmt.Errorf("invalid created_at_to format: must be RFC3339 (e.g., 2026-02-14T23:59:59Z)"),
				h.logger)
			return
		}
		utcTime := parsed.UTC()
		filter.CreatedAtTo = &utcTime
	}

	if filter.CreatedAtFrom != nil && filter.CreatedAtTo != nil && filter.CreatedAtFrom.After(*filter.CreatedAtTo) {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("created_at_from must be before or equal to created_at_to"),
			h.logger)
		return
	}

	entries, err := h.auditUseCase.Query(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEntriesToListResponse(entries))
}
