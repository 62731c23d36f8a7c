// Package http provides HTTP handlers for the MCP server registry.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MCPTrustFramework/mcpf/internal/httputil"
	"github.com/MCPTrustFramework/mcpf/internal/registry/http/dto"
	registryUseCase "github.com/MCPTrustFramework/mcpf/internal/registry/usecase"
)

// ServerHandler handles HTTP requests for the server registry.
type ServerHandler struct {
	serverUseCase registryUseCase.UseCase
	logger        *slog.Logger
}

// NewServerHandler creates a new registry handler with required dependencies.
func NewServerHandler(serverUseCase registryUseCase.UseCase, logger *slog.Logger) *ServerHandler {
	return &ServerHandler{
		serverUseCase: serverUseCase,
		logger:        logger,
	}
}

// RegisterHandler publishes an MCP server record.
// POST /v1/registry/servers
func (h *ServerHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterServerRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	server, err := h.serverUseCase.Register(c.Request.Context(), dto.ToRegisterServerInput(&req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusCreated, dto.MapServerToResponse(server))
}

// SearchHandler lists servers advertising a capability.
// GET /v1/registry/servers?capability=tool_search&offset=0&limit=50
func (h *ServerHandler) SearchHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	servers, err := h.serverUseCase.Search(c.Request.Context(), c.Query("capability"), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, dto.MapServersToResponse(servers))
}
