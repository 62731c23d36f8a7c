// Package http provides HTTP handlers for the agent directory.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MCPTrustFramework/mcpf/internal/directory/http/dto"
	directoryUseCase "github.com/MCPTrustFramework/mcpf/internal/directory/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/httputil"
)

// AgentHandler handles HTTP requests for identity registration and name
// resolution.
type AgentHandler struct {
	identityUseCase directoryUseCase.UseCase
	logger          *slog.Logger
}

// NewAgentHandler creates a new agent handler with required dependencies.
func NewAgentHandler(identityUseCase directoryUseCase.UseCase, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{
		identityUseCase: identityUseCase,
		logger:          logger,
	}
}

// RegisterHandler publishes an agent identity.
// POST /v1/agents
// Registering a name that already exists publishes a new version; resolvers
// observe the new version as soon as their cache entry expires or is
// invalidated.
func (h *AgentHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterAgentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	input, err := dto.ToRegisterIdentityInput(&req)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	identity, err := h.identityUseCase.Register(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusCreated, dto.MapIdentityToResponse(identity))
}

// ResolveHandler resolves an agent name to its identity.
// GET /v1/agents/resolve?name=fraud-detector.risk.dbs.example.agent
func (h *AgentHandler) ResolveHandler(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("name query parameter is required"), h.logger)
		return
	}

	identity, err := h.identityUseCase.Resolve(c.Request.Context(), name)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	httputil.MakeJSONResponse(c.Writer, http.StatusOK, dto.MapIdentityToResponse(identity))
}
