// Package http provides the API server, its middleware, and the metrics
// server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	approvalHTTP "github.com/MCPTrustFramework/mcpf/internal/approval/http"
	auditHTTP "github.com/MCPTrustFramework/mcpf/internal/audit/http"
	"github.com/MCPTrustFramework/mcpf/internal/config"
	credentialHTTP "github.com/MCPTrustFramework/mcpf/internal/credential/http"
	delegationHTTP "github.com/MCPTrustFramework/mcpf/internal/delegation/http"
	directoryHTTP "github.com/MCPTrustFramework/mcpf/internal/directory/http"
	"github.com/MCPTrustFramework/mcpf/internal/metrics"
	registryHTTP "github.com/MCPTrustFramework/mcpf/internal/registry/http"
)

// Handlers groups the feature handlers mounted on the API server.
type Handlers struct {
	Agent      *directoryHTTP.AgentHandler
	Credential *credentialHTTP.CredentialHandler
	Delegation *delegationHTTP.DelegationHandler
	Approval   *approvalHTTP.ApprovalHandler
	Audit      *auditHTTP.AuditHandler
	Registry   *registryHTTP.ServerHandler
}

// Server represents the API HTTP server.
type Server struct {
	server        *http.Server
	db            *sql.DB
	logger        *slog.Logger
	handlers      Handlers
	cfg           *config.Config
	meterProvider metric.MeterProvider
}

// NewServer creates a new API server. The db handle backs the readiness
// probe. meterProvider may be nil when metrics are disabled.
func NewServer(
	db *sql.DB,
	cfg *config.Config,
	logger *slog.Logger,
	handlers Handlers,
	meterProvider metric.MeterProvider,
) *Server {
	server := &Server{
		db:            db,
		logger:        logger,
		handlers:      handlers,
		cfg:           cfg,
		meterProvider: meterProvider,
	}
	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:      server.createRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// createRouter builds the gin engine with middleware and all routes.
func (s *Server) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if s.meterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(s.meterProvider, s.cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(s.cfg.CORSEnabled, s.cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Admin routes mutate trust state; they carry a per-client rate limit
	// so a runaway client cannot flood registrations or policy changes.
	admin := v1.Group("")
	if s.cfg.RateLimitEnabled {
		admin.Use(RateLimitMiddleware(s.cfg.RateLimitRequestsPerSec, s.cfg.RateLimitBurst))
	}

	v1.GET("/agents/resolve", s.handlers.Agent.ResolveHandler)
	admin.POST("/agents", s.handlers.Agent.RegisterHandler)

	v1.POST("/credentials/verify", s.handlers.Credential.VerifyHandler)
	v1.GET("/credentials/verify-agent", s.handlers.Credential.VerifyAgentHandler)
	admin.POST("/credentials", s.handlers.Credential.StoreHandler)
	admin.POST("/credentials/revoke", s.handlers.Credential.RevokeHandler)

	v1.POST("/delegations/check", s.handlers.Delegation.CheckHandler)
	v1.GET("/policies", s.handlers.Delegation.ListPoliciesHandler)
	admin.POST("/policies", s.handlers.Delegation.CreatePolicyHandler)
	admin.POST("/policies/reload", s.handlers.Delegation.ReloadPoliciesHandler)

	v1.GET("/approvals/pending", s.handlers.Approval.ListPendingHandler)
	v1.POST("/approvals/:id/respond", s.handlers.Approval.RespondHandler)
	admin.POST("/approvers", s.handlers.Approval.RegisterApproverHandler)

	v1.GET("/audit", s.handlers.Audit.ListHandler)

	v1.GET("/registry/servers", s.handlers.Registry.SearchHandler)
	admin.POST("/registry/servers", s.handlers.Registry.RegisterHandler)

	return router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can reach its dependencies.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
