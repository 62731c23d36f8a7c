// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"

	approvalHTTP "github.com/MCPTrustFramework/mcpf/internal/approval/http"
	approvalUsecase "github.com/MCPTrustFramework/mcpf/internal/approval/usecase"
	auditHTTP "github.com/MCPTrustFramework/mcpf/internal/audit/http"
	auditUsecase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/config"
	credentialHTTP "github.com/MCPTrustFramework/mcpf/internal/credential/http"
	credentialUsecase "github.com/MCPTrustFramework/mcpf/internal/credential/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/database"
	delegationHTTP "github.com/MCPTrustFramework/mcpf/internal/delegation/http"
	delegationUsecase "github.com/MCPTrustFramework/mcpf/internal/delegation/usecase"
	directoryHTTP "github.com/MCPTrustFramework/mcpf/internal/directory/http"
	directoryUsecase "github.com/MCPTrustFramework/mcpf/internal/directory/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/http"
	"github.com/MCPTrustFramework/mcpf/internal/metrics"
	registryHTTP "github.com/MCPTrustFramework/mcpf/internal/registry/http"
	registryUsecase "github.com/MCPTrustFramework/mcpf/internal/registry/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Repositories
	identityRepo   directoryUsecase.IdentityRepository
	credentialRepo credentialUsecase.CredentialRepository
	revocationRepo credentialUsecase.RevocationRepository
	policyRepo     delegationUsecase.PolicyRepository
	requestRepo    approvalUsecase.RequestRepository
	approverRepo   approvalUsecase.ApproverRepository
	entryRepo      auditUsecase.EntryRepository
	serverRepo     registryUsecase.ServerRepository

	// Use Cases
	identityUseCase   directoryUsecase.UseCase
	credentialUseCase credentialUsecase.UseCase
	delegationUseCase delegationUsecase.UseCase
	approvalUseCase   approvalUsecase.UseCase
	auditUseCase      auditUsecase.UseCase
	registryUseCase   registryUsecase.UseCase

	// Handlers and servers
	agentHandler      *directoryHTTP.AgentHandler
	credentialHandler *credentialHTTP.CredentialHandler
	delegationHandler *delegationHTTP.DelegationHandler
	approvalHandler   *approvalHTTP.ApprovalHandler
	auditHandler      *auditHTTP.AuditHandler
	registryHandler   *registryHTTP.ServerHandler
	httpServer        *http.Server
	metricsServer     *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	txManagerInit         sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	identityRepoInit      sync.Once
	credentialRepoInit    sync.Once
	revocationRepoInit    sync.Once
	policyRepoInit        sync.Once
	requestRepoInit       sync.Once
	approverRepoInit      sync.Once
	entryRepoInit         sync.Once
	serverRepoInit        sync.Once
	identityUseCaseInit   sync.Once
	credentialUseCaseInit sync.Once
	delegationUseCaseInit sync.Once
	approvalUseCaseInit   sync.Once
	auditUseCaseInit      sync.Once
	registryUseCaseInit   sync.Once
	agentHandlerInit      sync.Once
	credentialHandlerInit sync.Once
	delegationHandlerInit sync.Once
	approvalHandlerInit   sync.Once
	auditHandlerInit      sync.Once
	registryHandlerInit   sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// retryConfig builds the repository retry configuration from the database
// knobs.
func (c *Container) retryConfig() database.RetryConfig {
	return database.RetryConfig{
		MaxAttempts: c.config.DBRetryMaxAttempts,
		BaseDelay:   c.config.DBRetryBaseDelay,
	}
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder
// is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server, or nil when metrics are
// disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the API HTTP server with all feature handlers.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	agentHandler, err := c.AgentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get agent handler for http server: %w", err)
	}

	credentialHandler, err := c.CredentialHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential handler for http server: %w", err)
	}

	delegationHandler, err := c.DelegationHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation handler for http server: %w", err)
	}

	approvalHandler, err := c.ApprovalHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get approval handler for http server: %w", err)
	}

	auditHandler, err := c.AuditHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit handler for http server: %w", err)
	}

	registryHandler, err := c.RegistryHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry handler for http server: %w", err)
	}

	handlers := http.Handlers{
		Agent:      agentHandler,
		Credential: credentialHandler,
		Delegation: delegationHandler,
		Approval:   approvalHandler,
		Audit:      auditHandler,
		Registry:   registryHandler,
	}

	var meterProvider metric.MeterProvider
	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		meterProvider = provider.MeterProvider()
	}

	return http.NewServer(db, c.config, logger, handlers, meterProvider), nil
}

// initMetricsServer creates the metrics HTTP server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
