package app

import (
	"context"
	"fmt"

	auditHTTP "github.com/MCPTrustFramework/mcpf/internal/audit/http"
	auditRepository "github.com/MCPTrustFramework/mcpf/internal/audit/repository"
	auditService "github.com/MCPTrustFramework/mcpf/internal/audit/service"
	auditUsecase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
)

// EntryRepository returns the audit entry repository based on database driver.
func (c *Container) EntryRepository() (auditUsecase.EntryRepository, error) {
	var err error
	c.entryRepoInit.Do(func() {
		c.entryRepo, err = c.initEntryRepository()
		if err != nil {
			c.initErrors["entryRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["entryRepo"]; exists {
		return nil, storedErr
	}
	return c.entryRepo, nil
}

// AuditUseCase returns the audit log use case.
func (c *Container) AuditUseCase() (auditUsecase.UseCase, error) {
	var err error
	c.auditUseCaseInit.Do(func() {
		c.auditUseCase, err = c.initAuditUseCase()
		if err != nil {
			c.initErrors["auditUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUseCase, nil
}

// AuditHandler returns the HTTP handler for audit log queries.
func (c *Container) AuditHandler() (*auditHTTP.AuditHandler, error) {
	var err error
	c.auditHandlerInit.Do(func() {
		c.auditHandler, err = c.initAuditHandler()
		if err != nil {
			c.initErrors["auditHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditHandler, nil
}

// initEntryRepository creates the audit entry repository based on the database driver.
func (c *Container) initEntryRepository() (auditUsecase.EntryRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit entry repository: %w", err)
	}

	var repo auditUsecase.EntryRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = auditRepository.NewPostgreSQLEntryRepository(db)
	case "mysql":
		repo = auditRepository.NewMySQLEntryRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return auditRepository.NewRetryingEntryRepository(repo, c.retryConfig()), nil
}

// initAuditUseCase creates the audit use case. The signing root key is
// unwrapped through the configured KMS keeper at startup; a server that
// cannot sign audit entries must not come up.
func (c *Container) initAuditUseCase() (auditUsecase.UseCase, error) {
	entryRepo, err := c.EntryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get entry repository for audit use case: %w", err)
	}

	keyLoader := auditService.NewKeyLoader()
	rootKey, err := keyLoader.LoadRootKey(
		context.Background(),
		c.config.KMSKeyURI,
		c.config.AuditSigningKeyWrapped,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit signing key: %w", err)
	}

	return auditUsecase.NewAuditUseCase(entryRepo, auditService.NewSigner(), rootKey), nil
}

// initAuditHandler creates the audit HTTP handler.
func (c *Container) initAuditHandler() (*auditHTTP.AuditHandler, error) {
	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for audit handler: %w", err)
	}
	return auditHTTP.NewAuditHandler(auditUseCase, c.Logger()), nil
}
