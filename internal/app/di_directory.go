package app

import (
	"fmt"

	directoryHTTP "github.com/MCPTrustFramework/mcpf/internal/directory/http"
	directoryRepository "github.com/MCPTrustFramework/mcpf/internal/directory/repository"
	directoryUsecase "github.com/MCPTrustFramework/mcpf/internal/directory/usecase"
)

// IdentityRepository returns the agent identity repository based on database driver.
func (c *Container) IdentityRepository() (directoryUsecase.IdentityRepository, error) {
	var err error
	c.identityRepoInit.Do(func() {
		c.identityRepo, err = c.initIdentityRepository()
		if err != nil {
			c.initErrors["identityRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityRepo"]; exists {
		return nil, storedErr
	}
	return c.identityRepo, nil
}

// IdentityUseCase returns the directory use case.
func (c *Container) IdentityUseCase() (directoryUsecase.UseCase, error) {
	var err error
	c.identityUseCaseInit.Do(func() {
		c.identityUseCase, err = c.initIdentityUseCase()
		if err != nil {
			c.initErrors["identityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityUseCase"]; exists {
		return nil, storedErr
	}
	return c.identityUseCase, nil
}

// AgentHandler returns the HTTP handler for identity registration and
// resolution.
func (c *Container) AgentHandler() (*directoryHTTP.AgentHandler, error) {
	var err error
	c.agentHandlerInit.Do(func() {
		c.agentHandler, err = c.initAgentHandler()
		if err != nil {
			c.initErrors["agentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["agentHandler"]; exists {
		return nil, storedErr
	}
	return c.agentHandler, nil
}

// initIdentityRepository creates the identity repository based on the database driver.
func (c *Container) initIdentityRepository() (directoryUsecase.IdentityRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for identity repository: %w", err)
	}

	var repo directoryUsecase.IdentityRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = directoryRepository.NewPostgreSQLIdentityRepository(db)
	case "mysql":
		repo = directoryRepository.NewMySQLIdentityRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return directoryRepository.NewRetryingIdentityRepository(repo, c.retryConfig()), nil
}

// initIdentityUseCase creates the directory use case with all its dependencies.
func (c *Container) initIdentityUseCase() (directoryUsecase.UseCase, error) {
	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for identity use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for identity use case: %w", err)
	}

	useCase := directoryUsecase.NewIdentityUseCase(identityRepo, auditUseCase, c.config.ResolveCacheTTL)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for identity use case: %w", err)
	}

	return directoryUsecase.NewIdentityUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initAgentHandler creates the agent HTTP handler.
func (c *Container) initAgentHandler() (*directoryHTTP.AgentHandler, error) {
	identityUseCase, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for agent handler: %w", err)
	}
	return directoryHTTP.NewAgentHandler(identityUseCase, c.Logger()), nil
}
