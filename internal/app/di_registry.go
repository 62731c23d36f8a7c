package app

import (
	"fmt"

	registryHTTP "github.com/MCPTrustFramework/mcpf/internal/registry/http"
	registryRepository "github.com/MCPTrustFramework/mcpf/internal/registry/repository"
	registryUsecase "github.com/MCPTrustFramework/mcpf/internal/registry/usecase"
)

// ServerRepository returns the MCP server repository based on database driver.
func (c *Container) ServerRepository() (registryUsecase.ServerRepository, error) {
	var err error
	c.serverRepoInit.Do(func() {
		c.serverRepo, err = c.initServerRepository()
		if err != nil {
			c.initErrors["serverRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["serverRepo"]; exists {
		return nil, storedErr
	}
	return c.serverRepo, nil
}

// RegistryUseCase returns the MCP server registry use case.
func (c *Container) RegistryUseCase() (registryUsecase.UseCase, error) {
	var err error
	c.registryUseCaseInit.Do(func() {
		c.registryUseCase, err = c.initRegistryUseCase()
		if err != nil {
			c.initErrors["registryUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registryUseCase"]; exists {
		return nil, storedErr
	}
	return c.registryUseCase, nil
}

// RegistryHandler returns the HTTP handler for the server registry.
func (c *Container) RegistryHandler() (*registryHTTP.ServerHandler, error) {
	var err error
	c.registryHandlerInit.Do(func() {
		c.registryHandler, err = c.initRegistryHandler()
		if err != nil {
			c.initErrors["registryHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registryHandler"]; exists {
		return nil, storedErr
	}
	return c.registryHandler, nil
}

// initServerRepository creates the server repository based on the database driver.
func (c *Container) initServerRepository() (registryUsecase.ServerRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for server repository: %w", err)
	}

	var repo registryUsecase.ServerRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = registryRepository.NewPostgreSQLServerRepository(db)
	case "mysql":
		repo = registryRepository.NewMySQLServerRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return registryRepository.NewRetryingServerRepository(repo, c.retryConfig()), nil
}

// initRegistryUseCase creates the registry use case.
func (c *Container) initRegistryUseCase() (registryUsecase.UseCase, error) {
	serverRepo, err := c.ServerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get server repository for registry use case: %w", err)
	}
	return registryUsecase.NewServerUseCase(serverRepo), nil
}

// initRegistryHandler creates the registry HTTP handler.
func (c *Container) initRegistryHandler() (*registryHTTP.ServerHandler, error) {
	registryUseCase, err := c.RegistryUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get registry use case for registry handler: %w", err)
	}
	return registryHTTP.NewServerHandler(registryUseCase, c.Logger()), nil
}
