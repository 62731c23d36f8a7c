package app

import (
	"fmt"

	credentialHTTP "github.com/MCPTrustFramework/mcpf/internal/credential/http"
	credentialRepository "github.com/MCPTrustFramework/mcpf/internal/credential/repository"
	credentialService "github.com/MCPTrustFramework/mcpf/internal/credential/service"
	credentialUsecase "github.com/MCPTrustFramework/mcpf/internal/credential/usecase"
)

// CredentialRepository returns the credential repository based on database driver.
func (c *Container) CredentialRepository() (credentialUsecase.CredentialRepository, error) {
	var err error
	c.credentialRepoInit.Do(func() {
		c.credentialRepo, err = c.initCredentialRepository()
		if err != nil {
			c.initErrors["credentialRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialRepo"]; exists {
		return nil, storedErr
	}
	return c.credentialRepo, nil
}

// RevocationRepository returns the revocation repository based on database driver.
func (c *Container) RevocationRepository() (credentialUsecase.RevocationRepository, error) {
	var err error
	c.revocationRepoInit.Do(func() {
		c.revocationRepo, err = c.initRevocationRepository()
		if err != nil {
			c.initErrors["revocationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["revocationRepo"]; exists {
		return nil, storedErr
	}
	return c.revocationRepo, nil
}

// CredentialUseCase returns the credential verification use case.
func (c *Container) CredentialUseCase() (credentialUsecase.UseCase, error) {
	var err error
	c.credentialUseCaseInit.Do(func() {
		c.credentialUseCase, err = c.initCredentialUseCase()
		if err != nil {
			c.initErrors["credentialUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialUseCase"]; exists {
		return nil, storedErr
	}
	return c.credentialUseCase, nil
}

// CredentialHandler returns the HTTP handler for credential verification.
func (c *Container) CredentialHandler() (*credentialHTTP.CredentialHandler, error) {
	var err error
	c.credentialHandlerInit.Do(func() {
		c.credentialHandler, err = c.initCredentialHandler()
		if err != nil {
			c.initErrors["credentialHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialHandler"]; exists {
		return nil, storedErr
	}
	return c.credentialHandler, nil
}

// initCredentialRepository creates the credential repository based on the database driver.
func (c *Container) initCredentialRepository() (credentialUsecase.CredentialRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
	}

	var repo credentialUsecase.CredentialRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = credentialRepository.NewPostgreSQLCredentialRepository(db)
	case "mysql":
		repo = credentialRepository.NewMySQLCredentialRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return credentialRepository.NewRetryingCredentialRepository(repo, c.retryConfig()), nil
}

// initRevocationRepository creates the revocation repository based on the database driver.
func (c *Container) initRevocationRepository() (credentialUsecase.RevocationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for revocation repository: %w", err)
	}

	var repo credentialUsecase.RevocationRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = credentialRepository.NewPostgreSQLRevocationRepository(db)
	case "mysql":
		repo = credentialRepository.NewMySQLRevocationRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return credentialRepository.NewRetryingRevocationRepository(repo, c.retryConfig()), nil
}

// initCredentialUseCase creates the credential use case with all its
// dependencies. The directory's identity repository doubles as the issuer
// directory: issuer keys are agent identities.
func (c *Container) initCredentialUseCase() (credentialUsecase.UseCase, error) {
	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for credential use case: %w", err)
	}

	revocationRepo, err := c.RevocationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get revocation repository for credential use case: %w", err)
	}

	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for credential use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for credential use case: %w", err)
	}

	useCase := credentialUsecase.NewCredentialUseCase(
		credentialRepo,
		revocationRepo,
		identityRepo,
		credentialService.NewProofVerifier(),
		auditUseCase,
		c.config.VerifyCacheTTL,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for credential use case: %w", err)
	}

	return credentialUsecase.NewCredentialUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initCredentialHandler creates the credential HTTP handler.
func (c *Container) initCredentialHandler() (*credentialHTTP.CredentialHandler, error) {
	credentialUseCase, err := c.CredentialUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential use case for credential handler: %w", err)
	}
	return credentialHTTP.NewCredentialHandler(credentialUseCase, c.Logger()), nil
}
