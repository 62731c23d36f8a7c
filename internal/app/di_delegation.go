package app

import (
	"fmt"

	delegationHTTP "github.com/MCPTrustFramework/mcpf/internal/delegation/http"
	delegationRepository "github.com/MCPTrustFramework/mcpf/internal/delegation/repository"
	delegationUsecase "github.com/MCPTrustFramework/mcpf/internal/delegation/usecase"
)

// PolicyRepository returns the delegation policy repository based on database driver.
func (c *Container) PolicyRepository() (delegationUsecase.PolicyRepository, error) {
	var err error
	c.policyRepoInit.Do(func() {
		c.policyRepo, err = c.initPolicyRepository()
		if err != nil {
			c.initErrors["policyRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["policyRepo"]; exists {
		return nil, storedErr
	}
	return c.policyRepo, nil
}

// DelegationUseCase returns the delegation policy engine use case.
func (c *Container) DelegationUseCase() (delegationUsecase.UseCase, error) {
	var err error
	c.delegationUseCaseInit.Do(func() {
		c.delegationUseCase, err = c.initDelegationUseCase()
		if err != nil {
			c.initErrors["delegationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["delegationUseCase"]; exists {
		return nil, storedErr
	}
	return c.delegationUseCase, nil
}

// DelegationHandler returns the HTTP handler for delegation checks and
// policy management.
func (c *Container) DelegationHandler() (*delegationHTTP.DelegationHandler, error) {
	var err error
	c.delegationHandlerInit.Do(func() {
		c.delegationHandler, err = c.initDelegationHandler()
		if err != nil {
			c.initErrors["delegationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["delegationHandler"]; exists {
		return nil, storedErr
	}
	return c.delegationHandler, nil
}

// initPolicyRepository creates the policy repository based on the database driver.
func (c *Container) initPolicyRepository() (delegationUsecase.PolicyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for policy repository: %w", err)
	}

	var repo delegationUsecase.PolicyRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = delegationRepository.NewPostgreSQLPolicyRepository(db)
	case "mysql":
		repo = delegationRepository.NewMySQLPolicyRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return delegationRepository.NewRetryingPolicyRepository(repo, c.retryConfig()), nil
}

// initDelegationUseCase creates the delegation use case with all its
// dependencies. The directory's identity repository resolves delegation
// participants; the approval use case provides the blocking approval wait.
func (c *Container) initDelegationUseCase() (delegationUsecase.UseCase, error) {
	policyRepo, err := c.PolicyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy repository for delegation use case: %w", err)
	}

	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for delegation use case: %w", err)
	}

	approvalUseCase, err := c.ApprovalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get approval use case for delegation use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for delegation use case: %w", err)
	}

	useCase := delegationUsecase.NewDelegationUseCase(
		policyRepo,
		identityRepo,
		approvalUseCase,
		auditUseCase,
		c.config.PolicyFilePath,
		c.config.ApprovalDefaultTimeout,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for delegation use case: %w", err)
	}

	return delegationUsecase.NewDelegationUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initDelegationHandler creates the delegation HTTP handler.
func (c *Container) initDelegationHandler() (*delegationHTTP.DelegationHandler, error) {
	delegationUseCase, err := c.DelegationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation use case for delegation handler: %w", err)
	}
	return delegationHTTP.NewDelegationHandler(delegationUseCase, c.Logger()), nil
}
