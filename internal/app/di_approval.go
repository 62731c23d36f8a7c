package app

import (
	"fmt"

	approvalHTTP "github.com/MCPTrustFramework/mcpf/internal/approval/http"
	approvalRepository "github.com/MCPTrustFramework/mcpf/internal/approval/repository"
	approvalService "github.com/MCPTrustFramework/mcpf/internal/approval/service"
	approvalUsecase "github.com/MCPTrustFramework/mcpf/internal/approval/usecase"
)

// RequestRepository returns the approval request repository based on database driver.
func (c *Container) RequestRepository() (approvalUsecase.RequestRepository, error) {
	var err error
	c.requestRepoInit.Do(func() {
		c.requestRepo, err = c.initRequestRepository()
		if err != nil {
			c.initErrors["requestRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["requestRepo"]; exists {
		return nil, storedErr
	}
	return c.requestRepo, nil
}

// ApproverRepository returns the approver repository based on database driver.
func (c *Container) ApproverRepository() (approvalUsecase.ApproverRepository, error) {
	var err error
	c.approverRepoInit.Do(func() {
		c.approverRepo, err = c.initApproverRepository()
		if err != nil {
			c.initErrors["approverRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["approverRepo"]; exists {
		return nil, storedErr
	}
	return c.approverRepo, nil
}

// ApprovalUseCase returns the approval coordinator use case.
func (c *Container) ApprovalUseCase() (approvalUsecase.UseCase, error) {
	var err error
	c.approvalUseCaseInit.Do(func() {
		c.approvalUseCase, err = c.initApprovalUseCase()
		if err != nil {
			c.initErrors["approvalUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["approvalUseCase"]; exists {
		return nil, storedErr
	}
	return c.approvalUseCase, nil
}

// ApprovalHandler returns the HTTP handler for approval operations.
func (c *Container) ApprovalHandler() (*approvalHTTP.ApprovalHandler, error) {
	var err error
	c.approvalHandlerInit.Do(func() {
		c.approvalHandler, err = c.initApprovalHandler()
		if err != nil {
			c.initErrors["approvalHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["approvalHandler"]; exists {
		return nil, storedErr
	}
	return c.approvalHandler, nil
}

// initRequestRepository creates the approval request repository based on the database driver.
func (c *Container) initRequestRepository() (approvalUsecase.RequestRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for request repository: %w", err)
	}

	var repo approvalUsecase.RequestRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = approvalRepository.NewPostgreSQLRequestRepository(db)
	case "mysql":
		repo = approvalRepository.NewMySQLRequestRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return approvalRepository.NewRetryingRequestRepository(repo, c.retryConfig()), nil
}

// initApproverRepository creates the approver repository based on the database driver.
func (c *Container) initApproverRepository() (approvalUsecase.ApproverRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for approver repository: %w", err)
	}

	var repo approvalUsecase.ApproverRepository
	switch c.config.DBDriver {
	case "postgres":
		repo = approvalRepository.NewPostgreSQLApproverRepository(db)
	case "mysql":
		repo = approvalRepository.NewMySQLApproverRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
	return approvalRepository.NewRetryingApproverRepository(repo, c.retryConfig()), nil
}

// initApprovalUseCase creates the approval use case with all its dependencies.
func (c *Container) initApprovalUseCase() (approvalUsecase.UseCase, error) {
	requestRepo, err := c.RequestRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get request repository for approval use case: %w", err)
	}

	approverRepo, err := c.ApproverRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get approver repository for approval use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for approval use case: %w", err)
	}

	return approvalUsecase.NewApprovalUseCase(
		requestRepo,
		approverRepo,
		approvalService.NewSecretService(),
		auditUseCase,
		c.Logger(),
	), nil
}

// initApprovalHandler creates the approval HTTP handler.
func (c *Container) initApprovalHandler() (*approvalHTTP.ApprovalHandler, error) {
	approvalUseCase, err := c.ApprovalUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get approval use case for approval handler: %w", err)
	}
	return approvalHTTP.NewApprovalHandler(approvalUseCase, c.Logger()), nil
}
