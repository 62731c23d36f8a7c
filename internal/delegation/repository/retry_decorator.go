package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	delegationUsecase "github.com/MCPTrustFramework/mcpf/internal/delegation/usecase"
)

// retryingPolicyRepository decorates a PolicyRepository with bounded retries
// for transient database errors.
type retryingPolicyRepository struct {
	next delegationUsecase.PolicyRepository
	cfg  database.RetryConfig
}

// NewRetryingPolicyRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingPolicyRepository(
	repo delegationUsecase.PolicyRepository,
	cfg database.RetryConfig,
) delegationUsecase.PolicyRepository {
	return &retryingPolicyRepository{next: repo, cfg: cfg}
}

func (d *retryingPolicyRepository) Create(ctx context.Context, policy *delegationDomain.Policy) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, policy)
	})
}

func (d *retryingPolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*delegationDomain.Policy, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (*delegationDomain.Policy, error) {
		return d.next.GetByID(ctx, id)
	})
}

func (d *retryingPolicyRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*delegationDomain.Policy, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) ([]*delegationDomain.Policy, error) {
		return d.next.List(ctx, offset, limit)
	})
}

func (d *retryingPolicyRepository) ListAll(ctx context.Context) ([]*delegationDomain.Policy, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) ([]*delegationDomain.Policy, error) {
		return d.next.ListAll(ctx)
	})
}
