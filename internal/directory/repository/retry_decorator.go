package repository

import (
	"context"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	directoryUsecase "github.com/MCPTrustFramework/mcpf/internal/directory/usecase"
)

// retryingIdentityRepository decorates an IdentityRepository with bounded
// retries for transient database errors.
type retryingIdentityRepository struct {
	next directoryUsecase.IdentityRepository
	cfg  database.RetryConfig
}

// NewRetryingIdentityRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingIdentityRepository(
	repo directoryUsecase.IdentityRepository,
	cfg database.RetryConfig,
) directoryUsecase.IdentityRepository {
	return &retryingIdentityRepository{next: repo, cfg: cfg}
}

func (d *retryingIdentityRepository) Create(ctx context.Context, identity *directoryDomain.AgentIdentity) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, identity)
	})
}

func (d *retryingIdentityRepository) GetByName(
	ctx context.Context,
	name string,
) (*directoryDomain.AgentIdentity, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (*directoryDomain.AgentIdentity, error) {
		return d.next.GetByName(ctx, name)
	})
}

func (d *retryingIdentityRepository) GetByDID(
	ctx context.Context,
	did string,
) (*directoryDomain.AgentIdentity, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (*directoryDomain.AgentIdentity, error) {
		return d.next.GetByDID(ctx, did)
	})
}

func (d *retryingIdentityRepository) LatestVersion(ctx context.Context, name string) (int, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (int, error) {
		return d.next.LatestVersion(ctx, name)
	})
}
