package repository

import (
	"context"

	"github.com/MCPTrustFramework/mcpf/internal/database"
	registryDomain "github.com/MCPTrustFramework/mcpf/internal/registry/domain"
	registryUsecase "github.com/MCPTrustFramework/mcpf/internal/registry/usecase"
)

// retryingServerRepository decorates a ServerRepository with bounded retries
// for transient database errors.
type retryingServerRepository struct {
	next registryUsecase.ServerRepository
	cfg  database.RetryConfig
}

// NewRetryingServerRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingServerRepository(
	repo registryUsecase.ServerRepository,
	cfg database.RetryConfig,
) registryUsecase.ServerRepository {
	return &retryingServerRepository{next: repo, cfg: cfg}
}

func (d *retryingServerRepository) Create(ctx context.Context, server *registryDomain.ServerRecord) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, server)
	})
}

func (d *retryingServerRepository) Search(
	ctx context.Context,
	capability string,
	offset, limit int,
) ([]*registryDomain.ServerRecord, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) ([]*registryDomain.ServerRecord, error) {
		return d.next.Search(ctx, capability, offset, limit)
	})
}
