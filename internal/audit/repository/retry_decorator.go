package repository

import (
	"context"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
	auditUsecase "github.com/MCPTrustFramework/mcpf/internal/audit/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/database"
)

// retryingEntryRepository decorates an EntryRepository with bounded retries
// for transient database errors. Audit writes sit on the hot path of every
// trust decision, so a dropped connection should not fail the operation
// before the bounded retries are spent.
type retryingEntryRepository struct {
	next auditUsecase.EntryRepository
	cfg  database.RetryConfig
}

// NewRetryingEntryRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingEntryRepository(
	repo auditUsecase.EntryRepository,
	cfg database.RetryConfig,
) auditUsecase.EntryRepository {
	return &retryingEntryRepository{next: repo, cfg: cfg}
}

func (d *retryingEntryRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, entry)
	})
}

func (d *retryingEntryRepository) List(
	ctx context.Context,
	filter auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) ([]*auditDomain.Entry, error) {
		return d.next.List(ctx, filter)
	})
}

func (d *retryingEntryRepository) MaxSequence(ctx context.Context) (int64, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (int64, error) {
		return d.next.MaxSequence(ctx)
	})
}
