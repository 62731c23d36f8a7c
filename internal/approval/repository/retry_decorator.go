package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
	approvalUsecase "github.com/MCPTrustFramework/mcpf/internal/approval/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/database"
)

// retryingRequestRepository decorates a RequestRepository with bounded
// retries for transient database errors.
type retryingRequestRepository struct {
	next approvalUsecase.RequestRepository
	cfg  database.RetryConfig
}

// NewRetryingRequestRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingRequestRepository(
	repo approvalUsecase.RequestRepository,
	cfg database.RetryConfig,
) approvalUsecase.RequestRepository {
	return &retryingRequestRepository{next: repo, cfg: cfg}
}

func (d *retryingRequestRepository) Create(ctx context.Context, request *approvalDomain.Request) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, request)
	})
}

func (d *retryingRequestRepository) Settle(
	ctx context.Context,
	id uuid.UUID,
	status approvalDomain.Status,
	approverID uuid.UUID,
	respondedAt time.Time,
) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Settle(ctx, id, status, approverID, respondedAt)
	})
}

func (d *retryingRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Request, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (*approvalDomain.Request, error) {
		return d.next.GetByID(ctx, id)
	})
}

func (d *retryingRequestRepository) ListPending(
	ctx context.Context,
	offset, limit int,
) ([]*approvalDomain.Request, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) ([]*approvalDomain.Request, error) {
		return d.next.ListPending(ctx, offset, limit)
	})
}

// retryingApproverRepository decorates an ApproverRepository with bounded
// retries for transient database errors.
type retryingApproverRepository struct {
	next approvalUsecase.ApproverRepository
	cfg  database.RetryConfig
}

// NewRetryingApproverRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingApproverRepository(
	repo approvalUsecase.ApproverRepository,
	cfg database.RetryConfig,
) approvalUsecase.ApproverRepository {
	return &retryingApproverRepository{next: repo, cfg: cfg}
}

func (d *retryingApproverRepository) Create(ctx context.Context, approver *approvalDomain.Approver) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, approver)
	})
}

func (d *retryingApproverRepository) GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Approver, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (*approvalDomain.Approver, error) {
		return d.next.GetByID(ctx, id)
	})
}
