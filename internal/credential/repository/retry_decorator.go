package repository

import (
	"context"
	"time"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	credentialUsecase "github.com/MCPTrustFramework/mcpf/internal/credential/usecase"
	"github.com/MCPTrustFramework/mcpf/internal/database"
)

// retryingCredentialRepository decorates a CredentialRepository with bounded
// retries for transient database errors.
type retryingCredentialRepository struct {
	next credentialUsecase.CredentialRepository
	cfg  database.RetryConfig
}

// NewRetryingCredentialRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingCredentialRepository(
	repo credentialUsecase.CredentialRepository,
	cfg database.RetryConfig,
) credentialUsecase.CredentialRepository {
	return &retryingCredentialRepository{next: repo, cfg: cfg}
}

func (d *retryingCredentialRepository) Create(ctx context.Context, credential *credentialDomain.Credential) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, credential)
	})
}

func (d *retryingCredentialRepository) GetNewestBySubject(
	ctx context.Context,
	subjectDID string,
) (*credentialDomain.Credential, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) (*credentialDomain.Credential, error) {
		return d.next.GetNewestBySubject(ctx, subjectDID)
	})
}

// retryingRevocationRepository decorates a RevocationRepository with bounded
// retries for transient database errors.
type retryingRevocationRepository struct {
	next credentialUsecase.RevocationRepository
	cfg  database.RetryConfig
}

// NewRetryingRevocationRepository wraps repo so transient database errors are
// retried and surface as ErrUnavailable once retries are exhausted.
func NewRetryingRevocationRepository(
	repo credentialUsecase.RevocationRepository,
	cfg database.RetryConfig,
) credentialUsecase.RevocationRepository {
	return &retryingRevocationRepository{next: repo, cfg: cfg}
}

func (d *retryingRevocationRepository) Create(ctx context.Context, revocationID string, revokedAt time.Time) error {
	return database.WithRetry(ctx, d.cfg, func(ctx context.Context) error {
		return d.next.Create(ctx, revocationID, revokedAt)
	})
}

func (d *retryingRevocationRepository) ListIDs(ctx context.Context) ([]string, error) {
	return database.RetryValue(ctx, d.cfg, func(ctx context.Context) ([]string, error) {
		return d.next.ListIDs(ctx)
	})
}
