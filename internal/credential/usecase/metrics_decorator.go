package usecase

import (
	"context"
	"time"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	"github.com/MCPTrustFramework/mcpf/internal/metrics"
)

// credentialUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type credentialUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewCredentialUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewCredentialUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &credentialUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// status distinguishes valid verdicts, invalid verdicts, and infrastructure
// failures so rejected credentials do not read as errors on dashboards.
func verifyStatus(result *credentialDomain.VerificationResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case result.Valid:
		return "success"
	default:
		return "invalid"
	}
}

// Verify records metrics for credential verification operations.
func (d *credentialUseCaseWithMetrics) Verify(
	ctx context.Context,
	credential *credentialDomain.Credential,
	expectedSubjectDID string,
) (*credentialDomain.VerificationResult, error) {
	start := time.Now()
	result, err := d.next.Verify(ctx, credential, expectedSubjectDID)

	status := verifyStatus(result, err)
	d.metrics.RecordOperation(ctx, "credential", "verify", status)
	d.metrics.RecordDuration(ctx, "credential", "verify", time.Since(start), status)

	return result, err
}

// VerifyAgent records metrics for agent verification operations.
func (d *credentialUseCaseWithMetrics) VerifyAgent(
	ctx context.Context,
	did string,
) (*credentialDomain.VerificationResult, error) {
	start := time.Now()
	result, err := d.next.VerifyAgent(ctx, did)

	status := verifyStatus(result, err)
	d.metrics.RecordOperation(ctx, "credential", "verify_agent", status)
	d.metrics.RecordDuration(ctx, "credential", "verify_agent", time.Since(start), status)

	return result, err
}

// Store records metrics for credential storage operations.
func (d *credentialUseCaseWithMetrics) Store(ctx context.Context, credential *credentialDomain.Credential) error {
	start := time.Now()
	err := d.next.Store(ctx, credential)

	status := "success"
	if err != nil {
		status = "error"
	}
	d.metrics.RecordOperation(ctx, "credential", "store", status)
	d.metrics.RecordDuration(ctx, "credential", "store", time.Since(start), status)

	return err
}

// Revoke records metrics for revocation operations.
func (d *credentialUseCaseWithMetrics) Revoke(ctx context.Context, revocationID string) error {
	start := time.Now()
	err := d.next.Revoke(ctx, revocationID)

	status := "success"
	if err != nil {
		status = "error"
	}
	d.metrics.RecordOperation(ctx, "credential", "revoke", status)
	d.metrics.RecordDuration(ctx, "credential", "revoke", time.Since(start), status)

	return err
}

// RefreshRevocations passes through without instrumentation.
func (d *credentialUseCaseWithMetrics) RefreshRevocations(ctx context.Context) error {
	return d.next.RefreshRevocations(ctx)
}
