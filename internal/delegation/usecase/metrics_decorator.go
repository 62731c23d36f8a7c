package usecase

import (
	"context"
	"time"

	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	"github.com/MCPTrustFramework/mcpf/internal/metrics"
)

// delegationUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type delegationUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewDelegationUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewDelegationUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &delegationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// checkStatus distinguishes allowed decisions, denials, and infrastructure
// failures so policy denials do not read as errors on dashboards.
func checkStatus(decision *delegationDomain.Decision, err error) string {
	switch {
	case err != nil:
		return "error"
	case decision.Allowed:
		return "success"
	default:
		return "denied"
	}
}

// CheckDelegation records metrics for delegation checks.
func (d *delegationUseCaseWithMetrics) CheckDelegation(
	ctx context.Context,
	fromDID, toDID, action string,
) (*delegationDomain.Decision, error) {
	start := time.Now()
	decision, err := d.next.CheckDelegation(ctx, fromDID, toDID, action)

	status := checkStatus(decision, err)
	d.metrics.RecordOperation(ctx, "delegation", "check", status)
	d.metrics.RecordDuration(ctx, "delegation", "check", time.Since(start), status)

	return decision, err
}

// CreatePolicy records metrics for policy creation.
func (d *delegationUseCaseWithMetrics) CreatePolicy(
	ctx context.Context,
	input *CreatePolicyInput,
) (*delegationDomain.Policy, error) {
	start := time.Now()
	policy, err := d.next.CreatePolicy(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}
	d.metrics.RecordOperation(ctx, "delegation", "create_policy", status)
	d.metrics.RecordDuration(ctx, "delegation", "create_policy", time.Since(start), status)

	return policy, err
}

// ListPolicies passes through without instrumentation.
func (d *delegationUseCaseWithMetrics) ListPolicies(ctx context.Context, offset, limit int) ([]*delegationDomain.Policy, error) {
	return d.next.ListPolicies(ctx, offset, limit)
}

// ReloadPolicies records metrics for snapshot rebuilds.
func (d *delegationUseCaseWithMetrics) ReloadPolicies(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := d.next.ReloadPolicies(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}
	d.metrics.RecordOperation(ctx, "delegation", "reload_policies", status)
	d.metrics.RecordDuration(ctx, "delegation", "reload_policies", time.Since(start), status)

	return count, err
}
