package usecase

import (
	"context"
	"time"

	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	"github.com/MCPTrustFramework/mcpf/internal/metrics"
)

// identityUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type identityUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewIdentityUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewIdentityUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &identityUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Resolve records metrics for name resolution operations.
func (d *identityUseCaseWithMetrics) Resolve(
	ctx context.Context,
	name string,
) (*directoryDomain.AgentIdentity, error) {
	start := time.Now()
	identity, err := d.next.Resolve(ctx, name)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "directory", "resolve", status)
	d.metrics.RecordDuration(ctx, "directory", "resolve", time.Since(start), status)

	return identity, err
}

// Register records metrics for identity registration operations.
func (d *identityUseCaseWithMetrics) Register(
	ctx context.Context,
	input *RegisterIdentityInput,
) (*directoryDomain.AgentIdentity, error) {
	start := time.Now()
	identity, err := d.next.Register(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "directory", "register", status)
	d.metrics.RecordDuration(ctx, "directory", "register", time.Since(start), status)

	return identity, err
}
