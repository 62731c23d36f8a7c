// Package usecase defines business logic interfaces for approval
// coordination.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
)

// RequestRepository defines persistence operations for approval requests.
// Persistence exists so operators can list pending requests and audit past
// ones; the wait itself is in-memory.
type RequestRepository interface {
	// Create stores a new pending request.
	Create(ctx context.Context, request *approvalDomain.Request) error

	// Settle transitions a request out of pending. approverID is Nil for
	// timeouts and cancellations.
	Settle(
		ctx context.Context,
		id uuid.UUID,
		status approvalDomain.Status,
		approverID uuid.UUID,
		respondedAt time.Time,
	) error

	// GetByID retrieves a request.
	GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Request, error)

	// ListPending retrieves pending requests ordered by RequestedAt.
	ListPending(ctx context.Context, offset, limit int) ([]*approvalDomain.Request, error)
}

// ApproverRepository defines persistence operations for registered approvers.
type ApproverRepository interface {
	// Create stores a new approver. Duplicate names are a conflict.
	Create(ctx context.Context, approver *approvalDomain.Approver) error

	// GetByID retrieves an approver.
	GetByID(ctx context.Context, id uuid.UUID) (*approvalDomain.Approver, error)
}

// ApprovalInput describes the delegation decision awaiting approval.
// ContextKey identifies the decision context for coalescing.
type ApprovalInput struct {
	ContextKey string
	FromDID    string
	ToDID      string
	Action     string
	PolicyID   uuid.UUID
}

// Coordinator is the interface the delegation engine calls. RequestApproval
// blocks until an approver responds, the timeout elapses, or ctx is
// cancelled; it never waits indefinitely.
type Coordinator interface {
	RequestApproval(
		ctx context.Context,
		input ApprovalInput,
		timeout time.Duration,
	) (approvalDomain.Outcome, error)
}

// RegisterApproverOutput carries the one-time plain secret alongside the
// stored approver record.
type RegisterApproverOutput struct {
	Approver    *approvalDomain.Approver
	PlainSecret string
}

// UseCase defines the approval coordinator operations.
type UseCase interface {
	Coordinator

	// Respond settles a pending request. The approver is authenticated
	// against its registered secret hash; the response is audited with the
	// approver id. All coalesced waiters receive the verdict.
	Respond(ctx context.Context, requestID uuid.UUID, approverID uuid.UUID, secret string, approve bool) error

	// ListPending retrieves pending requests for operator review.
	ListPending(ctx context.Context, offset, limit int) ([]*approvalDomain.Request, error)

	// RegisterApprover stores a new approver and returns the generated
	// secret exactly once.
	RegisterApprover(ctx context.Context, name string) (*RegisterApproverOutput, error)
}
