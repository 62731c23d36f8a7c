// Package usecase defines business logic interfaces for the delegation
// policy engine.
package usecase

import (
	"context"

	"github.com/google/uuid"

	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
)

// PolicyRepository defines persistence operations for delegation policies.
// Implementations must support transaction-aware operations via context propagation.
type PolicyRepository interface {
	// Create stores a new policy.
	Create(ctx context.Context, policy *delegationDomain.Policy) error

	// GetByID retrieves a policy.
	GetByID(ctx context.Context, id uuid.UUID) (*delegationDomain.Policy, error)

	// List retrieves policies ordered by name.
	List(ctx context.Context, offset, limit int) ([]*delegationDomain.Policy, error)

	// ListAll retrieves every stored policy for snapshot building.
	ListAll(ctx context.Context) ([]*delegationDomain.Policy, error)
}

// DelegateDirectory resolves delegation participants by DID. The directory
// feature provides the implementation.
type DelegateDirectory interface {
	GetByDID(ctx context.Context, did string) (*directoryDomain.AgentIdentity, error)
}

// CreatePolicyInput carries the fields needed to store a policy.
type CreatePolicyInput struct {
	Name           string
	FromPattern    string
	ToPattern      string
	AllowedActions []string
	Constraints    delegationDomain.Constraints
}

// UseCase defines the delegation engine operations.
type UseCase interface {
	// CheckDelegation decides whether from may delegate action to to.
	// Policies are evaluated against an immutable snapshot: a reload during
	// the check never yields a mix of old and new policies. Every
	// invocation is audited; the check fails if its audit entry cannot be
	// written. Denials are decisions, not errors.
	CheckDelegation(ctx context.Context, fromDID, toDID, action string) (*delegationDomain.Decision, error)

	// CreatePolicy validates and stores a policy, then refreshes the
	// snapshot.
	CreatePolicy(ctx context.Context, input *CreatePolicyInput) (*delegationDomain.Policy, error)

	// ListPolicies retrieves stored policies for operator review.
	ListPolicies(ctx context.Context, offset, limit int) ([]*delegationDomain.Policy, error)

	// ReloadPolicies rebuilds the snapshot from storage plus the optional
	// declarative policy file and swaps it atomically. Returns the number
	// of active policies. In-flight checks keep the snapshot they started
	// with.
	ReloadPolicies(ctx context.Context) (int, error)
}
