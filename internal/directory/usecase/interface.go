// Package usecase defines business logic interfaces for the agent directory.
package usecase

import (
	"context"

	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
)

// IdentityRepository defines persistence operations for agent identities.
// Implementations must support transaction-aware operations via context propagation.
type IdentityRepository interface {
	// Create stores a new identity version.
	Create(ctx context.Context, identity *directoryDomain.AgentIdentity) error

	// GetByName retrieves the latest version registered under name (exact
	// match, including wildcard record names). Returns ErrIdentityNotFound
	// if no record matches.
	GetByName(ctx context.Context, name string) (*directoryDomain.AgentIdentity, error)

	// GetByDID retrieves the latest identity version for the given DID.
	// Returns ErrIdentityNotFound if no record matches.
	GetByDID(ctx context.Context, did string) (*directoryDomain.AgentIdentity, error)

	// LatestVersion returns the highest registered version for name, or 0
	// when the name has never been registered.
	LatestVersion(ctx context.Context, name string) (int, error)
}

// RegisterIdentityInput carries the fields needed to publish an identity.
type RegisterIdentityInput struct {
	Name       string
	DID        string
	PublicKeys []directoryDomain.PublicKey
	Metadata   map[string]string
}

// UseCase defines the directory operations: publishing identity records and
// resolving names to identities.
type UseCase interface {
	// Resolve maps an agent name to its identity. Fails with
	// ErrNameMalformed when the name violates the naming grammar and
	// ErrIdentityNotFound when no record (exact or wildcard parent)
	// matches. Every resolution, cache hit or miss, is audited; the
	// resolution fails if its audit entry cannot be written.
	Resolve(ctx context.Context, name string) (*directoryDomain.AgentIdentity, error)

	// Register publishes a new identity version and invalidates any cached
	// resolution for its name. Wildcard record names (e.g. "*.risk.bank.agent")
	// are allowed to serve as hierarchical fallbacks.
	Register(ctx context.Context, input *RegisterIdentityInput) (*directoryDomain.AgentIdentity, error)
}
