// Package usecase defines business logic interfaces for the MCP server
// registry.
package usecase

import (
	"context"

	registryDomain "github.com/MCPTrustFramework/mcpf/internal/registry/domain"
)

// ServerRepository defines persistence operations for server records.
// Implementations must support transaction-aware operations via context propagation.
type ServerRepository interface {
	// Create stores a new server record.
	Create(ctx context.Context, server *registryDomain.ServerRecord) error

	// Search retrieves servers advertising the capability, ordered by
	// name. An empty capability matches every server.
	Search(ctx context.Context, capability string, offset, limit int) ([]*registryDomain.ServerRecord, error)
}

// RegisterServerInput carries the fields needed to register a server.
type RegisterServerInput struct {
	Name         string
	Endpoint     string
	Capabilities []string
	Metadata     map[string]string
}

// UseCase defines the registry operations.
type UseCase interface {
	// Register publishes a server record.
	Register(ctx context.Context, input *RegisterServerInput) (*registryDomain.ServerRecord, error)

	// Search retrieves servers by capability.
	Search(ctx context.Context, capability string, offset, limit int) ([]*registryDomain.ServerRecord, error)
}
