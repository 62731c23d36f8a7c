// Package domain defines the MCP server registry entities.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/MCPTrustFramework/mcpf/internal/errors"
)

var (
	// ErrServerNotFound indicates no record matches the requested server.
	ErrServerNotFound = errors.Wrap(errors.ErrNotFound, "server not found")

	// ErrServerExists indicates a registration collided with an existing
	// server name.
	ErrServerExists = errors.Wrap(errors.ErrConflict, "server already registered")
)

// ServerRecord describes one MCP server known to the registry.
type ServerRecord struct {
	ID           uuid.UUID
	Name         string
	Endpoint     string
	Capabilities []string
	Metadata     map[string]string
	CreatedAt    time.Time
}

// HasCapability reports whether the server advertises the capability.
func (s *ServerRecord) HasCapability(capability string) bool {
	for _, c := range s.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
