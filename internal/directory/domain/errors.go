package domain

import (
	"github.com/MCPTrustFramework/mcpf/internal/errors"
)

// Directory error definitions.
var (
	// ErrIdentityNotFound indicates no record matches the requested name.
	ErrIdentityNotFound = errors.Wrap(errors.ErrNotFound, "agent identity not found")

	// ErrNameMalformed indicates the name violates the hierarchical naming
	// grammar (dot-separated labels terminating in the .agent suffix).
	ErrNameMalformed = errors.Wrap(errors.ErrMalformed, "agent name violates naming grammar")

	// ErrDIDMalformed indicates the identifier is not a supported DID.
	ErrDIDMalformed = errors.Wrap(errors.ErrMalformed, "identifier is not a supported DID")

	// ErrIdentityExists indicates a registration collided with a live record
	// of the same name and version.
	ErrIdentityExists = errors.Wrap(errors.ErrConflict, "agent identity version already registered")
)
