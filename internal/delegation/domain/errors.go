package domain

import (
	"github.com/MCPTrustFramework/mcpf/internal/errors"
)

// Delegation error definitions.
var (
	// ErrPolicyNotFound indicates no stored policy matches.
	ErrPolicyNotFound = errors.Wrap(errors.ErrNotFound, "delegation policy not found")

	// ErrPolicyDocumentInvalid indicates a policy fails structural
	// validation. Loading fails as a whole so a bad document never
	// partially applies.
	ErrPolicyDocumentInvalid = errors.Wrap(errors.ErrMalformed, "delegation policy document is invalid")

	// ErrPolicyExists indicates a policy with the same name and version is
	// already stored.
	ErrPolicyExists = errors.Wrap(errors.ErrConflict, "delegation policy already exists")
)
