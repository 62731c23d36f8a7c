package domain

import (
	"github.com/MCPTrustFramework/mcpf/internal/errors"
)

// Credential error definitions.
var (
	// ErrCredentialNotFound indicates no stored credential matches.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "credential not found")

	// ErrCredentialMalformed indicates the credential cannot be decoded at
	// all (as opposed to a decodable credential that fails verification).
	ErrCredentialMalformed = errors.Wrap(errors.ErrMalformed, "credential is malformed")

	// ErrRevocationExists indicates the revocation id is already recorded.
	ErrRevocationExists = errors.Wrap(errors.ErrConflict, "revocation already recorded")
)
