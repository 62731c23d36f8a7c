package domain

import (
	"github.com/MCPTrustFramework/mcpf/internal/errors"
)

// Audit trail error definitions.
var (
	// ErrWriteFailed indicates an audit entry could not be durably recorded.
	// The operation that triggered the entry must fail with this error rather
	// than report success; the trail is only useful if it is complete.
	ErrWriteFailed = errors.Wrap(errors.ErrAuditWrite, "audit entry write failed")

	// ErrInvalidKind indicates an entry carried an unknown kind.
	ErrInvalidKind = errors.Wrap(errors.ErrInvalidInput, "invalid audit kind")

	// ErrSignatureMismatch indicates a stored entry's signature does not match
	// its canonical encoding, i.e. the entry was altered after it was written.
	ErrSignatureMismatch = errors.New("audit entry signature mismatch")
)
