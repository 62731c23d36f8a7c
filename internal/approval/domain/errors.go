package domain

import (
	"github.com/MCPTrustFramework/mcpf/internal/errors"
)

// Approval error definitions.
var (
	// ErrRequestNotFound indicates no approval request matches the id.
	ErrRequestNotFound = errors.Wrap(errors.ErrNotFound, "approval request not found")

	// ErrRequestNotPending indicates a response arrived for a request that
	// has already been settled.
	ErrRequestNotPending = errors.Wrap(errors.ErrConflict, "approval request is not pending")

	// ErrApproverNotFound indicates no registered approver matches the id.
	ErrApproverNotFound = errors.Wrap(errors.ErrNotFound, "approver not found")

	// ErrApproverUnauthorized indicates the presented secret does not match
	// the approver's registered hash.
	ErrApproverUnauthorized = errors.Wrap(errors.ErrUnauthorized, "approver secret does not match")

	// ErrApproverExists indicates an approver with the same name is already
	// registered.
	ErrApproverExists = errors.Wrap(errors.ErrConflict, "approver already registered")
)
