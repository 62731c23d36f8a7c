// Package usecase defines business logic interfaces for the audit trail.
package usecase

import (
	"context"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
)

// EntryRepository defines persistence operations for audit entries.
// Implementations must support transaction-aware operations via context propagation.
type EntryRepository interface {
	// Create stores a new entry. The entry's sequence number must be unique;
	// a duplicate is a programming error and surfaces as a conflict.
	Create(ctx context.Context, entry *auditDomain.Entry) error

	// List retrieves entries matching the filter ordered by ascending sequence.
	List(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, error)

	// MaxSequence returns the highest allocated sequence number, or 0 when
	// the log is empty. Used to resume gap-free allocation after restart.
	MaxSequence(ctx context.Context) (int64, error)
}

// UseCase defines the audit trail operations. Append is on the hot path of
// every resolution, verification, and delegation decision: if it fails, the
// triggering operation must fail too.
type UseCase interface {
	// Append signs and durably records one entry, returning its sequence
	// number. Sequence numbers are monotonic and gap-free per log instance.
	Append(
		ctx context.Context,
		kind auditDomain.Kind,
		subjectDIDs []string,
		outcome string,
		reasonCode string,
		metadata map[string]any,
	) (int64, error)

	// Query returns entries matching the filter in ascending sequence order.
	// Scans restart from Filter.FromSequence, so consumers can page through
	// the trail without missing or repeating entries.
	Query(ctx context.Context, filter auditDomain.Filter) ([]*auditDomain.Entry, error)

	// VerifyEntries re-checks the signatures of stored entries matching the
	// filter. Returns the number of entries checked; fails on the first
	// signature mismatch.
	VerifyEntries(ctx context.Context, filter auditDomain.Filter) (int, error)
}
