// Package domain defines the audit trail entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies which core operation produced an audit entry.
type Kind string

const (
	// KindResolution records an agent name resolution.
	KindResolution Kind = "resolution"
	// KindVerification records a credential verification.
	KindVerification Kind = "verification"
	// KindDelegation records a delegation decision.
	KindDelegation Kind = "delegation"
	// KindApproval records a human approval response.
	KindApproval Kind = "approval"
)

// Valid reports whether k is a known audit kind.
func (k Kind) Valid() bool {
	switch k {
	case KindResolution, KindVerification, KindDelegation, KindApproval:
		return true
	}
	return false
}

// Entry is one immutable record in the audit trail. Sequence numbers are
// monotonic and gap-free per log instance; entries are never mutated or
// removed once written. The signature covers a canonical encoding of all
// other fields so tampering is detectable offline.
type Entry struct {
	ID          uuid.UUID
	Sequence    int64
	Kind        Kind
	SubjectDIDs []string
	Outcome     string
	ReasonCode  string
	Metadata    map[string]any
	Signature   []byte
	CreatedAt   time.Time
}

// Filter narrows an audit query. Zero values mean "no constraint".
// FromSequence makes scans restartable: a consumer that stopped at sequence N
// resumes with FromSequence = N+1.
type Filter struct {
	Kind          Kind
	FromSequence  int64
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
	Offset        int
	Limit         int
}

// Outcomes shared across entry kinds.
const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)
