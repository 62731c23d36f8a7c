// Package domain defines the approval coordination entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status of an approval request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusTimeout   Status = "timeout"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusTimeout, StatusCancelled:
		return true
	}
	return false
}

// Outcome is the verdict a waiter receives. Timeout and cancellation both
// deny the delegation, but they carry distinct reason codes, so they stay
// distinct here.
type Outcome string

const (
	OutcomeApproved  Outcome = "approved"
	OutcomeDenied    Outcome = "denied"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
)

// Request is one pending or settled approval. ContextKey identifies the
// decision context: at most one request per key is outstanding at a time,
// and duplicate asks coalesce onto it.
type Request struct {
	ID          uuid.UUID
	ContextKey  string
	FromDID     string
	ToDID       string
	Action      string
	PolicyID    uuid.UUID
	Status      Status
	ApproverID  uuid.UUID
	RequestedAt time.Time
	RespondedAt *time.Time
	ExpiresAt   time.Time
}

// Approver is a registered human approver. SecretHash is an Argon2id hash;
// the plain secret is shown once at registration and never stored.
type Approver struct {
	ID         uuid.UUID
	Name       string
	SecretHash string
	CreatedAt  time.Time
}
