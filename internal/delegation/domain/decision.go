package domain

import (
	"time"
)

// Reason codes carried on delegation decisions. Stable strings: they are
// audited and exposed over the API.
const (
	ReasonNoApplicablePolicy = "no_applicable_policy"
	ReasonAmbiguousPolicy    = "ambiguous_policy"
	ReasonOutsideWindow      = "outside_allowed_window"
	ReasonRateLimitExceeded  = "rate_limit_exceeded"
	ReasonApprovalTimeout    = "approval_timeout"
	ReasonApprovalDenied     = "approval_denied"
	ReasonApproved           = "approved"
)

// Decision is the outcome of one delegation check. Produced fresh per
// request and never cached: window and rate constraints are time-sensitive,
// so two checks of the same triple can legitimately differ.
type Decision struct {
	Allowed          bool
	Reason           string
	ReasonCode       string
	Policy           *Policy
	ApprovalRequired bool
	DecidedAt        time.Time
}

// Denied builds a denial with a stable reason code.
func Denied(reasonCode, reason string, policy *Policy, decidedAt time.Time) *Decision {
	return &Decision{
		Allowed:    false,
		Reason:     reason,
		ReasonCode: reasonCode,
		Policy:     policy,
		DecidedAt:  decidedAt,
	}
}

// AllowedDecision builds a positive decision under the matched policy.
func AllowedDecision(policy *Policy, approvalRequired bool, reason, reasonCode string, decidedAt time.Time) *Decision {
	return &Decision{
		Allowed:          true,
		Reason:           reason,
		ReasonCode:       reasonCode,
		Policy:           policy,
		ApprovalRequired: approvalRequired,
		DecidedAt:        decidedAt,
	}
}
