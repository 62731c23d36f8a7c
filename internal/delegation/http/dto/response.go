package dto

import (
	"time"

	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
)

// DecisionResponse represents the API response for a delegation check.
type DecisionResponse struct {
	Allowed            bool      `json:"allowed"`
	Reason             string    `json:"reason"`
	ReasonCode         string    `json:"reason_code,omitempty"`
	PolicyID           string    `json:"policy_id,omitempty"`
	PolicyName         string    `json:"policy_name,omitempty"`
	ApprovalRequired   bool      `json:"approval_required"`
	MaxDurationSeconds *int64    `json:"max_duration_seconds,omitempty"`
	DecidedAt          time.Time `json:"decided_at"`
}

// MapDecisionToResponse maps a decision to its API representation. The
// matched policy's duration bound travels with the decision for the caller
// to enforce.
func MapDecisionToResponse(decision *delegationDomain.Decision) *DecisionResponse {
	response := &DecisionResponse{
		Allowed:          decision.Allowed,
		Reason:           decision.Reason,
		ReasonCode:       decision.ReasonCode,
		ApprovalRequired: decision.ApprovalRequired,
		DecidedAt:        decision.DecidedAt,
	}
	if decision.Policy != nil {
		response.PolicyID = decision.Policy.ID.String()
		response.PolicyName = decision.Policy.Name
		response.MaxDurationSeconds = decision.Policy.Constraints.MaxDurationSeconds
	}
	return response
}

// PolicyResponse represents the API representation of a policy.
type PolicyResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	FromPattern    string             `json:"from_pattern"`
	ToPattern      string             `json:"to_pattern"`
	AllowedActions []string           `json:"allowed_actions"`
	Constraints    ConstraintsRequest `json:"constraints"`
	Version        int                `json:"version"`
	CreatedAt      time.Time          `json:"created_at"`
}

// MapPolicyToResponse maps a policy to its API representation.
func MapPolicyToResponse(policy *delegationDomain.Policy) *PolicyResponse {
	constraints := ConstraintsRequest{
		MaxDurationSeconds:      policy.Constraints.MaxDurationSeconds,
		RequiresApproval:        policy.Constraints.RequiresApproval,
		MaxDelegationsPerWindow: policy.Constraints.MaxDelegationsPerWindow,
		WindowSeconds:           policy.Constraints.WindowSeconds,
	}
	if window := policy.Constraints.AllowedWindow; window != nil {
		days := make([]string, 0, len(window.Days))
		for _, day := range window.Days {
			days = append(days, string(day))
		}
		constraints.AllowedWindow = &WindowRequest{
			Days:      days,
			StartHour: window.StartHour,
			EndHour:   window.EndHour,
			Timezone:  window.Timezone,
		}
	}
	return &PolicyResponse{
		ID:             policy.ID.String(),
		Name:           policy.Name,
		FromPattern:    policy.FromPattern,
		ToPattern:      policy.ToPattern,
		AllowedActions: policy.AllowedActions,
		Constraints:    constraints,
		Version:        policy.Version,
		CreatedAt:      policy.CreatedAt,
	}
}

// MapPoliciesToResponse maps a policy list to its API representation.
func MapPoliciesToResponse(policies []*delegationDomain.Policy) []*PolicyResponse {
	responses := make([]*PolicyResponse, 0, len(policies))
	for _, policy := range policies {
		responses = append(responses, MapPolicyToResponse(policy))
	}
	return responses
}

// ReloadResponse reports the active policy count after a reload.
type ReloadResponse struct {
	ActivePolicies int `json:"active_policies"`
}
