// Package dto provides data transfer objects for the delegation HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	delegationDomain "github.com/MCPTrustFramework/mcpf/internal/delegation/domain"
	delegationUseCase "github.com/MCPTrustFramework/mcpf/internal/delegation/usecase"
	appValidation "github.com/MCPTrustFramework/mcpf/internal/validation"
)

// CheckDelegationRequest represents the API request for a delegation check.
type CheckDelegationRequest struct {
	FromDID string `json:"from_did"`
	ToDID   string `json:"to_did"`
	Action  string `json:"action"`
}

// Validate validates the CheckDelegationRequest.
func (r *CheckDelegationRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.FromDID,
			validation.Required.Error("from_did is required"),
			appValidation.DID,
		),
		validation.Field(&r.ToDID,
			validation.Required.Error("to_did is required"),
			appValidation.DID,
		),
		validation.Field(&r.Action,
			validation.Required.Error("action is required"),
			appValidation.NotBlank,
		),
	)
	return appValidation.WrapValidationError(err)
}

// WindowRequest is an optional time window constraint on a policy.
type WindowRequest struct {
	Days      []string `json:"days"`
	StartHour int      `json:"start_hour"`
	EndHour   int      `json:"end_hour"`
	Timezone  string   `json:"timezone"`
}

// ConstraintsRequest carries the optional constraints of a policy.
type ConstraintsRequest struct {
	MaxDurationSeconds      *int64         `json:"max_duration_seconds"`
	RequiresApproval        bool           `json:"requires_approval"`
	AllowedWindow           *WindowRequest `json:"allowed_window"`
	MaxDelegationsPerWindow *int           `json:"max_delegations_per_window"`
	WindowSeconds           int64          `json:"window_seconds"`
}

// CreatePolicyRequest represents the API request for creating a policy.
// Structural constraint validation happens in the domain so stored and
// file-loaded policies pass through the same checks.
type CreatePolicyRequest struct {
	Name           string             `json:"name"`
	FromPattern    string             `json:"from_pattern"`
	ToPattern      string             `json:"to_pattern"`
	AllowedActions []string           `json:"allowed_actions"`
	Constraints    ConstraintsRequest `json:"constraints"`
}

// Validate validates the CreatePolicyRequest.
func (r *CreatePolicyRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.FromPattern,
			validation.Required.Error("from_pattern is required"),
			appValidation.PolicyPattern,
		),
		validation.Field(&r.ToPattern,
			validation.Required.Error("to_pattern is required"),
			appValidation.PolicyPattern,
		),
		validation.Field(&r.AllowedActions,
			validation.Required.Error("at least one action is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToCreatePolicyInput converts the request into a use case input.
func ToCreatePolicyInput(r *CreatePolicyRequest) *delegationUseCase.CreatePolicyInput {
	constraints := delegationDomain.Constraints{
		MaxDurationSeconds:      r.Constraints.MaxDurationSeconds,
		RequiresApproval:        r.Constraints.RequiresApproval,
		MaxDelegationsPerWindow: r.Constraints.MaxDelegationsPerWindow,
		WindowSeconds:           r.Constraints.WindowSeconds,
	}
	if r.Constraints.AllowedWindow != nil {
		days := make([]delegationDomain.Weekday, 0, len(r.Constraints.AllowedWindow.Days))
		for _, day := range r.Constraints.AllowedWindow.Days {
			days = append(days, delegationDomain.Weekday(day))
		}
		constraints.AllowedWindow = &delegationDomain.Window{
			Days:      days,
			StartHour: r.Constraints.AllowedWindow.StartHour,
			EndHour:   r.Constraints.AllowedWindow.EndHour,
			Timezone:  r.Constraints.AllowedWindow.Timezone,
		}
	}
	return &delegationUseCase.CreatePolicyInput{
		Name:           r.Name,
		FromPattern:    r.FromPattern,
		ToPattern:      r.ToPattern,
		AllowedActions: r.AllowedActions,
		Constraints:    constraints,
	}
}
