// Package dto provides data transfer objects for the approval HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/MCPTrustFramework/mcpf/internal/validation"
)

// RespondRequest represents the API request for settling an approval.
type RespondRequest struct {
	ApproverID string `json:"approver_id"`
	Secret     string `json:"secret"`
	Approve    bool   `json:"approve"`
}

// Validate validates the RespondRequest.
func (r *RespondRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ApproverID,
			validation.Required.Error("approver_id is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Secret,
			validation.Required.Error("secret is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterApproverRequest represents the API request for registering an
// approver.
type RegisterApproverRequest struct {
	Name string `json:"name"`
}

// Validate validates the RegisterApproverRequest.
func (r *RegisterApproverRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}
