// Package dto provides data transfer objects for the credential HTTP layer.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
	appValidation "github.com/MCPTrustFramework/mcpf/internal/validation"
)

// ProofPayload is the proof part of a submitted credential.
type ProofPayload struct {
	Algorithm string `json:"algorithm"`
	KeyID     string `json:"key_id"`
	Signature []byte `json:"signature"`
}

// CredentialPayload is a credential as submitted for verification. The
// verifier decides whether it is wellformed; a structurally poor credential
// gets an "invalid" verdict rather than a request error, so no field-level
// validation happens here.
type CredentialPayload struct {
	SubjectDID   string         `json:"subject_did"`
	IssuerDID    string         `json:"issuer_did"`
	Claims       map[string]any `json:"claims"`
	IssuedAt     time.Time      `json:"issued_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Proof        ProofPayload   `json:"proof"`
	RevocationID string         `json:"revocation_id"`
}

// VerifyCredentialRequest represents the API request for credential
// verification.
type VerifyCredentialRequest struct {
	Credential         CredentialPayload `json:"credential"`
	ExpectedSubjectDID string            `json:"expected_subject_did"`
}

// Validate validates the VerifyCredentialRequest.
func (r *VerifyCredentialRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ExpectedSubjectDID,
			validation.When(r.ExpectedSubjectDID != "", appValidation.DID),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToCredential converts the payload into a domain credential.
func (r *VerifyCredentialRequest) ToCredential() *credentialDomain.Credential {
	return &credentialDomain.Credential{
		SubjectDID: r.Credential.SubjectDID,
		IssuerDID:  r.Credential.IssuerDID,
		Claims:     r.Credential.Claims,
		IssuedAt:   r.Credential.IssuedAt,
		ExpiresAt:  r.Credential.ExpiresAt,
		Proof: credentialDomain.Proof{
			Algorithm: r.Credential.Proof.Algorithm,
			KeyID:     r.Credential.Proof.KeyID,
			Signature: r.Credential.Proof.Signature,
		},
		RevocationID: r.Credential.RevocationID,
	}
}

// StoreCredentialRequest represents the API request for storing an issued
// credential.
type StoreCredentialRequest struct {
	Credential CredentialPayload `json:"credential"`
}

// Validate validates the StoreCredentialRequest. Stored credentials must be
// wellformed up front so verify-agent never has to sift garbage.
func (r *StoreCredentialRequest) Validate() error {
	err := validation.ValidateStruct(&r.Credential,
		validation.Field(&r.Credential.SubjectDID,
			validation.Required.Error("subject_did is required"),
			appValidation.DID,
		),
		validation.Field(&r.Credential.IssuerDID,
			validation.Required.Error("issuer_did is required"),
			appValidation.DID,
		),
		validation.Field(&r.Credential.IssuedAt,
			validation.Required.Error("issued_at is required"),
		),
		validation.Field(&r.Credential.ExpiresAt,
			validation.Required.Error("expires_at is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToCredential converts the payload into a domain credential.
func (r *StoreCredentialRequest) ToCredential() *credentialDomain.Credential {
	return &credentialDomain.Credential{
		SubjectDID: r.Credential.SubjectDID,
		IssuerDID:  r.Credential.IssuerDID,
		Claims:     r.Credential.Claims,
		IssuedAt:   r.Credential.IssuedAt,
		ExpiresAt:  r.Credential.ExpiresAt,
		Proof: credentialDomain.Proof{
			Algorithm: r.Credential.Proof.Algorithm,
			KeyID:     r.Credential.Proof.KeyID,
			Signature: r.Credential.Proof.Signature,
		},
		RevocationID: r.Credential.RevocationID,
	}
}

// RevokeCredentialRequest represents the API request for recording a
// revocation.
type RevokeCredentialRequest struct {
	RevocationID string `json:"revocation_id"`
}

// Validate validates the RevokeCredentialRequest.
func (r *RevokeCredentialRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.RevocationID,
			validation.Required.Error("revocation_id is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("revocation_id must be between 1 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}
