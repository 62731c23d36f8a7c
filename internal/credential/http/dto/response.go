package dto

import (
	"github.com/google/uuid"

	credentialDomain "github.com/MCPTrustFramework/mcpf/internal/credential/domain"
)

// VerificationResponse represents a verification verdict in API responses.
type VerificationResponse struct {
	Valid      bool   `json:"valid"`
	ReasonCode string `json:"reason_code,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// MapResultToResponse converts a domain verdict to its API representation.
func MapResultToResponse(result *credentialDomain.VerificationResult) VerificationResponse {
	return VerificationResponse{
		Valid:      result.Valid,
		ReasonCode: result.ReasonCode,
		Reason:     result.Reason,
	}
}

// StoredCredentialResponse acknowledges a stored credential.
type StoredCredentialResponse struct {
	ID uuid.UUID `json:"id"`
}
