package dto

import (
	"time"

	"github.com/google/uuid"

	approvalDomain "github.com/MCPTrustFramework/mcpf/internal/approval/domain"
)

// RequestResponse represents an approval request in API responses.
type RequestResponse struct {
	ID          uuid.UUID  `json:"id"`
	ContextKey  string     `json:"context_key"`
	FromDID     string     `json:"from_did"`
	ToDID       string     `json:"to_did"`
	Action      string     `json:"action"`
	PolicyID    uuid.UUID  `json:"policy_id"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// MapRequestToResponse converts a domain request to its API representation.
func MapRequestToResponse(request *approvalDomain.Request) RequestResponse {
	return RequestResponse{
		ID:          request.ID,
		ContextKey:  request.ContextKey,
		FromDID:     request.FromDID,
		ToDID:       request.ToDID,
		Action:      request.Action,
		PolicyID:    request.PolicyID,
		Status:      string(request.Status),
		RequestedAt: request.RequestedAt,
		RespondedAt: request.RespondedAt,
		ExpiresAt:   request.ExpiresAt,
	}
}

// ListRequestsResponse wraps a page of approval requests.
type ListRequestsResponse struct {
	Requests []RequestResponse `json:"requests"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

// RegisterApproverResponse carries the approver record and its one-time
// plain secret.
type RegisterApproverResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}
