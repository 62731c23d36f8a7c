package dto

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
)

// PublicKeyResponse is one public key in an identity response. Material is
// base64-encoded.
type PublicKeyResponse struct {
	KeyID     string `json:"key_id"`
	Algorithm string `json:"algorithm"`
	Material  string `json:"material"`
}

// AgentResponse represents an agent identity in API responses.
type AgentResponse struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"name"`
	DID        string              `json:"did"`
	PublicKeys []PublicKeyResponse `json:"public_keys"`
	Metadata   map[string]string   `json:"metadata,omitempty"`
	Version    int                 `json:"version"`
	CreatedAt  time.Time           `json:"created_at"`
}

// MapIdentityToResponse converts a domain identity to its API representation.
func MapIdentityToResponse(identity *directoryDomain.AgentIdentity) AgentResponse {
	keys := make([]PublicKeyResponse, 0, len(identity.PublicKeys))
	for _, key := range identity.PublicKeys {
		keys = append(keys, PublicKeyResponse{
			KeyID:     key.KeyID,
			Algorithm: key.Algorithm,
			Material:  base64.StdEncoding.EncodeToString(key.Material),
		})
	}
	return AgentResponse{
		ID:         identity.ID,
		Name:       identity.Name,
		DID:        identity.DID,
		PublicKeys: keys,
		Metadata:   identity.Metadata,
		Version:    identity.Version,
		CreatedAt:  identity.CreatedAt,
	}
}
