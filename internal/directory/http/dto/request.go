// Package dto provides data transfer objects for the directory HTTP layer.
package dto

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"

	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	directoryUseCase "github.com/MCPTrustFramework/mcpf/internal/directory/usecase"
	appValidation "github.com/MCPTrustFramework/mcpf/internal/validation"
)

// PublicKeyRequest is one public key in a registration request.
type PublicKeyRequest struct {
	KeyID     string `json:"key_id"`
	Algorithm string `json:"algorithm"`
	Material  string `json:"material"`
}

// RegisterAgentRequest represents the API request for registering an agent
// identity. Registering an existing name publishes a new version of it.
type RegisterAgentRequest struct {
	Name       string             `json:"name"`
	DID        string             `json:"did"`
	PublicKeys []PublicKeyRequest `json:"public_keys"`
	Metadata   map[string]string  `json:"metadata"`
}

// Validate validates the RegisterAgentRequest.
func (r *RegisterAgentRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.AgentNamePattern,
		),
		validation.Field(&r.DID,
			validation.Required.Error("did is required"),
			appValidation.DID,
		),
		validation.Field(&r.PublicKeys,
			validation.Required.Error("at least one public key is required"),
		),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	for i := range r.PublicKeys {
		key := &r.PublicKeys[i]
		err := validation.ValidateStruct(key,
			validation.Field(&key.KeyID,
				validation.Required.Error("key_id is required"),
				appValidation.NotBlank,
			),
			validation.Field(&key.Algorithm,
				validation.Required.Error("algorithm is required"),
				validation.In("ed25519", "ecdsa-p256").Error("algorithm must be ed25519 or ecdsa-p256"),
			),
			validation.Field(&key.Material,
				validation.Required.Error("material is required"),
				appValidation.Base64,
			),
		)
		if err != nil {
			return appValidation.WrapValidationError(err)
		}
	}
	return nil
}

// ToRegisterIdentityInput converts the request into a use case input. Key
// material arrives base64-encoded and is decoded here; Validate must have
// accepted the request first.
func ToRegisterIdentityInput(r *RegisterAgentRequest) (*directoryUseCase.RegisterIdentityInput, error) {
	keys := make([]directoryDomain.PublicKey, 0, len(r.PublicKeys))
	for _, key := range r.PublicKeys {
		material, err := base64.StdEncoding.DecodeString(key.Material)
		if err != nil {
			return nil, err
		}
		keys = append(keys, directoryDomain.PublicKey{
			KeyID:     key.KeyID,
			Algorithm: key.Algorithm,
			Material:  material,
		})
	}
	return &directoryUseCase.RegisterIdentityInput{
		Name:       r.Name,
		DID:        r.DID,
		PublicKeys: keys,
		Metadata:   r.Metadata,
	}, nil
}
