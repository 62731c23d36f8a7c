// Package dto provides data transfer objects for the registry HTTP layer.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	registryDomain "github.com/MCPTrustFramework/mcpf/internal/registry/domain"
	registryUseCase "github.com/MCPTrustFramework/mcpf/internal/registry/usecase"
	appValidation "github.com/MCPTrustFramework/mcpf/internal/validation"
)

// RegisterServerRequest represents the API request for registering an MCP
// server.
type RegisterServerRequest struct {
	Name         string            `json:"name"`
	Endpoint     string            `json:"endpoint"`
	Capabilities []string          `json:"capabilities"`
	Metadata     map[string]string `json:"metadata"`
}

// Validate validates the RegisterServerRequest.
func (r *RegisterServerRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Endpoint,
			validation.Required.Error("endpoint is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Capabilities,
			validation.Required.Error("at least one capability is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToRegisterServerInput converts the request into a use case input.
func ToRegisterServerInput(r *RegisterServerRequest) *registryUseCase.RegisterServerInput {
	return &registryUseCase.RegisterServerInput{
		Name:         r.Name,
		Endpoint:     r.Endpoint,
		Capabilities: r.Capabilities,
		Metadata:     r.Metadata,
	}
}

// ServerResponse represents the API representation of a server record.
type ServerResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Endpoint     string            `json:"endpoint"`
	Capabilities []string          `json:"capabilities"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// MapServerToResponse maps a server record to its API representation.
func MapServerToResponse(server *registryDomain.ServerRecord) *ServerResponse {
	return &ServerResponse{
		ID:           server.ID.String(),
		Name:         server.Name,
		Endpoint:     server.Endpoint,
		Capabilities: server.Capabilities,
		Metadata:     server.Metadata,
		CreatedAt:    server.CreatedAt,
	}
}

// MapServersToResponse maps a server list to its API representation.
func MapServersToResponse(servers []*registryDomain.ServerRecord) []*ServerResponse {
	responses := make([]*ServerResponse, 0, len(servers))
	for _, server := range servers {
		responses = append(responses, MapServerToResponse(server))
	}
	return responses
}
