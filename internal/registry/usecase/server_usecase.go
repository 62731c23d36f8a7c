package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	registryDomain "github.com/MCPTrustFramework/mcpf/internal/registry/domain"
)

type serverUseCase struct {
	serverRepo ServerRepository
	clock      func() time.Time
}

func (u *serverUseCase) Register(ctx context.Context, input *RegisterServerInput) (*registryDomain.ServerRecord, error) {
	server := &registryDomain.ServerRecord{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         input.Name,
		Endpoint:     input.Endpoint,
		Capabilities: input.Capabilities,
		Metadata:     input.Metadata,
		CreatedAt:    u.clock(),
	}
	if err := u.serverRepo.Create(ctx, server); err != nil {
		return nil, err
	}
	return server, nil
}

func (u *serverUseCase) Search(ctx context.Context, capability string, offset, limit int) ([]*registryDomain.ServerRecord, error) {
	return u.serverRepo.Search(ctx, capability, offset, limit)
}

// NewServerUseCase creates a new registry use case.
func NewServerUseCase(serverRepo ServerRepository) UseCase {
	return &serverUseCase{
		serverRepo: serverRepo,
		clock:      func() time.Time { return time.Now().UTC() },
	}
}
