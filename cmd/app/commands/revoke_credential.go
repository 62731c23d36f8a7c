package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	credentialUsecase "github.com/MCPTrustFramework/mcpf/internal/credential/usecase"
)

// RunRevokeCredential records a revocation id. Running verifiers pick it up
// immediately on this instance and on the next refresh everywhere else.
func RunRevokeCredential(
	ctx context.Context,
	credentialUseCase credentialUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	revocationID string,
) error {
	if revocationID == "" {
		return fmt.Errorf("revocation id is required")
	}

	if err := credentialUseCase.Revoke(ctx, revocationID); err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}

	logger.Info("credential revoked", slog.String("revocation_id", revocationID))
	_, _ = fmt.Fprintf(writer, "Revoked: %s\n", revocationID)
	return nil
}
