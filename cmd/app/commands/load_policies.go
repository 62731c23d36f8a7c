package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	delegationUsecase "github.com/MCPTrustFramework/mcpf/internal/delegation/usecase"
)

// RunLoadPolicies rebuilds the active policy snapshot from storage plus the
// configured policy file and reports the number of active policies.
func RunLoadPolicies(
	ctx context.Context,
	delegationUseCase delegationUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	activePolicies, err := delegationUseCase.ReloadPolicies(ctx)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	logger.Info("policies loaded", slog.Int("active_policies", activePolicies))

	if format == "json" {
		result := map[string]interface{}{
			"active_policies": activePolicies,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
		return nil
	}

	_, _ = fmt.Fprintf(writer, "Active policies: %d\n", activePolicies)
	return nil
}
