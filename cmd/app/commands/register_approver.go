package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	approvalUsecase "github.com/MCPTrustFramework/mcpf/internal/approval/usecase"
)

// RunRegisterApprover creates a new approver and prints the generated secret.
// The secret is shown exactly once; only its hash is stored.
func RunRegisterApprover(
	ctx context.Context,
	approvalUseCase approvalUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	format string,
) error {
	output, err := approvalUseCase.RegisterApprover(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to register approver: %w", err)
	}

	logger.Info("approver registered",
		slog.String("id", output.Approver.ID.String()),
		slog.String("name", output.Approver.Name),
	)

	if format == "json" {
		result := map[string]interface{}{
			"id":     output.Approver.ID.String(),
			"name":   output.Approver.Name,
			"secret": output.PlainSecret,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
		return nil
	}

	_, _ = fmt.Fprintf(writer, "Approver Registered\n")
	_, _ = fmt.Fprintf(writer, "===================\n\n")
	_, _ = fmt.Fprintf(writer, "ID:     %s\n", output.Approver.ID)
	_, _ = fmt.Fprintf(writer, "Name:   %s\n", output.Approver.Name)
	_, _ = fmt.Fprintf(writer, "Secret: %s\n\n", output.PlainSecret)
	_, _ = fmt.Fprintf(writer, "Store this secret now. It cannot be recovered later.\n")
	return nil
}
