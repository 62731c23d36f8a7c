package commands

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	directoryDomain "github.com/MCPTrustFramework/mcpf/internal/directory/domain"
	directoryUsecase "github.com/MCPTrustFramework/mcpf/internal/directory/usecase"
)

// RunRegisterAgent publishes a new agent identity version to the directory.
// publicKeyB64 carries the raw key material base64 encoded; metadataJSON is an
// optional JSON object of string pairs.
func RunRegisterAgent(
	ctx context.Context,
	identityUseCase directoryUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	name, did, keyID, algorithm, publicKeyB64, metadataJSON string,
	format string,
) error {
	material, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return fmt.Errorf("invalid public key encoding: %w", err)
	}

	var metadata map[string]string
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return fmt.Errorf("invalid metadata JSON: %w", err)
		}
	}

	identity, err := identityUseCase.Register(ctx, &directoryUsecase.RegisterIdentityInput{
		Name: name,
		DID:  did,
		PublicKeys: []directoryDomain.PublicKey{
			{KeyID: keyID, Algorithm: algorithm, Material: material},
		},
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to register agent: %w", err)
	}

	logger.Info("agent registered",
		slog.String("name", identity.Name),
		slog.String("did", identity.DID),
		slog.Int("version", identity.Version),
	)

	if format == "json" {
		return outputRegisteredAgentJSON(writer, identity)
	}
	outputRegisteredAgentText(writer, identity)
	return nil
}

func outputRegisteredAgentText(writer io.Writer, identity *directoryDomain.AgentIdentity) {
	_, _ = fmt.Fprintf(writer, "Agent Registered\n")
	_, _ = fmt.Fprintf(writer, "================\n\n")
	_, _ = fmt.Fprintf(writer, "ID:      %s\n", identity.ID)
	_, _ = fmt.Fprintf(writer, "Name:    %s\n", identity.Name)
	_, _ = fmt.Fprintf(writer, "DID:     %s\n", identity.DID)
	_, _ = fmt.Fprintf(writer, "Version: %d\n", identity.Version)
}

func outputRegisteredAgentJSON(writer io.Writer, identity *directoryDomain.AgentIdentity) error {
	result := map[string]interface{}{
		"id":      identity.ID.String(),
		"name":    identity.Name,
		"did":     identity.DID,
		"version": identity.Version,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
