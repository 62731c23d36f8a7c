package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/MCPTrustFramework/mcpf/cmd/app/commands"
	"github.com/MCPTrustFramework/mcpf/internal/app"
	"github.com/MCPTrustFramework/mcpf/internal/config"
)

func getTrustCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "register-agent",
			Usage: "Publish an agent identity to the directory",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Hierarchical agent name (e.g. trading.dbs.example.agent)",
				},
				&cli.StringFlag{
					Name:     "did",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Decentralized identifier (e.g. did:web:trading.dbs.example.com)",
				},
				&cli.StringFlag{
					Name:     "key-id",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Identifier of the public key",
				},
				&cli.StringFlag{
					Name:    "algorithm",
					Aliases: []string{"a"},
					Value:   "ed25519",
					Usage:   "Signature algorithm of the public key",
				},
				&cli.StringFlag{
					Name:     "public-key",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Base64 encoded public key material",
				},
				&cli.StringFlag{
					Name:    "metadata",
					Aliases: []string{"m"},
					Usage:   "JSON object of metadata string pairs",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				identityUseCase, err := container.IdentityUseCase()
				if err != nil {
					return err
				}

				return commands.RunRegisterAgent(
					ctx,
					identityUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("did"),
					cmd.String("key-id"),
					cmd.String("algorithm"),
					cmd.String("public-key"),
					cmd.String("metadata"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "register-approver",
			Usage: "Create an approver and print its secret once",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable approver name",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				approvalUseCase, err := container.ApprovalUseCase()
				if err != nil {
					return err
				}

				return commands.RunRegisterApprover(
					ctx,
					approvalUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "load-policies",
			Usage: "Rebuild the delegation policy snapshot from storage and the policy file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				delegationUseCase, err := container.DelegationUseCase()
				if err != nil {
					return err
				}

				return commands.RunLoadPolicies(
					ctx,
					delegationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-credential",
			Usage: "Record a credential revocation id",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "revocation-id",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Revocation id embedded in the credential",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				credentialUseCase, err := container.CredentialUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeCredential(
					ctx,
					credentialUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("revocation-id"),
				)
			},
		},
	}
}
