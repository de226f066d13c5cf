// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/syncrete/vaultkit/internal/app"
	"github.com/syncrete/vaultkit/internal/config"

	"github.com/syncrete/vaultkit/cmd/app/commands"
)

const version = "1.0.0"

// withContainer builds the dependency container for commands that need wired
// usecases and guarantees its shutdown after the command runs.
func withContainer(ctx context.Context, fn func(context.Context, *app.Container, *slog.Logger) error) error {
	container := app.NewContainer(config.Load())
	logger := container.Logger()
	defer func() {
		if err := container.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown container", slog.Any("error", err))
		}
	}()
	return fn(ctx, container, logger)
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "vaultkit",
		Usage:   "Envelope-encrypted secret storage with master key rotation",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the metrics server and background workers",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "store-secret",
				Usage: "Encrypt and store a named secret",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Secret name (e.g., DATABASE_PASSWORD)",
					},
					&cli.StringFlag{
						Name:     "value",
						Aliases:  []string{"v"},
						Required: true,
						Usage:    "Secret value to encrypt",
					},
					&cli.StringSliceFlag{
						Name:    "metadata",
						Aliases: []string{"m"},
						Usage:   "Metadata pair in key=value form (repeatable)",
					},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						store, err := container.SecretStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunStoreSecret(
							ctx,
							store,
							logger,
							commands.DefaultWriter(),
							cmd.String("name"),
							cmd.String("value"),
							cmd.StringSlice("metadata"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "get-secret",
				Usage: "Decrypt and display a stored secret",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Secret name",
					},
					&cli.BoolFlag{
						Name:  "show-value",
						Value: false,
						Usage: "Print the decrypted value (omitted by default)",
					},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						store, err := container.SecretStore(ctx)
						if err != nil {
							return err
						}
						return commands.RunGetSecret(
							ctx,
							store,
							logger,
							commands.DefaultWriter(),
							cmd.String("name"),
							cmd.Bool("show-value"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "rotate-master-key",
				Usage: "Derive a new master key and re-encrypt all secrets under it",
				Flags: []cli.Flag{
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						coordinator, err := container.KeyRotationCoordinator(ctx)
						if err != nil {
							return err
						}
						return commands.RunRotateMasterKey(
							ctx,
							coordinator,
							logger,
							commands.DefaultWriter(),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "rotate-jwt-secret",
				Usage: "Generate and store a fresh JWT signing secret",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						coordinator, err := container.KeyRotationCoordinator(ctx)
						if err != nil {
							return err
						}
						return commands.RunRotateJWTSecret(ctx, coordinator, logger, commands.DefaultWriter())
					})
				},
			},
			{
				Name:  "key-history",
				Usage: "List master key versions, newest first",
				Flags: []cli.Flag{
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						coordinator, err := container.KeyRotationCoordinator(ctx)
						if err != nil {
							return err
						}
						return commands.RunKeyHistory(
							ctx,
							coordinator,
							logger,
							commands.DefaultWriter(),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "validate-encryption",
				Usage: "Verify stored secrets decrypt under the current master key",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "sample",
						Aliases: []string{"s"},
						Value:   0,
						Usage:   "Number of secrets to sample (0 checks all)",
					},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						coordinator, err := container.KeyRotationCoordinator(ctx)
						if err != nil {
							return err
						}
						return commands.RunValidateEncryption(
							ctx,
							coordinator,
							logger,
							commands.DefaultWriter(),
							cmd.Int("sample"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "create-api-key",
				Usage: "Issue a new API key (raw key is shown once)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Human-readable key name",
					},
					&cli.StringSliceFlag{
						Name:    "permission",
						Aliases: []string{"p"},
						Usage:   "Permission granted to the key (repeatable)",
					},
					&cli.StringFlag{
						Name:  "created-by",
						Value: "cli",
						Usage: "Actor recorded as the key creator",
					},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						manager, err := container.APIKeyManager()
						if err != nil {
							return err
						}
						return commands.RunCreateAPIKey(
							ctx,
							manager,
							logger,
							commands.DefaultWriter(),
							cmd.String("name"),
							cmd.StringSlice("permission"),
							cmd.String("created-by"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "validate-api-key",
				Usage: "Check whether a raw API key is valid and active",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Required: true,
						Usage:    "Raw API key to validate",
					},
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						manager, err := container.APIKeyManager()
						if err != nil {
							return err
						}
						return commands.RunValidateAPIKey(
							ctx,
							manager,
							logger,
							commands.DefaultWriter(),
							cmd.String("key"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "revoke-api-key",
				Usage: "Permanently revoke an API key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "API key ID (UUID)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						manager, err := container.APIKeyManager()
						if err != nil {
							return err
						}
						return commands.RunRevokeAPIKey(
							ctx,
							manager,
							logger,
							commands.DefaultWriter(),
							cmd.String("id"),
						)
					})
				},
			},
			{
				Name:  "list-api-keys",
				Usage: "List all API keys",
				Flags: []cli.Flag{
					formatFlag(),
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(ctx, func(ctx context.Context, container *app.Container, logger *slog.Logger) error {
						manager, err := container.APIKeyManager()
						if err != nil {
							return err
						}
						return commands.RunListAPIKeys(
							ctx,
							manager,
							logger,
							commands.DefaultWriter(),
							cmd.String("format"),
						)
					})
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
