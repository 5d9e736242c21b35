package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keyguard/cmd/app/commands"
	"github.com/allisson/keyguard/internal/app"
	"github.com/allisson/keyguard/internal/config"
)

func partitionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "partition",
		Aliases:  []string{"p"},
		Required: true,
		Usage:    "Partition of the key: 'test' or 'live'",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-api-key",
			Usage: "Create a new API key and print its secret key",
			Flags: []cli.Flag{
				partitionFlag(),
				&cli.StringFlag{
					Name:     "scopes",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Comma-separated scopes (e.g., 'licenses:read,tokens:create' or '*')",
				},
				&cli.StringFlag{
					Name:    "description",
					Aliases: []string{"d"},
					Usage:   "Human-readable description",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("partition"),
					cmd.String("scopes"),
					cmd.String("description"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-api-keys",
			Usage: "List the API keys of a partition",
			Flags: []cli.Flag{
				partitionFlag(),
				&cli.IntFlag{
					Name:  "offset",
					Value: 0,
					Usage: "Number of keys to skip",
				},
				&cli.IntFlag{
					Name:  "limit",
					Value: 50,
					Usage: "Maximum number of keys to list (1-1000)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunListAPIKeys(
					ctx,
					apiKeyUseCase,
					commands.DefaultIO().Writer,
					cmd.String("partition"),
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-api-key",
			Usage: "Revoke an API key",
			Flags: []cli.Flag{
				partitionFlag(),
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "API key id (12 base62 characters)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				apiKeyUseCase, err := container.APIKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeAPIKey(
					ctx,
					apiKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("partition"),
					cmd.String("id"),
				)
			},
		},
		{
			Name:  "issue-token",
			Usage: "Issue a scope token delegating a subset of an API key's scopes",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "secret-key",
					Sources:  cli.EnvVars("KEYGUARD_SECRET_KEY"),
					Required: true,
					Usage:    "Secret key of the issuing API key",
				},
				&cli.StringFlag{
					Name:     "scopes",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Comma-separated scopes, each granted by the issuing key",
				},
				&cli.DurationFlag{
					Name:  "ttl",
					Value: 0,
					Usage: "Token lifetime (0 uses SCOPE_TOKEN_DEFAULT_TTL_SECONDS)",
				},
				&cli.StringFlag{
					Name:  "resource",
					Usage: "Bind the token to one resource (e.g., 'licenses/lic_1')",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tokenUseCase, err := container.TokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunIssueToken(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("secret-key"),
					cmd.String("scopes"),
					cmd.Duration("ttl"),
					cmd.String("resource"),
					cmd.String("format"),
				)
			},
		},
	}
}

