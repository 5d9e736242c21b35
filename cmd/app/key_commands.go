package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keyguard/cmd/app/commands"
	cryptoService "github.com/allisson/keyguard/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-secret-key",
			Usage: "Generate the partition secret keys (TEST_SECRET_KEY and LIVE_SECRET_KEY)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "Wrap the keys with this KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				// Keys go to stdout, so diagnostics stay out of it.
				logger := slog.New(slog.NewTextHandler(io.Discard, nil))
				if cmd.String("kms-key-uri") != "" {
					logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
				}

				return commands.RunCreateSecretKey(
					ctx,
					cryptoService.NewKMSService(),
					logger,
					commands.DefaultIO().Writer,
					cmd.String("kms-key-uri"),
					cmd.String("format"),
				)
			},
		},
	}
}
