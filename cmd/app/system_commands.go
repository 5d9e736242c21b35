package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/keyguard/cmd/app/commands"
	"github.com/allisson/keyguard/internal/app"
	authRepository "github.com/allisson/keyguard/internal/auth/repository"
	"github.com/allisson/keyguard/internal/config"
	"github.com/allisson/keyguard/internal/database"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations (SQL schema or MongoDB indexes)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				if cfg.DBDriver != database.DriverMongoDB {
					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				}

				client, err := container.MongoClient()
				if err != nil {
					return err
				}
				// Index creation never touches encrypted fields, so no cipher is needed.
				repository := authRepository.NewMongoDBAPIKeyRepository(client.Database(cfg.MongoDatabase), nil)
				return commands.RunMongoMigrations(ctx, container.Logger(), repository)
			},
		},
	}
}
