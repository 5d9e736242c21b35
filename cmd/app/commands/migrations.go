package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// IndexEnsurer creates the indexes a document store relies on.
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// RunMigrations applies all pending SQL migrations for the configured driver
// (postgres or mysql). Returns nil if there is nothing to apply.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string) error {
	logger.Info("running database migrations", slog.String("driver", dbDriver))

	migrationsPath := "file://migrations/postgresql"
	if dbDriver == "mysql" {
		migrationsPath = "file://migrations/mysql"
	}

	m, err := migrate.New(migrationsPath, dbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// RunMongoMigrations creates the MongoDB indexes. It is idempotent.
func RunMongoMigrations(ctx context.Context, logger *slog.Logger, ensurer IndexEnsurer) error {
	logger.Info("ensuring mongodb indexes")

	if err := ensurer.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure mongodb indexes: %w", err)
	}

	logger.Info("mongodb indexes ensured")
	return nil
}
