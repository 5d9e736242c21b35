package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	authUseCase "github.com/allisson/keyguard/internal/auth/usecase"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	"github.com/allisson/keyguard/internal/httputil"
)

// RunCreateAPIKey creates an API key in a partition and prints its secret key.
// The secret key is only shown once; only the hash of its secret part is stored.
//
// Requirements: Database must be migrated and partition keys configured.
func RunCreateAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	partitionStr string,
	scopesStr string,
	description string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	partition, err := cryptoDomain.ParsePartition(partitionStr)
	if err != nil {
		return fmt.Errorf("invalid partition %q: %w", partitionStr, err)
	}

	scopes, err := parseScopes(scopesStr)
	if err != nil {
		return err
	}

	output, err := apiKeyUseCase.Create(ctx, &authDomain.CreateAPIKeyInput{
		Partition:   partition,
		Scopes:      scopes,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	logger.Info("api key created",
		slog.String("key_id", output.ID),
		slog.String("partition", partition.String()),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"id":         output.ID,
			"partition":  partition,
			"scopes":     scopes,
			"secret_key": output.SecretKey,
		})
	}

	_, _ = fmt.Fprintf(writer, "ID: %s\n", output.ID)
	_, _ = fmt.Fprintf(writer, "Partition: %s\n", partition)
	_, _ = fmt.Fprintf(writer, "Scopes: %s\n", strings.Join(scopes, ", "))
	_, _ = fmt.Fprintf(writer, "Secret key: %s\n", output.SecretKey)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "Store the secret key securely. It cannot be retrieved again.")
	return nil
}

// RunListAPIKeys prints the API keys of a partition, newest first.
func RunListAPIKeys(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	writer io.Writer,
	partitionStr string,
	offset int,
	limit int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	partition, err := cryptoDomain.ParsePartition(partitionStr)
	if err != nil {
		return fmt.Errorf("invalid partition %q: %w", partitionStr, err)
	}
	if err := httputil.ValidatePagination(offset, limit); err != nil {
		return err
	}

	apiKeys, err := apiKeyUseCase.List(ctx, partition, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list api keys: %w", err)
	}

	if format == "json" {
		items := make([]map[string]any, 0, len(apiKeys))
		for _, k := range apiKeys {
			items = append(items, map[string]any{
				"id":          k.ID,
				"scopes":      k.Scopes,
				"description": k.Description,
				"created_at":  k.CreatedAt,
				"revoked_at":  k.RevokedAt,
			})
		}
		return writeJSON(writer, map[string]any{"data": items})
	}

	for _, k := range apiKeys {
		status := "active"
		if k.IsRevoked() {
			status = "revoked " + k.RevokedAt.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(writer, "%s  %s  %s  [%s]\n",
			k.ID,
			k.CreatedAt.Format(time.RFC3339),
			status,
			strings.Join(k.Scopes, ", "),
		)
	}
	return nil
}

// RunRevokeAPIKey revokes an API key. Tokens derived from it stop
// authenticating on this instance immediately.
func RunRevokeAPIKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	partitionStr string,
	id string,
) error {
	partition, err := cryptoDomain.ParsePartition(partitionStr)
	if err != nil {
		return fmt.Errorf("invalid partition %q: %w", partitionStr, err)
	}

	if err := apiKeyUseCase.Revoke(ctx, id, partition); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	logger.Info("api key revoked",
		slog.String("key_id", id),
		slog.String("partition", partition.String()),
	)
	_, _ = fmt.Fprintf(writer, "API key %s revoked\n", id)
	return nil
}
