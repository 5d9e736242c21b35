package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	authUseCase "github.com/allisson/keyguard/internal/auth/usecase"
)

// RunIssueToken authenticates secretKey and issues a scope token carrying a
// subset of its scopes. The token lives in the partition of the key.
func RunIssueToken(
	ctx context.Context,
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
	writer io.Writer,
	secretKey string,
	scopesStr string,
	ttl time.Duration,
	resource string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	scopes, err := parseScopes(scopesStr)
	if err != nil {
		return err
	}

	caller, err := tokenUseCase.AuthenticateSecretKey(ctx, secretKey)
	if err != nil {
		return fmt.Errorf("failed to authenticate secret key: %w", err)
	}

	output, err := tokenUseCase.Issue(ctx, caller, &authDomain.IssueTokenInput{
		Scopes:   scopes,
		TTL:      ttl,
		Resource: resource,
	})
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	logger.Info("scope token issued",
		slog.String("partition", caller.Partition.String()),
		slog.Int("scopes", len(scopes)),
		slog.String("resource", resource),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"token":      output.Token,
			"expires_at": output.Expires,
		})
	}

	_, _ = fmt.Fprintf(writer, "Token: %s\n", output.Token)
	if output.Expires != nil {
		_, _ = fmt.Fprintf(writer, "Expires: %s\n", output.Expires.Format(time.RFC3339))
	} else {
		_, _ = fmt.Fprintln(writer, "Expires: never")
	}
	return nil
}
