package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	"github.com/allisson/keyguard/internal/metrics"
)

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// apiKeyUseCaseWithMetrics decorates APIKeyUseCase with metrics instrumentation.
type apiKeyUseCaseWithMetrics struct {
	next    APIKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewAPIKeyUseCaseWithMetrics wraps an APIKeyUseCase with metrics recording.
func NewAPIKeyUseCaseWithMetrics(useCase APIKeyUseCase, m metrics.BusinessMetrics) APIKeyUseCase {
	return &apiKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *apiKeyUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := statusOf(err)
	a.metrics.RecordOperation(ctx, "auth", operation, status)
	a.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Create records metrics for API key creation operations.
func (a *apiKeyUseCaseWithMetrics) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	start := time.Now()
	output, err := a.next.Create(ctx, input)
	a.record(ctx, "api_key_create", start, err)
	return output, err
}

// Get records metrics for API key retrieval operations.
func (a *apiKeyUseCaseWithMetrics) Get(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) (*authDomain.APIKey, error) {
	start := time.Now()
	apiKey, err := a.next.Get(ctx, id, partition)
	a.record(ctx, "api_key_get", start, err)
	return apiKey, err
}

// List records metrics for API key listing operations.
func (a *apiKeyUseCaseWithMetrics) List(
	ctx context.Context,
	partition cryptoDomain.Partition,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	start := time.Now()
	apiKeys, err := a.next.List(ctx, partition, offset, limit)
	a.record(ctx, "api_key_list", start, err)
	return apiKeys, err
}

// Revoke records metrics for API key revocation operations.
func (a *apiKeyUseCaseWithMetrics) Revoke(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) error {
	start := time.Now()
	err := a.next.Revoke(ctx, id, partition)
	a.record(ctx, "api_key_revoke", start, err)
	return err
}

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (t *tokenUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := statusOf(err)
	t.metrics.RecordOperation(ctx, "auth", operation, status)
	t.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Issue records metrics for scope token issuance.
func (t *tokenUseCaseWithMetrics) Issue(
	ctx context.Context,
	caller *authDomain.AuthContext,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	start := time.Now()
	output, err := t.next.Issue(ctx, caller, input)
	t.record(ctx, "token_issue", start, err)
	return output, err
}

// AuthenticateSecretKey records metrics for Bearer authentication.
func (t *tokenUseCaseWithMetrics) AuthenticateSecretKey(
	ctx context.Context,
	secretKey string,
) (*authDomain.AuthContext, error) {
	start := time.Now()
	authContext, err := t.next.AuthenticateSecretKey(ctx, secretKey)
	t.record(ctx, "authenticate_secret_key", start, err)
	return authContext, err
}

// AuthenticateToken records metrics for query token authentication.
func (t *tokenUseCaseWithMetrics) AuthenticateToken(
	ctx context.Context,
	token string,
	resource string,
) (*authDomain.AuthContext, error) {
	start := time.Now()
	authContext, err := t.next.AuthenticateToken(ctx, token, resource)
	t.record(ctx, "authenticate_token", start, err)
	return authContext, err
}
