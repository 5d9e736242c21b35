// Package usecase defines business logic interfaces for authentication and authorization operations.
package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// APIKeyRepository defines persistence operations for API key records.
// SQL implementations must support transaction-aware operations via context propagation.
type APIKeyRepository interface {
	// Create stores a new API key record.
	Create(ctx context.Context, apiKey *authDomain.APIKey) error

	// Get retrieves an API key by id within a partition. Returns ErrAPIKeyNotFound if not found.
	Get(ctx context.Context, id string, partition cryptoDomain.Partition) (*authDomain.APIKey, error)

	// List returns the API keys of a partition ordered by creation time, newest first.
	List(
		ctx context.Context,
		partition cryptoDomain.Partition,
		offset, limit int,
	) ([]*authDomain.APIKey, error)

	// Revoke marks an API key as revoked. Returns ErrAPIKeyNotFound if not found.
	Revoke(ctx context.Context, id string, partition cryptoDomain.Partition, revokedAt time.Time) error
}

// KeyResolver turns a presented secret key into the context it grants.
type KeyResolver interface {
	// Resolve validates secretKey and returns its AuthContext. Any invalid,
	// unknown or revoked key fails with ErrInvalidToken.
	Resolve(ctx context.Context, secretKey string) (*authDomain.AuthContext, error)

	// Invalidate drops every cached validation of the key id.
	Invalidate(id string)
}

// APIKeyUseCase defines the lifecycle of API keys.
type APIKeyUseCase interface {
	// Create generates a new secret key and stores the salted hash of its secret.
	// The plaintext key is only present in the returned output.
	Create(ctx context.Context, input *authDomain.CreateAPIKeyInput) (*authDomain.CreateAPIKeyOutput, error)

	// Get retrieves an API key record. Returns ErrAPIKeyNotFound if not found.
	Get(ctx context.Context, id string, partition cryptoDomain.Partition) (*authDomain.APIKey, error)

	// List retrieves API key records with pagination.
	List(
		ctx context.Context,
		partition cryptoDomain.Partition,
		offset, limit int,
	) ([]*authDomain.APIKey, error)

	// Revoke revokes an API key and drops its cached validations. Returns
	// ErrAPIKeyNotFound if not found and ErrAPIKeyRevoked if already revoked.
	Revoke(ctx context.Context, id string, partition cryptoDomain.Partition) error
}

// TokenUseCase defines scope token issuance and request authentication.
type TokenUseCase interface {
	// Issue creates a scope token in the caller's partition. Every requested
	// scope must be granted by caller, and the token never outlives caller.
	Issue(
		ctx context.Context,
		caller *authDomain.AuthContext,
		input *authDomain.IssueTokenInput,
	) (*authDomain.IssueTokenOutput, error)

	// AuthenticateSecretKey resolves a secret key presented as a Bearer credential.
	AuthenticateSecretKey(ctx context.Context, secretKey string) (*authDomain.AuthContext, error)

	// AuthenticateToken decodes a token presented as the token query parameter.
	// API key tokens go through the key resolver; scope tokens grant their own
	// context. resource is the resource of the current request.
	AuthenticateToken(ctx context.Context, token string, resource string) (*authDomain.AuthContext, error)
}
