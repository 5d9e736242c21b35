// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	authService "github.com/allisson/keyguard/internal/auth/service"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	"github.com/allisson/keyguard/internal/database"
)

// apiKeyUseCase implements APIKeyUseCase.
type apiKeyUseCase struct {
	txManager     database.TxManager
	apiKeyRepo    APIKeyRepository
	secretService authService.SecretService
	keyResolver   KeyResolver
}

// Create generates and persists a new API key.
// The plaintext secret key is only returned once and must be stored by the
// caller; only the argon2id hash of its secret part is persisted.
func (a *apiKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateAPIKeyInput,
) (*authDomain.CreateAPIKeyOutput, error) {
	if !input.Partition.Valid() {
		return nil, cryptoDomain.ErrUnknownPartition
	}
	if err := input.Scopes.Validate(); err != nil {
		return nil, err
	}

	key, hashedSecret, err := a.secretService.GenerateSecretKey(input.Partition)
	if err != nil {
		return nil, err
	}

	apiKey := &authDomain.APIKey{
		ID:          key.ID,
		SecretHash:  hashedSecret,
		Partition:   input.Partition,
		Scopes:      input.Scopes,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := a.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, err
	}

	return &authDomain.CreateAPIKeyOutput{
		ID:        apiKey.ID,
		SecretKey: key.Plaintext(),
		APIKey:    apiKey,
	}, nil
}

// Get retrieves an API key record by id.
func (a *apiKeyUseCase) Get(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) (*authDomain.APIKey, error) {
	return a.apiKeyRepo.Get(ctx, id, partition)
}

// List retrieves API key records with pagination.
func (a *apiKeyUseCase) List(
	ctx context.Context,
	partition cryptoDomain.Partition,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	return a.apiKeyRepo.List(ctx, partition, offset, limit)
}

// Revoke marks the key as revoked inside a transaction and drops its cached
// validations, so the revocation takes effect on this instance immediately.
func (a *apiKeyUseCase) Revoke(ctx context.Context, id string, partition cryptoDomain.Partition) error {
	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		apiKey, err := a.apiKeyRepo.Get(ctx, id, partition)
		if err != nil {
			return err
		}
		if apiKey.IsRevoked() {
			return authDomain.ErrAPIKeyRevoked
		}
		return a.apiKeyRepo.Revoke(ctx, id, partition, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	a.keyResolver.Invalidate(id)
	return nil
}

// NewAPIKeyUseCase creates a new APIKeyUseCase with the provided dependencies.
func NewAPIKeyUseCase(
	txManager database.TxManager,
	apiKeyRepo APIKeyRepository,
	secretService authService.SecretService,
	keyResolver KeyResolver,
) APIKeyUseCase {
	return &apiKeyUseCase{
		txManager:     txManager,
		apiKeyRepo:    apiKeyRepo,
		secretService: secretService,
		keyResolver:   keyResolver,
	}
}
