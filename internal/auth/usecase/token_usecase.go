package usecase

import (
	"context"
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	authService "github.com/allisson/keyguard/internal/auth/service"
)

// TokenConfig bounds the lifetime of issued scope tokens.
type TokenConfig struct {
	DefaultTTL time.Duration
	MaxTTL     time.Duration
}

// tokenUseCase implements TokenUseCase.
type tokenUseCase struct {
	config      TokenConfig
	tokenCodec  authService.TokenCodec
	keyResolver KeyResolver
}

// Issue delegates a subset of the caller's scopes to a new scope token.
//
// Security Notes:
//   - Each requested scope must pass caller.Grants, so a token never carries
//     more than its issuer
//   - The expiry is capped by the caller's own expiry
//   - With a resource the token only verifies for requests on that resource
func (t *tokenUseCase) Issue(
	ctx context.Context,
	caller *authDomain.AuthContext,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	if err := input.Scopes.Validate(); err != nil {
		return nil, err
	}
	for _, scope := range input.Scopes {
		if err := caller.Grants(scope); err != nil {
			return nil, err
		}
	}

	ttl := input.TTL
	if ttl == 0 {
		ttl = t.config.DefaultTTL
	}
	if ttl < 0 || (t.config.MaxTTL > 0 && ttl > t.config.MaxTTL) {
		return nil, authDomain.ErrInvalidTokenTTL
	}

	expires := time.Now().UTC().Add(ttl)
	if caller.Expires != nil && caller.Expires.Before(expires) {
		expires = *caller.Expires
	}

	token, err := t.tokenCodec.EncodeScopeToken(caller.Partition, input.Scopes, &expires, input.Resource)
	if err != nil {
		return nil, err
	}

	return &authDomain.IssueTokenOutput{
		Token:   token,
		Expires: &expires,
	}, nil
}

// AuthenticateSecretKey resolves a Bearer secret key through the key resolver.
func (t *tokenUseCase) AuthenticateSecretKey(
	ctx context.Context,
	secretKey string,
) (*authDomain.AuthContext, error) {
	return t.keyResolver.Resolve(ctx, secretKey)
}

// AuthenticateToken decodes a query token. Scope tokens are trusted on their
// AEAD tag alone and never touch the store.
func (t *tokenUseCase) AuthenticateToken(
	ctx context.Context,
	token string,
	resource string,
) (*authDomain.AuthContext, error) {
	decoded, err := t.tokenCodec.Decode(token, resource)
	if err != nil {
		return nil, err
	}

	switch tok := decoded.(type) {
	case authDomain.APIKeyToken:
		return t.keyResolver.Resolve(ctx, tok.SecretKey)
	case authDomain.ScopeToken:
		return tok.AuthContext()
	case authDomain.ResourceScopeToken:
		return tok.AuthContext()
	default:
		return nil, authDomain.ErrInvalidToken
	}
}

// NewTokenUseCase creates a new TokenUseCase with the provided dependencies.
func NewTokenUseCase(
	config TokenConfig,
	tokenCodec authService.TokenCodec,
	keyResolver KeyResolver,
) TokenUseCase {
	return &tokenUseCase{
		config:      config,
		tokenCodec:  tokenCodec,
		keyResolver: keyResolver,
	}
}
