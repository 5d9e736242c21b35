package domain

import (
	"github.com/allisson/keyguard/internal/errors"
)

// Authentication and authorization errors. None of them carries the token or
// key that caused it.
var (
	// ErrInvalidToken indicates a malformed token or secret key, or one that
	// failed authentication.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrExpired indicates a credential whose expiry is not in the future.
	ErrExpired = errors.Wrap(errors.ErrUnauthorized, "token expired")

	// ErrNoScope indicates a credential without any scope.
	ErrNoScope = errors.Wrap(errors.ErrForbidden, "no scope granted")

	// ErrForbidden indicates a valid credential lacking the requested scope.
	ErrForbidden = errors.Wrap(errors.ErrForbidden, "insufficient scope")

	// ErrInvalidScope indicates a scope string outside the scope grammar.
	ErrInvalidScope = errors.Wrap(errors.ErrInvalidInput, "invalid scope")

	// ErrInvalidTokenTTL indicates a requested scope token lifetime outside
	// the configured bounds.
	ErrInvalidTokenTTL = errors.Wrap(errors.ErrInvalidInput, "invalid token ttl")

	// ErrScopeTokenTooLarge indicates a scope list too large to fit in a
	// scope token.
	ErrScopeTokenTooLarge = errors.Wrap(errors.ErrInvalidInput, "scope token too large")

	// ErrAPIKeyNotFound indicates an API key with the specified id was not found.
	ErrAPIKeyNotFound = errors.Wrap(errors.ErrNotFound, "api key not found")

	// ErrAPIKeyRevoked indicates an operation on an already revoked API key.
	ErrAPIKeyRevoked = errors.Wrap(errors.ErrConflict, "api key already revoked")
)
