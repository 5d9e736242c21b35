// Package service provides the technical services of the auth core: secret
// key generation and argon2id verification, and the bearer token codec.
package service

import (
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// SecretService defines secret key generation and salted-hash verification.
type SecretService interface {
	// GenerateSecretKey creates a random sk_<partition>_<id><secret> key and
	// the argon2id hash of its secret part. The plaintext key must only be
	// shown once.
	GenerateSecretKey(partition cryptoDomain.Partition) (authDomain.SecretKey, string, error)

	// HashSecret hashes a plain text secret using Argon2id.
	HashSecret(plainSecret string) (hashedSecret string, err error)

	// CompareSecret reports whether plainSecret matches hashedSecret in
	// constant time.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// TokenCodec encodes and decodes the <type><partition><payload> bearer token
// wire format.
type TokenCodec interface {
	// EncodeAPIKeyToken converts a secret key into a type '1' token.
	EncodeAPIKeyToken(secretKey string) (string, error)

	// EncodeScopeToken seals a scope list into a type '2' token, or a type '3'
	// token bound to resource when resource is not empty.
	EncodeScopeToken(
		partition cryptoDomain.Partition,
		scopes authDomain.ScopeList,
		expires *time.Time,
		resource string,
	) (string, error)

	// Decode parses any token. Resource scope tokens only verify when
	// currentResource is the resource they were bound to.
	Decode(token string, currentResource string) (authDomain.AccessToken, error)
}
