package service

import (
	"crypto/rand"
	"math/big"

	"github.com/allisson/go-pwdhash"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

// secretService implements SecretService using Argon2id for secret hashing.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateSecretKey draws the id and secret from crypto/rand over the base62
// alphabet and hashes the secret part.
func (s *secretService) GenerateSecretKey(
	partition cryptoDomain.Partition,
) (authDomain.SecretKey, string, error) {
	if !partition.Valid() {
		return authDomain.SecretKey{}, "", cryptoDomain.ErrUnknownPartition
	}

	body, err := randomBase62(authDomain.KeyIDLength + authDomain.KeySecretLength)
	if err != nil {
		return authDomain.SecretKey{}, "", err
	}

	key := authDomain.SecretKey{
		Partition: partition,
		ID:        body[:authDomain.KeyIDLength],
		Secret:    body[authDomain.KeyIDLength:],
	}

	hashedSecret, err := s.HashSecret(key.Secret)
	if err != nil {
		return authDomain.SecretKey{}, "", err
	}

	return key, hashedSecret, nil
}

// HashSecret hashes a plain text secret using Argon2id.
func (s *secretService) HashSecret(plainSecret string) (string, error) {
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashedSecret, nil
}

// CompareSecret performs a constant-time comparison between a plain secret and its hash.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

func randomBase62(length int) (string, error) {
	out := make([]byte, length)
	charsLen := big.NewInt(int64(len(authDomain.Base62Alphabet)))

	for i := range out {
		n, err := rand.Int(rand.Reader, charsLen)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to generate random character")
		}
		out[i] = authDomain.Base62Alphabet[n.Int64()]
	}

	return string(out), nil
}

// NewSecretService creates a new SecretService instance using Argon2id hashing.
// Uses the Moderate policy for a balance between security and performance.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}
