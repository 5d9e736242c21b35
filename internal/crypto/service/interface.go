// Package service provides the encryption primitives of the auth core: the
// per-partition SecretStore, the BSON FieldCipher and KMS unwrapping of
// configured key material.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// Encrypter is the partition-aware encryption primitive consumed by the
// field cipher and the token codec.
type Encrypter interface {
	// Encrypt returns nonce || ciphertext || tag sealed with the partition key.
	Encrypt(message []byte, partition cryptoDomain.Partition, aad []byte) ([]byte, error)

	// Decrypt verifies and opens a blob produced by Encrypt.
	Decrypt(blob []byte, partition cryptoDomain.Partition, aad []byte) ([]byte, error)
}

// KMSKeeper is the subset of *secrets.Keeper used to wrap and unwrap key material.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
