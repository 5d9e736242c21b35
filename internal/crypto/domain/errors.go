package domain

import (
	"github.com/allisson/keyguard/internal/errors"
)

// Cryptographic error definitions. They never carry key bytes or ciphertext.
var (
	// ErrConfiguration indicates missing or malformed key material. It is
	// fatal and only ever returned while the process starts.
	ErrConfiguration = errors.Wrap(errors.ErrInvalidInput, "invalid key configuration")

	// ErrUnknownPartition indicates a partition other than test or live.
	ErrUnknownPartition = errors.Wrap(errors.ErrInvalidInput, "unknown partition")

	// ErrAuthenticationFailed indicates an AEAD tag mismatch, a wrong key or
	// AAD, or a blob too short to hold a nonce and tag.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrUnauthorized, "message authentication failed")

	// ErrDecryption indicates an encrypted field at rest could not be
	// decrypted. It maps to a 500 and should page someone.
	ErrDecryption = errors.Wrap(errors.ErrInternal, "decryption failed")
)
