// Package domain defines the credentials, bearer tokens and authorization
// contexts of the auth core.
//
// A caller presents either a secret API key or a scope token. Both resolve to
// an AuthContext, which downstream handlers consult exclusively through
// AssertAccess.
package domain

import (
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// TokenType is the first character of a serialized access token.
type TokenType byte

const (
	// TokenTypeAPIKey carries the suffix of a secret key in clear.
	TokenTypeAPIKey TokenType = '1'

	// TokenTypeScope carries an encrypted scope list.
	TokenTypeScope TokenType = '2'

	// TokenTypeResourceScope carries an encrypted scope list bound to a
	// resource through the AEAD associated data.
	TokenTypeResourceScope TokenType = '3'
)

// Partition characters used in the token wire format.
const (
	PartitionCharLive byte = '5'
	PartitionCharTest byte = '7'
)

const (
	// SecretKeyPrefix starts every secret key: sk_<partition>_<id><secret>.
	SecretKeyPrefix = "sk_"

	// KeyIDLength is the length of the public id part of a secret key.
	KeyIDLength = 12

	// KeySecretLength is the length of the private part of a secret key.
	KeySecretLength = 24

	// Base62Alphabet is the alphabet of secret keys and token payloads.
	Base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Wildcard matches a whole scope segment.
	Wildcard = "*"

	// ResourcePlaceholder stands for the resource a token is bound to.
	ResourcePlaceholder = "$"

	// MaxScopeTokenPayloadLength bounds the base62 payload of type '2' and '3'
	// tokens, both when issuing and before any decoding work.
	MaxScopeTokenPayloadLength = 4096
)

// PartitionChar returns the wire character of a partition.
func PartitionChar(p cryptoDomain.Partition) (byte, error) {
	switch p {
	case cryptoDomain.PartitionLive:
		return PartitionCharLive, nil
	case cryptoDomain.PartitionTest:
		return PartitionCharTest, nil
	default:
		return 0, cryptoDomain.ErrUnknownPartition
	}
}

// PartitionFromChar is the inverse of PartitionChar.
func PartitionFromChar(c byte) (cryptoDomain.Partition, error) {
	switch c {
	case PartitionCharLive:
		return cryptoDomain.PartitionLive, nil
	case PartitionCharTest:
		return cryptoDomain.PartitionTest, nil
	default:
		return "", cryptoDomain.ErrUnknownPartition
	}
}

// IsBase62 reports whether s is non-empty and only uses Base62Alphabet.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
