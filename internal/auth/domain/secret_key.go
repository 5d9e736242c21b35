package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// SecretKey is a parsed sk_<partition>_<id><secret> credential.
//
// String and LogValue only reveal the partition and id; use Plaintext to get
// the credential itself.
type SecretKey struct {
	Partition cryptoDomain.Partition
	ID        string
	Secret    string
}

// ParseSecretKey validates the textual format of a secret key. Every failure
// is ErrInvalidToken.
func ParseSecretKey(s string) (SecretKey, error) {
	rest, ok := strings.CutPrefix(s, SecretKeyPrefix)
	if !ok {
		return SecretKey{}, ErrInvalidToken
	}
	partitionName, body, ok := strings.Cut(rest, "_")
	if !ok {
		return SecretKey{}, ErrInvalidToken
	}
	partition, err := cryptoDomain.ParsePartition(partitionName)
	if err != nil {
		return SecretKey{}, ErrInvalidToken
	}
	if len(body) != KeyIDLength+KeySecretLength || !IsBase62(body) {
		return SecretKey{}, ErrInvalidToken
	}

	return SecretKey{
		Partition: partition,
		ID:        body[:KeyIDLength],
		Secret:    body[KeyIDLength:],
	}, nil
}

// SecretKeyPrefixFor returns "sk_<partition>_".
func SecretKeyPrefixFor(p cryptoDomain.Partition) string {
	return SecretKeyPrefix + string(p) + "_"
}

// Plaintext returns the full credential.
func (k SecretKey) Plaintext() string {
	return SecretKeyPrefixFor(k.Partition) + k.ID + k.Secret
}

// Hash returns the hex SHA-256 of the full credential.
func (k SecretKey) Hash() string {
	sum := sha256.Sum256([]byte(k.Plaintext()))
	return hex.EncodeToString(sum[:])
}

// CacheKey identifies the credential in the validation cache.
func (k SecretKey) CacheKey() string {
	return k.ID + ":" + k.Hash()
}

// HashPrefix is a short derived identifier that is safe to log.
func (k SecretKey) HashPrefix() string {
	return k.Hash()[:8]
}

// String implements fmt.Stringer without revealing the secret.
func (k SecretKey) String() string {
	return SecretKeyPrefixFor(k.Partition) + k.ID + "..."
}

// LogValue implements slog.LogValuer without revealing the secret.
func (k SecretKey) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("partition", string(k.Partition)),
		slog.String("key_id", k.ID),
		slog.String("hash_prefix", k.HashPrefix()),
	)
}
