package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// SecretStore seals and opens messages with the key of a partition. Keys are
// indexed by partition, so using one partition's key for another's data is not
// expressible through this API.
type SecretStore struct {
	ciphers map[cryptoDomain.Partition]AEAD
}

// NewSecretStore builds one AES-256-GCM cipher per partition.
func NewSecretStore(material *cryptoDomain.SecretKeyMaterial) (*SecretStore, error) {
	ciphers := make(map[cryptoDomain.Partition]AEAD, len(cryptoDomain.Partitions()))
	for _, p := range cryptoDomain.Partitions() {
		key, ok := material.Key(p)
		if !ok {
			return nil, fmt.Errorf("%w: %s secret key is not loaded", cryptoDomain.ErrConfiguration, p)
		}
		aead, err := NewAESGCM(key)
		if err != nil {
			return nil, fmt.Errorf("%s cipher: %w", p, err)
		}
		ciphers[p] = aead
	}
	return &SecretStore{ciphers: ciphers}, nil
}

// Encrypt seals message with the partition key and returns
// nonce || ciphertext || tag. aad may be nil.
func (s *SecretStore) Encrypt(message []byte, partition cryptoDomain.Partition, aad []byte) ([]byte, error) {
	aead, ok := s.ciphers[partition]
	if !ok {
		return nil, cryptoDomain.ErrUnknownPartition
	}

	ciphertext, nonce, err := aead.Encrypt(message, aad)
	if err != nil {
		return nil, err
	}

	return cryptoDomain.EncryptedBlob{Nonce: nonce, Ciphertext: ciphertext}.Bytes(), nil
}

// Decrypt splits and verifies a blob. Malformed length, wrong partition,
// wrong aad and tampering all fail with ErrAuthenticationFailed.
func (s *SecretStore) Decrypt(blob []byte, partition cryptoDomain.Partition, aad []byte) ([]byte, error) {
	aead, ok := s.ciphers[partition]
	if !ok {
		return nil, cryptoDomain.ErrUnknownPartition
	}

	parsed, err := cryptoDomain.ParseEncryptedBlob(blob)
	if err != nil {
		return nil, err
	}

	return aead.Decrypt(parsed.Ciphertext, parsed.Nonce, aad)
}
