package domain

import (
	"encoding/hex"
	"fmt"
)

// SecretKeyMaterial holds one 256-bit key per partition. It is loaded once at
// startup and treated as immutable afterwards.
type SecretKeyMaterial struct {
	keys map[Partition][]byte
}

// LoadSecretKeyMaterial decodes the hex-encoded key of every partition.
//
// Each value must be exactly 64 hex characters (32 bytes). A missing
// partition, a wrong length or a non-hex character fails with
// ErrConfiguration; the message names the partition but never the value.
func LoadSecretKeyMaterial(hexKeys map[Partition]string) (*SecretKeyMaterial, error) {
	m := &SecretKeyMaterial{keys: make(map[Partition][]byte, len(Partitions()))}

	for _, p := range Partitions() {
		raw, ok := hexKeys[p]
		if !ok || raw == "" {
			m.Close()
			return nil, fmt.Errorf("%w: %s secret key is not set", ErrConfiguration, p)
		}
		if len(raw) != hex.EncodedLen(KeySize) {
			m.Close()
			return nil, fmt.Errorf(
				"%w: %s secret key must be %d hex characters, got %d",
				ErrConfiguration,
				p,
				hex.EncodedLen(KeySize),
				len(raw),
			)
		}
		key, err := hex.DecodeString(raw)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("%w: %s secret key is not valid hex", ErrConfiguration, p)
		}
		m.keys[p] = key
	}

	for p := range hexKeys {
		if !p.Valid() {
			m.Close()
			return nil, fmt.Errorf("%w: %q", ErrUnknownPartition, string(p))
		}
	}

	return m, nil
}

// Key returns the key of a partition. The returned slice must not be modified.
func (m *SecretKeyMaterial) Key(p Partition) ([]byte, bool) {
	key, ok := m.keys[p]
	return key, ok
}

// Close zeroes every key held by the material.
func (m *SecretKeyMaterial) Close() {
	for p, key := range m.keys {
		Zero(key)
		delete(m.keys, p)
	}
}
