// Package domain defines the key material and ciphertext layout shared by the
// encryption services.
package domain

// Partition is the isolation axis (test vs. live) that selects key material
// and backing data. Partitions never share keys.
type Partition string

const (
	// PartitionTest holds sandbox credentials and data.
	PartitionTest Partition = "test"

	// PartitionLive holds production credentials and data.
	PartitionLive Partition = "live"
)

// Sizes of the AES-256-GCM primitive.
const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

// Partitions returns every known partition in a stable order.
func Partitions() []Partition {
	return []Partition{PartitionTest, PartitionLive}
}

// Valid reports whether p is a known partition.
func (p Partition) Valid() bool {
	return p == PartitionTest || p == PartitionLive
}

// String implements fmt.Stringer.
func (p Partition) String() string {
	return string(p)
}

// ParsePartition converts a textual partition name, failing with
// ErrUnknownPartition for anything other than "test" or "live".
func ParsePartition(s string) (Partition, error) {
	p := Partition(s)
	if !p.Valid() {
		return "", ErrUnknownPartition
	}
	return p, nil
}
