package service

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// EncryptedSubtype is the BSON binary subtype marking an encrypted field. It
// is the first user-defined subtype.
const EncryptedSubtype = bson.TypeBinaryUserDefined

// Fields skipped by EncryptInPlace unless explicitly requested.
var defaultExcludedFields = []string{"_id", "id", "object"}

// FieldValue is the classification of a single document field.
type FieldValue interface {
	isFieldValue()
}

// PlainValue is a string, number, boolean or embedded document eligible for
// encryption. Only values the decoder returns unchanged qualify: int32, int64
// and float64 numbers, and bson.M documents holding such values.
type PlainValue struct {
	Value any
}

// EncryptedValue carries an EncryptedBlob produced by EncryptInPlace.
type EncryptedValue struct {
	Blob []byte
}

// UntouchedValue is any other value (arrays, nulls, object ids, dates,
// foreign binaries, and Go types such as int, bson.D or map[string]any that
// would not survive a round trip); the cipher never modifies it.
type UntouchedValue struct {
	Value any
}

func (PlainValue) isFieldValue()     {}
func (EncryptedValue) isFieldValue() {}
func (UntouchedValue) isFieldValue() {}

// ClassifyField tags a raw document value.
func ClassifyField(v any) FieldValue {
	switch t := v.(type) {
	case string, bool, int32, int64, float64, bson.Decimal128:
		return PlainValue{Value: t}
	case bson.M:
		if !decodesUnchanged(t) {
			return UntouchedValue{Value: t}
		}
		return PlainValue{Value: t}
	case bson.Binary:
		if t.Subtype == EncryptedSubtype {
			return EncryptedValue{Blob: t.Data}
		}
		return UntouchedValue{Value: t}
	default:
		return UntouchedValue{Value: v}
	}
}

// decodesUnchanged reports whether v comes back from a DefaultDocumentM
// decode with the same Go type at every depth.
func decodesUnchanged(v any) bool {
	switch t := v.(type) {
	case nil, string, bool, int32, int64, float64, bson.Decimal128,
		bson.ObjectID, bson.DateTime, bson.Binary:
		return true
	case bson.A:
		if t == nil {
			return false
		}
		for _, item := range t {
			if !decodesUnchanged(item) {
				return false
			}
		}
		return true
	case bson.M:
		if t == nil {
			return false
		}
		for _, item := range t {
			if !decodesUnchanged(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// wrappedValue is the canonical serialization of a single field value.
type wrappedValue struct {
	V any `bson:"v"`
}

// FieldCipher encrypts and decrypts individual fields of a BSON document in
// place using the partition key. DecryptInPlace restores exactly the values
// EncryptInPlace replaced.
type FieldCipher struct {
	store Encrypter
}

// NewFieldCipher creates a FieldCipher backed by store.
func NewFieldCipher(store Encrypter) *FieldCipher {
	return &FieldCipher{store: store}
}

// EncryptInPlace replaces every eligible field of doc with an encrypted
// binary value. With allowedKeys only the named fields are considered, and
// "_id", "id" and "object" are only encrypted when named there.
func (f *FieldCipher) EncryptInPlace(doc bson.M, partition cryptoDomain.Partition, allowedKeys ...string) error {
	for _, key := range slices.Sorted(maps.Keys(doc)) {
		if !fieldSelected(key, allowedKeys) {
			continue
		}

		switch v := ClassifyField(doc[key]).(type) {
		case PlainValue:
			raw, err := bson.Marshal(wrappedValue{V: v.Value})
			if err != nil {
				return fmt.Errorf("failed to serialize field %q: %w", key, err)
			}
			blob, err := f.store.Encrypt(raw, partition, nil)
			if err != nil {
				return fmt.Errorf("failed to encrypt field %q: %w", key, err)
			}
			doc[key] = bson.Binary{Subtype: EncryptedSubtype, Data: blob}
		case EncryptedValue, UntouchedValue:
		}
	}
	return nil
}

// DecryptInPlace restores every encrypted field of doc. A field that cannot
// be authenticated or deserialized fails with ErrDecryption naming the field.
func (f *FieldCipher) DecryptInPlace(doc bson.M, partition cryptoDomain.Partition) error {
	for _, key := range slices.Sorted(maps.Keys(doc)) {
		switch v := ClassifyField(doc[key]).(type) {
		case EncryptedValue:
			raw, err := f.store.Decrypt(v.Blob, partition, nil)
			if err != nil {
				return fmt.Errorf("%w: field %q", cryptoDomain.ErrDecryption, key)
			}
			value, err := unmarshalFieldValue(raw)
			if err != nil {
				return fmt.Errorf("%w: field %q is not a valid document", cryptoDomain.ErrDecryption, key)
			}
			doc[key] = value
		case PlainValue, UntouchedValue:
		}
	}
	return nil
}

func unmarshalFieldValue(raw []byte) (any, error) {
	dec := bson.NewDecoder(bson.NewDocumentReader(bytes.NewReader(raw)))
	dec.DefaultDocumentM()

	var w wrappedValue
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	return w.V, nil
}

func fieldSelected(key string, allowedKeys []string) bool {
	if len(allowedKeys) > 0 {
		return slices.Contains(allowedKeys, key)
	}
	return !slices.Contains(defaultExcludedFields, key)
}
