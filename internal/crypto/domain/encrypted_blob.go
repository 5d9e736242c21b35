package domain

// EncryptedBlob is the at-rest and on-the-wire layout of an AEAD message:
// nonce(12B) || ciphertext || tag(16B). Ciphertext holds the sealed message
// with the tag appended, as produced by cipher.AEAD.Seal.
type EncryptedBlob struct {
	Nonce      []byte
	Ciphertext []byte
}

// Bytes serializes the blob as nonce || ciphertext || tag.
func (b EncryptedBlob) Bytes() []byte {
	out := make([]byte, 0, len(b.Nonce)+len(b.Ciphertext))
	out = append(out, b.Nonce...)
	return append(out, b.Ciphertext...)
}

// ParseEncryptedBlob splits raw bytes into nonce and sealed ciphertext.
// Anything shorter than a nonce plus a tag fails with ErrAuthenticationFailed.
func ParseEncryptedBlob(raw []byte) (EncryptedBlob, error) {
	if len(raw) < NonceSize+TagSize {
		return EncryptedBlob{}, ErrAuthenticationFailed
	}
	return EncryptedBlob{
		Nonce:      raw[:NonceSize],
		Ciphertext: raw[NonceSize:],
	}, nil
}
