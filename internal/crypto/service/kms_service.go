package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService unwraps partition keys that are configured as KMS ciphertext.
type KMSService interface {
	// OpenKeeper opens a keeper for the KMS key URI.
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)

	// UnwrapSecretKeys decrypts base64 KMS ciphertexts into the hex keys
	// expected by cryptoDomain.LoadSecretKeyMaterial.
	UnwrapSecretKeys(
		ctx context.Context,
		keyURI string,
		wrapped map[cryptoDomain.Partition]string,
	) (map[cryptoDomain.Partition]string, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper supports gcpkms://, awskms://, azurekeyvault://, hashivault:// and base64key://.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

func (k *kmsService) UnwrapSecretKeys(
	ctx context.Context,
	keyURI string,
	wrapped map[cryptoDomain.Partition]string,
) (map[cryptoDomain.Partition]string, error) {
	keeper, err := k.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrConfiguration, err)
	}
	defer func() { _ = keeper.Close() }()

	out := make(map[cryptoDomain.Partition]string, len(wrapped))
	for p, value := range wrapped {
		ciphertext, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wrapped secret key is not valid base64", cryptoDomain.ErrConfiguration, p)
		}
		plaintext, err := keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to unwrap %s secret key", cryptoDomain.ErrConfiguration, p)
		}
		out[p] = string(plaintext)
		cryptoDomain.Zero(plaintext)
	}
	return out, nil
}
