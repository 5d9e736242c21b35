package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	cryptoService "github.com/allisson/keyguard/internal/crypto/service"
)

// KeeperOpener opens a KMS keeper for a key URI.
type KeeperOpener interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoService.KMSKeeper, error)
}

// RunCreateSecretKey generates one 256-bit key per partition and prints them as
// environment variables. With kmsKeyURI each hex key is encrypted with the KMS
// keeper and printed as base64 ciphertext, to be loaded with SECRET_KEYS_KMS_URI.
//
// Key material is zeroed from memory after encoding.
func RunCreateSecretKey(
	ctx context.Context,
	kmsService KeeperOpener,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	var keeper cryptoService.KMSKeeper
	if kmsKeyURI != "" {
		var err error
		keeper, err = kmsService.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return fmt.Errorf("failed to open KMS keeper: %w", err)
		}
		defer func() {
			if closeErr := keeper.Close(); closeErr != nil {
				logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
			}
		}()
	}

	values := make(map[cryptoDomain.Partition]string, len(cryptoDomain.Partitions()))
	for _, p := range cryptoDomain.Partitions() {
		value, err := generatePartitionKey(ctx, keeper)
		if err != nil {
			return fmt.Errorf("failed to generate %s secret key: %w", p, err)
		}
		values[p] = value
	}

	logger.Info("secret keys generated", slog.Bool("kms", keeper != nil))

	if format == "json" {
		result := map[string]string{
			"test_secret_key": values[cryptoDomain.PartitionTest],
			"live_secret_key": values[cryptoDomain.PartitionLive],
		}
		if kmsKeyURI != "" {
			result["secret_keys_kms_uri"] = kmsKeyURI
		}
		return writeJSON(writer, result)
	}

	_, _ = fmt.Fprintln(writer, "# Partition secret keys")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "SECRET_KEYS_KMS_URI=\"%s\"\n", kmsKeyURI)
	}
	_, _ = fmt.Fprintf(writer, "TEST_SECRET_KEY=\"%s\"\n", values[cryptoDomain.PartitionTest])
	_, _ = fmt.Fprintf(writer, "LIVE_SECRET_KEY=\"%s\"\n", values[cryptoDomain.PartitionLive])
	return nil
}

// generatePartitionKey returns a fresh key as hex, or as base64 KMS
// ciphertext of that hex when keeper is set.
func generatePartitionKey(ctx context.Context, keeper cryptoService.KMSKeeper) (string, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}

	encoded := make([]byte, hex.EncodedLen(len(key)))
	defer cryptoDomain.Zero(key, encoded)
	hex.Encode(encoded, key)

	if keeper == nil {
		return string(encoded), nil
	}

	ciphertext, err := keeper.Encrypt(ctx, encoded)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt secret key with KMS: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
