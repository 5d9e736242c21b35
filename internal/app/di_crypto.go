package app

import (
	"fmt"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	cryptoService "github.com/allisson/keyguard/internal/crypto/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = c.initKMSService()
	})
	return c.kmsService
}

// SecretKeyMaterial returns the per-partition key material loaded from configuration.
func (c *Container) SecretKeyMaterial() (*cryptoDomain.SecretKeyMaterial, error) {
	var err error
	c.secretKeyMaterialInit.Do(func() {
		c.secretKeyMaterial, err = c.initSecretKeyMaterial()
		if err != nil {
			c.initErrors["secretKeyMaterial"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretKeyMaterial"]; exists {
		return nil, storedErr
	}
	return c.secretKeyMaterial, nil
}

// SecretStore returns the partition-aware AES-256-GCM store.
func (c *Container) SecretStore() (*cryptoService.SecretStore, error) {
	var err error
	c.secretStoreInit.Do(func() {
		c.secretStore, err = c.initSecretStore()
		if err != nil {
			c.initErrors["secretStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretStore"]; exists {
		return nil, storedErr
	}
	return c.secretStore, nil
}

// FieldCipher returns the document field cipher backed by the secret store.
func (c *Container) FieldCipher() (*cryptoService.FieldCipher, error) {
	var err error
	c.fieldCipherInit.Do(func() {
		c.fieldCipher, err = c.initFieldCipher()
		if err != nil {
			c.initErrors["fieldCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldCipher"]; exists {
		return nil, storedErr
	}
	return c.fieldCipher, nil
}

// initKMSService creates the KMS service for unwrapping partition keys.
func (c *Container) initKMSService() cryptoService.KMSService {
	return cryptoService.NewKMSService()
}

// initSecretKeyMaterial decodes both partition keys, unwrapping them with KMS
// first when SecretKeysKMSURI is set. It fails fast on a missing or malformed key.
func (c *Container) initSecretKeyMaterial() (*cryptoDomain.SecretKeyMaterial, error) {
	keys := map[cryptoDomain.Partition]string{
		cryptoDomain.PartitionTest: c.config.TestSecretKey,
		cryptoDomain.PartitionLive: c.config.LiveSecretKey,
	}

	if c.config.SecretKeysKMSURI != "" {
		unwrapped, err := c.KMSService().UnwrapSecretKeys(c.ctx, c.config.SecretKeysKMSURI, keys)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap secret keys: %w", err)
		}
		keys = unwrapped
		c.Logger().Info("secret keys unwrapped with kms")
	}

	material, err := cryptoDomain.LoadSecretKeyMaterial(keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load secret key material: %w", err)
	}
	return material, nil
}

// initSecretStore creates the secret store over the loaded key material.
func (c *Container) initSecretStore() (*cryptoService.SecretStore, error) {
	material, err := c.SecretKeyMaterial()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret key material for secret store: %w", err)
	}

	store, err := cryptoService.NewSecretStore(material)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret store: %w", err)
	}
	return store, nil
}

// initFieldCipher creates the field cipher used by document stores.
func (c *Container) initFieldCipher() (*cryptoService.FieldCipher, error) {
	store, err := c.SecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret store for field cipher: %w", err)
	}
	return cryptoService.NewFieldCipher(store), nil
}
