package app

import (
	"fmt"

	authHTTP "github.com/allisson/keyguard/internal/auth/http"
	authRepository "github.com/allisson/keyguard/internal/auth/repository"
	authService "github.com/allisson/keyguard/internal/auth/service"
	authUseCase "github.com/allisson/keyguard/internal/auth/usecase"
	"github.com/allisson/keyguard/internal/database"
)

// SecretService returns the secret service for authentication operations.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = c.initSecretService()
	})
	return c.secretService
}

// TokenCodec returns the codec for API key and scope tokens.
func (c *Container) TokenCodec() (authService.TokenCodec, error) {
	var err error
	c.tokenCodecInit.Do(func() {
		c.tokenCodec, err = c.initTokenCodec()
		if err != nil {
			c.initErrors["tokenCodec"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenCodec"]; exists {
		return nil, storedErr
	}
	return c.tokenCodec, nil
}

// APIKeyRepository returns the API key repository based on database driver.
func (c *Container) APIKeyRepository() (authUseCase.APIKeyRepository, error) {
	var err error
	c.apiKeyRepositoryInit.Do(func() {
		c.apiKeyRepository, err = c.initAPIKeyRepository()
		if err != nil {
			c.initErrors["apiKeyRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyRepository"]; exists {
		return nil, storedErr
	}
	return c.apiKeyRepository, nil
}

// KeyValidationCache returns the cache in front of API key validation.
func (c *Container) KeyValidationCache() (*authUseCase.KeyValidationCache, error) {
	var err error
	c.keyValidationCacheInit.Do(func() {
		c.keyValidationCache, err = c.initKeyValidationCache()
		if err != nil {
			c.initErrors["keyValidationCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyValidationCache"]; exists {
		return nil, storedErr
	}
	return c.keyValidationCache, nil
}

// APIKeyUseCase returns the API key use case.
func (c *Container) APIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	var err error
	c.apiKeyUseCaseInit.Do(func() {
		c.apiKeyUseCase, err = c.initAPIKeyUseCase()
		if err != nil {
			c.initErrors["apiKeyUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.apiKeyUseCase, nil
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// APIKeyHandler returns the HTTP handler for API key management.
func (c *Container) APIKeyHandler() (*authHTTP.APIKeyHandler, error) {
	var err error
	c.apiKeyHandlerInit.Do(func() {
		c.apiKeyHandler, err = c.initAPIKeyHandler()
		if err != nil {
			c.initErrors["apiKeyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["apiKeyHandler"]; exists {
		return nil, storedErr
	}
	return c.apiKeyHandler, nil
}

// TokenHandler returns the HTTP handler for token operations.
func (c *Container) TokenHandler() (*authHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		c.tokenHandler, err = c.initTokenHandler()
		if err != nil {
			c.initErrors["tokenHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenHandler"]; exists {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// initSecretService creates the secret service for authentication.
func (c *Container) initSecretService() authService.SecretService {
	return authService.NewSecretService()
}

// initTokenCodec creates the token codec over the secret store.
func (c *Container) initTokenCodec() (authService.TokenCodec, error) {
	store, err := c.SecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret store for token codec: %w", err)
	}
	return authService.NewTokenCodec(store), nil
}

// initAPIKeyRepository creates the API key repository based on the database driver.
func (c *Container) initAPIKeyRepository() (authUseCase.APIKeyRepository, error) {
	switch c.config.DBDriver {
	case database.DriverPostgres, database.DriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for api key repository: %w", err)
		}
		if c.config.DBDriver == database.DriverMySQL {
			return authRepository.NewMySQLAPIKeyRepository(db), nil
		}
		return authRepository.NewPostgreSQLAPIKeyRepository(db), nil
	case database.DriverMongoDB:
		client, err := c.MongoClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get mongodb client for api key repository: %w", err)
		}
		cipher, err := c.FieldCipher()
		if err != nil {
			return nil, fmt.Errorf("failed to get field cipher for api key repository: %w", err)
		}
		return authRepository.NewMongoDBAPIKeyRepository(client.Database(c.config.MongoDatabase), cipher), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initKeyValidationCache creates the API key validation cache.
func (c *Container) initKeyValidationCache() (*authUseCase.KeyValidationCache, error) {
	apiKeyRepository, err := c.APIKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for key validation cache: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for key validation cache: %w", err)
	}

	cache := authUseCase.NewKeyValidationCache(
		apiKeyRepository,
		c.SecretService(),
		authUseCase.KeyValidationCacheConfig{
			TTL:                 c.config.KeyCacheTTL,
			RevalidateThreshold: c.config.KeyCacheRevalidateThreshold,
			RevalidateTimeout:   c.config.KeyCacheRevalidateTimeout,
			Coalesce:            c.config.KeyCacheCoalesce,
		},
		businessMetrics,
		c.Logger(),
	)

	err = businessMetrics.ObserveGauge(
		"key_cache_entries",
		"Number of cached API key validations, including expired ones not yet purged",
		func() int64 { return int64(cache.Len()) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register key cache gauge: %w", err)
	}

	return cache, nil
}

// initAPIKeyUseCase creates the API key use case with all its dependencies.
func (c *Container) initAPIKeyUseCase() (authUseCase.APIKeyUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for api key use case: %w", err)
	}

	apiKeyRepository, err := c.APIKeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key repository for api key use case: %w", err)
	}

	keyValidationCache, err := c.KeyValidationCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get key validation cache for api key use case: %w", err)
	}

	baseUseCase := authUseCase.NewAPIKeyUseCase(txManager, apiKeyRepository, c.SecretService(), keyValidationCache)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for api key use case: %w", err)
		}
		return authUseCase.NewAPIKeyUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase() (authUseCase.TokenUseCase, error) {
	tokenCodec, err := c.TokenCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get token codec for token use case: %w", err)
	}

	keyValidationCache, err := c.KeyValidationCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get key validation cache for token use case: %w", err)
	}

	baseUseCase := authUseCase.NewTokenUseCase(
		authUseCase.TokenConfig{
			DefaultTTL: c.config.ScopeTokenDefaultTTL,
			MaxTTL:     c.config.ScopeTokenMaxTTL,
		},
		tokenCodec,
		keyValidationCache,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		return authUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAPIKeyHandler creates the API key HTTP handler with all its dependencies.
func (c *Container) initAPIKeyHandler() (*authHTTP.APIKeyHandler, error) {
	apiKeyUseCase, err := c.APIKeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get api key use case for api key handler: %w", err)
	}

	return authHTTP.NewAPIKeyHandler(apiKeyUseCase, c.Logger()), nil
}

// initTokenHandler creates the token HTTP handler with all its dependencies.
func (c *Container) initTokenHandler() (*authHTTP.TokenHandler, error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for token handler: %w", err)
	}

	return authHTTP.NewTokenHandler(tokenUseCase, c.Logger()), nil
}
