package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	authService "github.com/allisson/keyguard/internal/auth/service"
	"github.com/allisson/keyguard/internal/metrics"
)

// KeyValidationCacheConfig configures a KeyValidationCache.
type KeyValidationCacheConfig struct {
	// TTL is how long a successful validation is trusted.
	TTL time.Duration
	// RevalidateThreshold is the remaining TTL below which a hit schedules a
	// background revalidation.
	RevalidateThreshold time.Duration
	// RevalidateTimeout bounds a single background revalidation.
	RevalidateTimeout time.Duration
	// Coalesce makes concurrent misses for the same key share one slow path.
	Coalesce bool
}

type cacheEntry struct {
	authContext *authDomain.AuthContext
	expiresAt   time.Time
}

// KeyValidationCache sits in front of the slow API key check (store lookup
// and argon2id verification).
//
// Hits never block on I/O. A hit close to expiry schedules one detached
// revalidation per key: success refreshes the entry, failure evicts it, so a
// revoked key stops being trusted within RevalidateThreshold.
type KeyValidationCache struct {
	apiKeyRepo    APIKeyRepository
	secretService authService.SecretService
	config        KeyValidationCacheConfig
	metrics       metrics.BusinessMetrics
	logger        *slog.Logger
	now           func() time.Time

	mu           sync.RWMutex
	entries      map[string]cacheEntry
	revalidating map[string]struct{}

	group singleflight.Group
	wg    sync.WaitGroup
}

const defaultRevalidateTimeout = 10 * time.Second

// NewKeyValidationCache creates an empty cache.
func NewKeyValidationCache(
	apiKeyRepo APIKeyRepository,
	secretService authService.SecretService,
	config KeyValidationCacheConfig,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *KeyValidationCache {
	if config.RevalidateTimeout <= 0 {
		config.RevalidateTimeout = defaultRevalidateTimeout
	}
	return &KeyValidationCache{
		apiKeyRepo:    apiKeyRepo,
		secretService: secretService,
		config:        config,
		metrics:       businessMetrics,
		logger:        logger,
		now:           time.Now,
		entries:       make(map[string]cacheEntry),
		revalidating:  make(map[string]struct{}),
	}
}

// Resolve returns the AuthContext granted by secretKey.
func (c *KeyValidationCache) Resolve(ctx context.Context, secretKey string) (*authDomain.AuthContext, error) {
	key, err := authDomain.ParseSecretKey(secretKey)
	if err != nil {
		return nil, err
	}
	cacheKey := key.CacheKey()

	c.mu.RLock()
	entry, found := c.entries[cacheKey]
	c.mu.RUnlock()

	if found {
		remaining := entry.expiresAt.Sub(c.now())
		if remaining > 0 {
			c.metrics.RecordOperation(ctx, "auth", "key_cache_lookup", "hit")
			if remaining < c.config.RevalidateThreshold {
				c.revalidate(key)
			}
			return entry.authContext, nil
		}
	}

	c.metrics.RecordOperation(ctx, "auth", "key_cache_lookup", "miss")
	c.logger.Debug("api key cache miss", slog.Any("api_key", key))

	authContext, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}

	c.set(cacheKey, authContext)
	return authContext, nil
}

// Invalidate drops every cached validation of the key id.
func (c *KeyValidationCache) Invalidate(id string) {
	prefix := id + ":"

	c.mu.Lock()
	defer c.mu.Unlock()

	for cacheKey := range c.entries {
		if strings.HasPrefix(cacheKey, prefix) {
			delete(c.entries, cacheKey)
		}
	}
}

// Wait blocks until every in-flight background revalidation has finished.
func (c *KeyValidationCache) Wait() {
	c.wg.Wait()
}

// Len returns the number of cached entries, including expired ones not yet purged.
func (c *KeyValidationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// PurgeExpired removes every expired entry.
func (c *KeyValidationCache) PurgeExpired() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for cacheKey, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, cacheKey)
		}
	}
}

// Run purges expired entries every interval until ctx is done. A
// non-positive interval disables purging.
func (c *KeyValidationCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PurgeExpired()
		}
	}
}

func (c *KeyValidationCache) load(ctx context.Context, key authDomain.SecretKey) (*authDomain.AuthContext, error) {
	if !c.config.Coalesce {
		return c.validate(ctx, key)
	}

	// The shared lookup outlives any single caller; each caller still stops
	// waiting when its own context is done.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.CacheKey(), func() (any, error) {
		return c.validate(shared, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*authDomain.AuthContext), nil
	}
}

// validate is the slow path: store lookup and salted-hash verification.
func (c *KeyValidationCache) validate(
	ctx context.Context,
	key authDomain.SecretKey,
) (*authDomain.AuthContext, error) {
	apiKey, err := c.apiKeyRepo.Get(ctx, key.ID, key.Partition)
	if err != nil {
		if errors.Is(err, authDomain.ErrAPIKeyNotFound) {
			return nil, authDomain.ErrInvalidToken
		}
		return nil, err
	}

	if apiKey.IsRevoked() || apiKey.Partition != key.Partition {
		return nil, authDomain.ErrInvalidToken
	}

	if !c.secretService.CompareSecret(key.Secret, apiKey.SecretHash) {
		return nil, authDomain.ErrInvalidToken
	}

	return authDomain.NewAuthContext(apiKey.Partition, apiKey.Scopes, nil)
}

func (c *KeyValidationCache) set(cacheKey string, authContext *authDomain.AuthContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey] = cacheEntry{
		authContext: authContext,
		expiresAt:   c.now().Add(c.config.TTL),
	}
}

func (c *KeyValidationCache) evict(cacheKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey)
}

// revalidate spawns one background slow path per key. Its outcome only ever
// touches the cache.
func (c *KeyValidationCache) revalidate(key authDomain.SecretKey) {
	cacheKey := key.CacheKey()

	c.mu.Lock()
	if _, busy := c.revalidating[cacheKey]; busy {
		c.mu.Unlock()
		return
	}
	c.revalidating[cacheKey] = struct{}{}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.revalidating, cacheKey)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.config.RevalidateTimeout)
		defer cancel()

		authContext, err := c.validate(ctx, key)
		if err != nil {
			c.evict(cacheKey)
			c.metrics.RecordOperation(ctx, "auth", "key_revalidate", "error")
			c.logger.Warn("api key revalidation failed, entry evicted",
				slog.Any("api_key", key),
				slog.Any("error", err))
			return
		}

		c.set(cacheKey, authContext)
		c.metrics.RecordOperation(ctx, "auth", "key_revalidate", "success")
	}()
}
