package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	usecaseMocks "github.com/allisson/keyguard/internal/auth/usecase/mocks"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	"github.com/allisson/keyguard/internal/metrics"
)

const (
	cacheTestKeyID  = "abc123DEF456"
	cacheTestSecret = "s3cr3tS3CR3Ts3cr3tS3CR3T"
	cacheTestKey    = "sk_test_" + cacheTestKeyID + cacheTestSecret
	cacheTestHash   = "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type cacheFixture struct {
	cache         *KeyValidationCache
	repo          *usecaseMocks.MockAPIKeyRepository
	secretService *usecaseMocks.MockSecretService
	clock         *fakeClock
}

func newCacheFixture(t *testing.T, coalesce bool) *cacheFixture {
	t.Helper()

	repo := &usecaseMocks.MockAPIKeyRepository{}
	secretService := &usecaseMocks.MockSecretService{}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}

	cache := NewKeyValidationCache(
		repo,
		secretService,
		KeyValidationCacheConfig{
			TTL:                 5 * time.Minute,
			RevalidateThreshold: time.Minute,
			RevalidateTimeout:   time.Second,
			Coalesce:            coalesce,
		},
		metrics.NewNoOpBusinessMetrics(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	cache.now = clock.Now

	return &cacheFixture{cache: cache, repo: repo, secretService: secretService, clock: clock}
}

func activeAPIKey() *authDomain.APIKey {
	return &authDomain.APIKey{
		ID:         cacheTestKeyID,
		SecretHash: cacheTestHash,
		Partition:  cryptoDomain.PartitionTest,
		Scopes:     authDomain.ScopeList{"licenses:read"},
		CreatedAt:  time.Now().UTC(),
	}
}

func (f *cacheFixture) expectValidKey() {
	f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
		Return(activeAPIKey(), nil)
	f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(true)
}

func TestKeyValidationCache_Resolve(t *testing.T) {
	t.Run("Success_MissThenHit", func(t *testing.T) {
		f := newCacheFixture(t, false)
		f.expectValidKey()

		ac, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.PartitionTest, ac.Partition)
		assert.Equal(t, authDomain.ScopeList{"licenses:read"}, ac.Scopes)
		assert.Nil(t, ac.Expires)

		f.clock.Advance(time.Minute)
		cached, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)
		assert.Same(t, ac, cached)

		f.cache.Wait()
		f.repo.AssertNumberOfCalls(t, "Get", 1)
		f.secretService.AssertNumberOfCalls(t, "CompareSecret", 1)
	})

	t.Run("Error_MalformedKey", func(t *testing.T) {
		f := newCacheFixture(t, false)

		_, err := f.cache.Resolve(context.Background(), "sk_test_short")
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		f.repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_UnknownKeyIsNotCached", func(t *testing.T) {
		f := newCacheFixture(t, false)
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Return(nil, authDomain.ErrAPIKeyNotFound)

		for range 2 {
			_, err := f.cache.Resolve(context.Background(), cacheTestKey)
			assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		}
		f.repo.AssertNumberOfCalls(t, "Get", 2)
		assert.Equal(t, 0, f.cache.Len())
	})

	t.Run("Error_WrongSecret", func(t *testing.T) {
		f := newCacheFixture(t, false)
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Return(activeAPIKey(), nil)
		f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(false)

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("Error_RevokedKey", func(t *testing.T) {
		f := newCacheFixture(t, false)
		revoked := activeAPIKey()
		revokedAt := time.Now().UTC()
		revoked.RevokedAt = &revokedAt
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).Return(revoked, nil)

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		f.secretService.AssertNotCalled(t, "CompareSecret", mock.Anything, mock.Anything)
	})

	t.Run("Error_KeyWithoutScopes", func(t *testing.T) {
		f := newCacheFixture(t, false)
		noScopes := activeAPIKey()
		noScopes.Scopes = nil
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).Return(noScopes, nil)
		f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(true)

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		assert.ErrorIs(t, err, authDomain.ErrNoScope)
	})

	t.Run("Error_StoreFailurePropagates", func(t *testing.T) {
		f := newCacheFixture(t, false)
		storeErr := errors.New("connection refused")
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).Return(nil, storeErr)

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		assert.ErrorIs(t, err, storeErr)
		assert.Equal(t, 0, f.cache.Len())
	})

	t.Run("Success_ExpiredEntryIsReloaded", func(t *testing.T) {
		f := newCacheFixture(t, false)
		f.expectValidKey()

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)

		f.clock.Advance(5*time.Minute + time.Second)
		_, err = f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)

		f.cache.Wait()
		f.repo.AssertNumberOfCalls(t, "Get", 2)
	})
}

func TestKeyValidationCache_Revalidation(t *testing.T) {
	t.Run("Success_RefreshesEntry", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		f := newCacheFixture(t, false)
		f.expectValidKey()

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)

		// Below the threshold: served from cache, one background store call
		f.clock.Advance(4*time.Minute + 30*time.Second)
		_, err = f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)
		f.cache.Wait()
		f.repo.AssertNumberOfCalls(t, "Get", 2)

		// The refreshed entry outlives the original expiry
		f.clock.Advance(3 * time.Minute)
		_, err = f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)
		f.cache.Wait()
		f.repo.AssertNumberOfCalls(t, "Get", 2)
	})

	t.Run("Success_ExactlyOneBackgroundCall", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		f := newCacheFixture(t, false)
		release := make(chan struct{})
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Return(activeAPIKey(), nil).Once()
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Run(func(mock.Arguments) { <-release }).
			Return(activeAPIKey(), nil)
		f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(true)

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)

		f.clock.Advance(4*time.Minute + 30*time.Second)
		for range 5 {
			_, err := f.cache.Resolve(context.Background(), cacheTestKey)
			require.NoError(t, err)
		}
		close(release)
		f.cache.Wait()

		f.repo.AssertNumberOfCalls(t, "Get", 2)
	})

	t.Run("Failure_EvictsEntry", func(t *testing.T) {
		defer goleak.VerifyNone(t)

		f := newCacheFixture(t, false)
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Return(activeAPIKey(), nil).Once()
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Return(nil, authDomain.ErrAPIKeyNotFound)
		f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(true)

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)

		// The triggering request still gets the cached context
		f.clock.Advance(4*time.Minute + 30*time.Second)
		ac, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)
		assert.NotNil(t, ac)

		f.cache.Wait()
		assert.Equal(t, 0, f.cache.Len())

		// The next call goes back to the store and fails
		_, err = f.cache.Resolve(context.Background(), cacheTestKey)
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		f.repo.AssertNumberOfCalls(t, "Get", 3)
	})

	t.Run("Success_AboveThresholdDoesNotRevalidate", func(t *testing.T) {
		f := newCacheFixture(t, false)
		f.expectValidKey()

		_, err := f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)

		f.clock.Advance(3 * time.Minute)
		_, err = f.cache.Resolve(context.Background(), cacheTestKey)
		require.NoError(t, err)

		f.cache.Wait()
		f.repo.AssertNumberOfCalls(t, "Get", 1)
	})
}

func TestKeyValidationCache_ConcurrentMisses(t *testing.T) {
	t.Run("Success_WithoutCoalescingEachCallHitsStore", func(t *testing.T) {
		f := newCacheFixture(t, false)

		var entered sync.WaitGroup
		entered.Add(2)
		release := make(chan struct{})
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Run(func(mock.Arguments) {
				entered.Done()
				<-release
			}).
			Return(activeAPIKey(), nil)
		f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(true)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.cache.Resolve(context.Background(), cacheTestKey)
			}()
		}

		// Both calls reach the store before either returns
		entered.Wait()
		close(release)
		wg.Wait()

		assert.NoError(t, errs[0])
		assert.NoError(t, errs[1])
		f.repo.AssertNumberOfCalls(t, "Get", 2)
	})

	t.Run("Success_WithCoalescingCallsShareLookup", func(t *testing.T) {
		f := newCacheFixture(t, true)

		started := make(chan struct{})
		release := make(chan struct{})
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(activeAPIKey(), nil).Once()
		f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(true)

		var wg sync.WaitGroup
		results := make([]*authDomain.AuthContext, 2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0], _ = f.cache.Resolve(context.Background(), cacheTestKey)
		}()
		<-started

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[1], _ = f.cache.Resolve(context.Background(), cacheTestKey)
		}()
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		require.NotNil(t, results[0])
		require.NotNil(t, results[1])
		f.repo.AssertNumberOfCalls(t, "Get", 1)
	})

	t.Run("Success_WithCoalescingCancelledLeaderDoesNotFailWaiters", func(t *testing.T) {
		f := newCacheFixture(t, true)

		started := make(chan struct{})
		release := make(chan struct{})
		lookupErr := make(chan error, 1)
		f.repo.On("Get", mock.Anything, cacheTestKeyID, cryptoDomain.PartitionTest).
			Run(func(args mock.Arguments) {
				close(started)
				<-release
				lookupErr <- args.Get(0).(context.Context).Err()
			}).
			Return(activeAPIKey(), nil).Once()
		f.secretService.On("CompareSecret", cacheTestSecret, cacheTestHash).Return(true)

		leaderCtx, cancelLeader := context.WithCancel(context.Background())
		leaderErr := make(chan error, 1)
		go func() {
			_, err := f.cache.Resolve(leaderCtx, cacheTestKey)
			leaderErr <- err
		}()
		<-started

		waiterDone := make(chan *authDomain.AuthContext, 1)
		go func() {
			authContext, err := f.cache.Resolve(context.Background(), cacheTestKey)
			assert.NoError(t, err)
			waiterDone <- authContext
		}()
		time.Sleep(50 * time.Millisecond)

		cancelLeader()
		assert.ErrorIs(t, <-leaderErr, context.Canceled)

		close(release)
		assert.NoError(t, <-lookupErr)
		assert.NotNil(t, <-waiterDone)
		f.repo.AssertNumberOfCalls(t, "Get", 1)
	})
}

func TestKeyValidationCache_Invalidate(t *testing.T) {
	f := newCacheFixture(t, false)
	f.expectValidKey()

	_, err := f.cache.Resolve(context.Background(), cacheTestKey)
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.Len())

	f.cache.Invalidate("otherKeyID12")
	assert.Equal(t, 1, f.cache.Len())

	f.cache.Invalidate(cacheTestKeyID)
	assert.Equal(t, 0, f.cache.Len())

	_, err = f.cache.Resolve(context.Background(), cacheTestKey)
	require.NoError(t, err)
	f.repo.AssertNumberOfCalls(t, "Get", 2)
}

func TestKeyValidationCache_PurgeExpired(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newCacheFixture(t, false)
	f.expectValidKey()

	_, err := f.cache.Resolve(context.Background(), cacheTestKey)
	require.NoError(t, err)

	f.cache.PurgeExpired()
	assert.Equal(t, 1, f.cache.Len())

	f.clock.Advance(10 * time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.cache.Run(ctx, 10*time.Millisecond)
	}()

	assert.Eventually(t, func() bool { return f.cache.Len() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
