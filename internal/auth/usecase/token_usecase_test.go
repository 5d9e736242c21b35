package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	authService "github.com/allisson/keyguard/internal/auth/service"
	usecaseMocks "github.com/allisson/keyguard/internal/auth/usecase/mocks"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	cryptoService "github.com/allisson/keyguard/internal/crypto/service"
)

func newTestTokenCodec(t *testing.T) authService.TokenCodec {
	t.Helper()
	material, err := cryptoDomain.LoadSecretKeyMaterial(map[cryptoDomain.Partition]string{
		cryptoDomain.PartitionTest: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
		cryptoDomain.PartitionLive: "1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100",
	})
	require.NoError(t, err)
	t.Cleanup(material.Close)

	store, err := cryptoService.NewSecretStore(material)
	require.NoError(t, err)
	return authService.NewTokenCodec(store)
}

func newCaller(t *testing.T, scopes authDomain.ScopeList, expires *time.Time) *authDomain.AuthContext {
	t.Helper()
	ac, err := authDomain.NewAuthContext(cryptoDomain.PartitionLive, scopes, expires)
	require.NoError(t, err)
	return ac
}

func TestTokenUseCase_Issue(t *testing.T) {
	ctx := context.Background()
	codec := newTestTokenCodec(t)
	resolver := &usecaseMocks.MockKeyResolver{}
	uc := NewTokenUseCase(TokenConfig{DefaultTTL: time.Hour, MaxTTL: 24 * time.Hour}, codec, resolver)

	t.Run("Success_DefaultTTL", func(t *testing.T) {
		caller := newCaller(t, authDomain.ScopeList{"licenses:*"}, nil)

		output, err := uc.Issue(ctx, caller, &authDomain.IssueTokenInput{
			Scopes: authDomain.ScopeList{"licenses:read"},
		})
		require.NoError(t, err)
		require.NotNil(t, output.Expires)
		assert.WithinDuration(t, time.Now().Add(time.Hour), *output.Expires, 5*time.Second)

		ac, err := uc.AuthenticateToken(ctx, output.Token, "")
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.PartitionLive, ac.Partition)
		assert.Equal(t, authDomain.ScopeList{"licenses:read"}, ac.Scopes)
	})

	t.Run("Success_BoundToResource", func(t *testing.T) {
		caller := newCaller(t, authDomain.ScopeList{"licenses:*"}, nil)

		output, err := uc.Issue(ctx, caller, &authDomain.IssueTokenInput{
			Scopes:   authDomain.ScopeList{"licenses/abc:render"},
			TTL:      time.Minute,
			Resource: "licenses/abc",
		})
		require.NoError(t, err)

		ac, err := uc.AuthenticateToken(ctx, output.Token, "licenses/abc")
		require.NoError(t, err)
		assert.NoError(t, ac.AssertAccess("licenses", "abc", "render"))

		_, err = uc.AuthenticateToken(ctx, output.Token, "licenses/other")
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})

	t.Run("Success_CappedByCallerExpiry", func(t *testing.T) {
		callerExpires := time.Now().Add(10 * time.Minute)
		caller := newCaller(t, authDomain.ScopeList{"*"}, &callerExpires)

		output, err := uc.Issue(ctx, caller, &authDomain.IssueTokenInput{
			Scopes: authDomain.ScopeList{"health:read"},
			TTL:    time.Hour,
		})
		require.NoError(t, err)
		assert.True(t, callerExpires.Equal(*output.Expires))
	})

	t.Run("Error_ScopeNotGranted", func(t *testing.T) {
		caller := newCaller(t, authDomain.ScopeList{"licenses:read"}, nil)

		_, err := uc.Issue(ctx, caller, &authDomain.IssueTokenInput{
			Scopes: authDomain.ScopeList{"licenses:write"},
		})
		assert.ErrorIs(t, err, authDomain.ErrForbidden)
	})

	t.Run("Error_TTLTooLong", func(t *testing.T) {
		caller := newCaller(t, authDomain.ScopeList{"*"}, nil)

		_, err := uc.Issue(ctx, caller, &authDomain.IssueTokenInput{
			Scopes: authDomain.ScopeList{"health:read"},
			TTL:    48 * time.Hour,
		})
		assert.ErrorIs(t, err, authDomain.ErrInvalidTokenTTL)
	})

	t.Run("Error_NoScopes", func(t *testing.T) {
		caller := newCaller(t, authDomain.ScopeList{"*"}, nil)

		_, err := uc.Issue(ctx, caller, &authDomain.IssueTokenInput{})
		assert.ErrorIs(t, err, authDomain.ErrNoScope)
	})
}

func TestTokenUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()
	codec := newTestTokenCodec(t)
	secretKey := "sk_test_" + cacheTestKeyID + cacheTestSecret
	granted := &authDomain.AuthContext{
		Partition: cryptoDomain.PartitionTest,
		Scopes:    authDomain.ScopeList{"licenses:read"},
	}

	t.Run("Success_SecretKey", func(t *testing.T) {
		resolver := &usecaseMocks.MockKeyResolver{}
		resolver.On("Resolve", ctx, secretKey).Return(granted, nil)
		uc := NewTokenUseCase(TokenConfig{DefaultTTL: time.Hour}, codec, resolver)

		ac, err := uc.AuthenticateSecretKey(ctx, secretKey)
		require.NoError(t, err)
		assert.Same(t, granted, ac)
	})

	t.Run("Success_APIKeyToken", func(t *testing.T) {
		resolver := &usecaseMocks.MockKeyResolver{}
		resolver.On("Resolve", ctx, secretKey).Return(granted, nil)
		uc := NewTokenUseCase(TokenConfig{DefaultTTL: time.Hour}, codec, resolver)

		token, err := codec.EncodeAPIKeyToken(secretKey)
		require.NoError(t, err)

		ac, err := uc.AuthenticateToken(ctx, token, "licenses/abc")
		require.NoError(t, err)
		assert.Same(t, granted, ac)
		resolver.AssertExpectations(t)
	})

	t.Run("Success_ScopeTokenSkipsStore", func(t *testing.T) {
		resolver := &usecaseMocks.MockKeyResolver{}
		uc := NewTokenUseCase(TokenConfig{DefaultTTL: time.Hour}, codec, resolver)

		token, err := codec.EncodeScopeToken(cryptoDomain.PartitionTest, authDomain.ScopeList{"health:read"}, nil, "")
		require.NoError(t, err)

		ac, err := uc.AuthenticateToken(ctx, token, "")
		require.NoError(t, err)
		assert.Equal(t, authDomain.ScopeList{"health:read"}, ac.Scopes)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("Error_ExpiredScopeToken", func(t *testing.T) {
		resolver := &usecaseMocks.MockKeyResolver{}
		uc := NewTokenUseCase(TokenConfig{DefaultTTL: time.Hour}, codec, resolver)

		expires := time.Now().Add(-time.Second)
		token, err := codec.EncodeScopeToken(cryptoDomain.PartitionTest, authDomain.ScopeList{"health:read"}, &expires, "")
		require.NoError(t, err)

		_, err = uc.AuthenticateToken(ctx, token, "")
		assert.ErrorIs(t, err, authDomain.ErrExpired)
	})

	t.Run("Error_MalformedToken", func(t *testing.T) {
		resolver := &usecaseMocks.MockKeyResolver{}
		uc := NewTokenUseCase(TokenConfig{DefaultTTL: time.Hour}, codec, resolver)

		_, err := uc.AuthenticateToken(ctx, "25", "")
		assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
	})
}
