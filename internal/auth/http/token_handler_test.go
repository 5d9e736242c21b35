package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	"github.com/allisson/keyguard/internal/auth/http/dto"
	"github.com/allisson/keyguard/internal/auth/usecase/mocks"
)

func setupTokenRouter(tokenUseCase *mocks.MockTokenUseCase, caller *authDomain.AuthContext) *gin.Engine {
	handler := NewTokenHandler(tokenUseCase, createTestLogger())

	router := gin.New()
	router.Use(withCaller(caller))
	router.POST("/v1/tokens", handler.IssueTokenHandler)
	router.GET("/v1/auth/introspect", handler.IntrospectHandler)
	return router
}

func TestTokenHandler_IssueTokenHandler(t *testing.T) {
	t.Run("Success_IssueToken", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		caller := testAuthContext(t, "tokens:create", "licenses:read")
		expires := time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond)

		tokenUseCase.On("Issue", mock.Anything, caller, &authDomain.IssueTokenInput{
			Scopes:   authDomain.ScopeList{"licenses/abc:read"},
			TTL:      time.Minute,
			Resource: "licenses/abc",
		}).Return(&authDomain.IssueTokenOutput{Token: "3700abcdef", Expires: &expires}, nil).Once()

		w := performRequest(setupTokenRouter(tokenUseCase, caller), http.MethodPost, "/v1/tokens",
			dto.IssueTokenRequest{Scopes: []string{"licenses/abc:read"}, TTLSeconds: 60, Resource: "licenses/abc"})

		require.Equal(t, http.StatusCreated, w.Code)
		var response dto.IssueTokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "3700abcdef", response.Token)
		require.NotNil(t, response.ExpiresAt)
		assert.True(t, expires.Equal(*response.ExpiresAt))
		tokenUseCase.AssertExpectations(t)
	})

	t.Run("Error_ScopeNotGranted", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		caller := testAuthContext(t, "tokens:create")

		tokenUseCase.On("Issue", mock.Anything, caller, mock.Anything).
			Return(nil, authDomain.ErrForbidden).Once()

		w := performRequest(setupTokenRouter(tokenUseCase, caller), http.MethodPost, "/v1/tokens",
			dto.IssueTokenRequest{Scopes: []string{"licenses:write"}})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_InvalidTTL", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		caller := testAuthContext(t, "*")

		tokenUseCase.On("Issue", mock.Anything, caller, mock.Anything).
			Return(nil, authDomain.ErrInvalidTokenTTL).Once()

		w := performRequest(setupTokenRouter(tokenUseCase, caller), http.MethodPost, "/v1/tokens",
			dto.IssueTokenRequest{Scopes: []string{"health:read"}, TTLSeconds: 999999999})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_ValidationFailed", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}

		w := performRequest(setupTokenRouter(tokenUseCase, testAuthContext(t, "*")), http.MethodPost, "/v1/tokens",
			dto.IssueTokenRequest{})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		tokenUseCase.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTokenHandler_IntrospectHandler(t *testing.T) {
	t.Run("Success_Introspect", func(t *testing.T) {
		caller := testAuthContext(t, "health:read")

		w := performRequest(setupTokenRouter(&mocks.MockTokenUseCase{}, caller), http.MethodGet, "/v1/auth/introspect", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var response dto.IntrospectResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "test", response.Partition)
		assert.Equal(t, []string{"health:read"}, response.Scopes)
		assert.Nil(t, response.ExpiresAt)
	})

	t.Run("Error_NoCaller", func(t *testing.T) {
		w := performRequest(setupTokenRouter(&mocks.MockTokenUseCase{}, nil), http.MethodGet, "/v1/auth/introspect", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
