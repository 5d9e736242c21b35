package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	"github.com/allisson/keyguard/internal/auth/usecase/mocks"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	"github.com/allisson/keyguard/internal/httputil"
)

const testSecretKey = "sk_test_abc123DEF456s3cr3tS3CR3Ts3cr3tS3CR3T"

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestLogger creates a test logger that discards output.
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuthContext(t *testing.T, scopes ...string) *authDomain.AuthContext {
	t.Helper()
	authContext, err := authDomain.NewAuthContext(cryptoDomain.PartitionTest, scopes, nil)
	require.NoError(t, err)
	return authContext
}

// newAuthRouter mounts AuthorizationMiddleware in front of a handler that
// echoes the stored AuthContext.
func newAuthRouter(tokenUseCase *mocks.MockTokenUseCase) *gin.Engine {
	router := gin.New()
	router.Use(AuthorizationMiddleware(tokenUseCase, "/v1", createTestLogger()))
	handler := func(c *gin.Context) {
		authContext, ok := GetAuthContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		credential, _ := getCredential(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"partition":  authContext.Partition,
			"scopes":     authContext.Scopes,
			"credential": credential,
		})
	}
	router.GET("/v1/licenses/:id", handler)
	router.GET("/v1/health", handler)
	return router
}

func assertUnauthorized(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "unauthorized", response.Error)
	assert.Equal(t, "Authentication is required", response.Message)
}

func TestAuthorizationMiddleware_BearerSecretKey(t *testing.T) {
	tokenUseCase := &mocks.MockTokenUseCase{}
	authContext := testAuthContext(t, "licenses:read")
	tokenUseCase.On("AuthenticateSecretKey", mock.Anything, testSecretKey).Return(authContext, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/licenses/abc", nil)
	req.Header.Set("Authorization", "Bearer "+testSecretKey)
	newAuthRouter(tokenUseCase).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "test", body["partition"])
	assert.Equal(t, []any{"licenses:read"}, body["scopes"])
	assert.Equal(t, "key:abc123DEF456", body["credential"])
	tokenUseCase.AssertExpectations(t)
}

func TestAuthorizationMiddleware_BearerCaseInsensitive(t *testing.T) {
	tokenUseCase := &mocks.MockTokenUseCase{}
	tokenUseCase.On("AuthenticateSecretKey", mock.Anything, testSecretKey).
		Return(testAuthContext(t, "*"), nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("Authorization", "bEaReR "+testSecretKey)
	newAuthRouter(tokenUseCase).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	tokenUseCase.AssertExpectations(t)
}

func TestAuthorizationMiddleware_QueryTokenUsesPathResource(t *testing.T) {
	tokenUseCase := &mocks.MockTokenUseCase{}
	tokenUseCase.On("AuthenticateToken", mock.Anything, "3700aBcD", "licenses/abc").
		Return(testAuthContext(t, "licenses/abc:read"), nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/licenses/abc?token=3700aBcD", nil)
	newAuthRouter(tokenUseCase).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, tokenCredential("3700aBcD"), body["credential"])
	tokenUseCase.AssertExpectations(t)
}

func TestAuthorizationMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
	}{
		{name: "Failure_NoCredentials", target: "/v1/health"},
		{name: "Failure_HeaderAndToken", target: "/v1/health?token=2700aa", header: "Bearer " + testSecretKey},
		{name: "Failure_RepeatedToken", target: "/v1/health?token=2700aa&token=2700bb"},
		{name: "Failure_EmptyToken", target: "/v1/health?token="},
		{name: "Failure_BasicScheme", header: "Basic dXNlcjpwYXNz", target: "/v1/health"},
		{name: "Failure_EmptyBearer", header: "Bearer ", target: "/v1/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenUseCase := &mocks.MockTokenUseCase{}

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			newAuthRouter(tokenUseCase).ServeHTTP(w, req)

			assertUnauthorized(t, w)
			tokenUseCase.AssertNotCalled(t, "AuthenticateSecretKey", mock.Anything, mock.Anything)
			tokenUseCase.AssertNotCalled(t, "AuthenticateToken", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthorizationMiddleware_AuthenticationErrors(t *testing.T) {
	t.Run("Failure_InvalidToken", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		tokenUseCase.On("AuthenticateToken", mock.Anything, "ab", "").
			Return(nil, authDomain.ErrInvalidToken).Once()

		w := httptest.NewRecorder()
		newAuthRouter(tokenUseCase).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health?token=ab", nil))

		assertUnauthorized(t, w)
	})

	t.Run("Failure_ExpiredToken", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		tokenUseCase.On("AuthenticateToken", mock.Anything, "2700aa", "").
			Return(nil, authDomain.ErrExpired).Once()

		w := httptest.NewRecorder()
		newAuthRouter(tokenUseCase).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health?token=2700aa", nil))

		assertUnauthorized(t, w)
	})

	t.Run("Failure_NoScope", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		tokenUseCase.On("AuthenticateSecretKey", mock.Anything, testSecretKey).
			Return(nil, authDomain.ErrNoScope).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.Header.Set("Authorization", "Bearer "+testSecretKey)
		newAuthRouter(tokenUseCase).ServeHTTP(w, req)

		assertUnauthorized(t, w)
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		tokenUseCase.On("AuthenticateSecretKey", mock.Anything, testSecretKey).
			Return(nil, errors.New("connection refused")).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.Header.Set("Authorization", "Bearer "+testSecretKey)
		newAuthRouter(tokenUseCase).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Error_StoredKeyDecryptionFailure", func(t *testing.T) {
		tokenUseCase := &mocks.MockTokenUseCase{}
		tokenUseCase.On("AuthenticateSecretKey", mock.Anything, testSecretKey).
			Return(nil, cryptoDomain.ErrDecryption).Once()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.Header.Set("Authorization", "Bearer "+testSecretKey)
		newAuthRouter(tokenUseCase).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), testSecretKey)
	})
}

func TestRequireAccess(t *testing.T) {
	newRouter := func(authContext *authDomain.AuthContext) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if authContext != nil {
				c.Request = c.Request.WithContext(WithAuthContext(c.Request.Context(), authContext))
			}
			c.Next()
		})
		router.GET("/v1/licenses/:id",
			RequireAccess("licenses", "read", "id", createTestLogger()),
			func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return router
	}

	serve := func(router *gin.Engine, target string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w.Code
	}

	t.Run("Success_CollectionScope", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, serve(newRouter(testAuthContext(t, "licenses:read")), "/v1/licenses/abc"))
	})

	t.Run("Success_ResourceScope", func(t *testing.T) {
		router := newRouter(testAuthContext(t, "licenses/abc:read"))
		assert.Equal(t, http.StatusNoContent, serve(router, "/v1/licenses/abc"))
		assert.Equal(t, http.StatusForbidden, serve(router, "/v1/licenses/xyz"))
	})

	t.Run("Success_Universal", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, serve(newRouter(testAuthContext(t, "*")), "/v1/licenses/abc"))
	})

	t.Run("Failure_WrongAction", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, serve(newRouter(testAuthContext(t, "licenses:write")), "/v1/licenses/abc"))
	})

	t.Run("Failure_Expired", func(t *testing.T) {
		past := time.Now().Add(-time.Second)
		authContext := &authDomain.AuthContext{
			Partition: cryptoDomain.PartitionTest,
			Scopes:    authDomain.ScopeList{"licenses:read"},
			Expires:   &past,
		}
		assert.Equal(t, http.StatusUnauthorized, serve(newRouter(authContext), "/v1/licenses/abc"))
	})

	t.Run("Failure_NoAuthContext", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(newRouter(nil), "/v1/licenses/abc"))
	})
}

func TestSecretKeyCredential(t *testing.T) {
	assert.Equal(t, "key:abc123DEF456", secretKeyCredential(testSecretKey))

	garbage := secretKeyCredential("not-a-key")
	assert.Equal(t, tokenCredential("not-a-key"), garbage)
	assert.NotContains(t, garbage, "not-a-key")
}
