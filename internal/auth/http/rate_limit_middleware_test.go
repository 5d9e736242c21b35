package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedRouter(t *testing.T, rps float64, burst int) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if credential := c.GetHeader("X-Test-Credential"); credential != "" {
			c.Request = c.Request.WithContext(withCredential(c.Request.Context(), credential))
		}
		c.Next()
	})
	router.Use(RateLimitMiddleware(ctx, rps, burst, createTestLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doRateLimitedRequest(router *gin.Engine, credential string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if credential != "" {
		req.Header.Set("X-Test-Credential", credential)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	router := newRateLimitedRouter(t, 10.0, 20)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRateLimitedRequest(router, "key:abc123DEF456").Code)
	}
}

func TestRateLimitMiddleware_BlocksRequestsExceedingLimit(t *testing.T) {
	router := newRateLimitedRouter(t, 1.0, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, doRateLimitedRequest(router, "key:abc123DEF456").Code)
	}

	w := doRateLimitedRequest(router, "key:abc123DEF456")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimitMiddleware_IndependentCredentials(t *testing.T) {
	router := newRateLimitedRouter(t, 1.0, 1)

	assert.Equal(t, http.StatusOK, doRateLimitedRequest(router, "key:aaaaaaaaaaaa").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRateLimitedRequest(router, "key:aaaaaaaaaaaa").Code)
	assert.Equal(t, http.StatusOK, doRateLimitedRequest(router, "key:bbbbbbbbbbbb").Code)
}

func TestRateLimitMiddleware_RequiresCredential(t *testing.T) {
	router := newRateLimitedRouter(t, 10.0, 20)

	assert.Equal(t, http.StatusUnauthorized, doRateLimitedRequest(router, "").Code)
}

func TestRateLimiterStore_Purge(t *testing.T) {
	store := &rateLimiterStore{rps: 1, burst: 1}
	store.getLimiter("key:stale")

	store.purge(time.Now().Add(time.Minute))

	_, ok := store.limiters.Load("key:stale")
	assert.False(t, ok)
}
