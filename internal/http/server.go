// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/keyguard/internal/auth/http"
	authUseCase "github.com/allisson/keyguard/internal/auth/usecase"
	"github.com/allisson/keyguard/internal/config"
	"github.com/allisson/keyguard/internal/metrics"
)

// APIPrefix is the path prefix of every authenticated route.
const APIPrefix = "/v1"

// PingFunc checks the reachability of the key store.
type PingFunc func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	ping   PingFunc
	server *http.Server
	logger *slog.Logger
	router *gin.Engine
}

// NewServer creates a new HTTP server. ping backs the readiness endpoint and
// may be nil, in which case the server never reports ready.
func NewServer(
	ping PingFunc,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		ping:   ping,
		logger: logger,
		server: newHTTPServer(host, port),
	}
}

// SetupRouter builds the gin engine with the global middleware and all routes.
//
// Routes:
//
//	GET    /health                  liveness, unauthenticated
//	GET    /ready                   readiness, unauthenticated
//	GET    /v1/auth/introspect      any valid credential
//	POST   /v1/tokens               tokens:create
//	POST   /v1/api-keys             api-keys:create
//	GET    /v1/api-keys             api-keys:read
//	GET    /v1/api-keys/:id         api-keys:read or api-keys/<id>:read
//	DELETE /v1/api-keys/:id         api-keys:revoke or api-keys/<id>:revoke
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	apiKeyHandler *authHTTP.APIKeyHandler,
	tokenHandler *authHTTP.TokenHandler,
	tokenUseCase authUseCase.TokenUseCase,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group(APIPrefix)
	v1.Use(authHTTP.AuthorizationMiddleware(tokenUseCase, APIPrefix, s.logger))
	if cfg.RateLimitEnabled {
		v1.Use(authHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	v1.GET("/auth/introspect", tokenHandler.IntrospectHandler)
	v1.POST("/tokens",
		authHTTP.RequireAccess("tokens", "create", "", s.logger),
		tokenHandler.IssueTokenHandler)

	apiKeys := v1.Group("/api-keys")
	apiKeys.POST("",
		authHTTP.RequireAccess("api-keys", "create", "", s.logger),
		apiKeyHandler.CreateHandler)
	apiKeys.GET("",
		authHTTP.RequireAccess("api-keys", "read", "", s.logger),
		apiKeyHandler.ListHandler)
	apiKeys.GET("/:id",
		authHTTP.RequireAccess("api-keys", "read", "id", s.logger),
		apiKeyHandler.GetHandler)
	apiKeys.DELETE("/:id",
		authHTTP.RequireAccess("api-keys", "revoke", "id", s.logger),
		apiKeyHandler.RevokeHandler)

	s.router = router
	s.server.Handler = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	if s.server.Handler == nil && s.router != nil {
		s.server.Handler = s.router
	}
	if s.server.Handler == nil {
		return fmt.Errorf("http server started without a router")
	}

	return listenAndServe(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the key store is reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.ping == nil || s.ping(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
