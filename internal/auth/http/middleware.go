package http

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	authService "github.com/allisson/keyguard/internal/auth/service"
	authUseCase "github.com/allisson/keyguard/internal/auth/usecase"
	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
)

// TokenQueryParam is the query parameter carrying an encoded token.
const TokenQueryParam = "token"

const bearerPrefix = "bearer "

// AuthorizationMiddleware authenticates the request credential and stores the
// resulting AuthContext in the request context.
//
// A request carries exactly one credential:
//   - "Authorization: Bearer <secret key>", resolved through the key validation cache
//   - a single "token" query parameter, decoded against the resource of the request path
//
// The resource is taken from the request path after pathPrefix, so with prefix
// "/v1" a request to /v1/licenses/abc/render has resource "licenses/abc".
//
// Both, neither, a repeated token parameter or any invalid, expired or
// scopeless credential yield 401 Unauthorized with a fixed message.
//
// Errors that are not about the credential itself are not reported as 401:
// an unreachable key store or a stored key that fails to decrypt
// (ErrDecryption) goes through httputil.HandleErrorGin and yields 500,
// logged at error level without the credential.
//
// Usage:
//
//	v1 := router.Group("/v1", AuthorizationMiddleware(tokenUseCase, "/v1", logger))
//	v1.GET("/licenses/:id", RequireAccess("licenses", "read", "id", logger), handler)
func AuthorizationMiddleware(
	tokenUseCase authUseCase.TokenUseCase,
	pathPrefix string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokens, hasToken := c.Request.URL.Query()[TokenQueryParam]

		var (
			authContext *authDomain.AuthContext
			credential  string
			err         error
		)

		switch {
		case authHeader != "" && hasToken:
			rejectUnauthorized(c, logger, "both authorization header and token parameter present")
			return

		case authHeader != "":
			if len(authHeader) <= len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				rejectUnauthorized(c, logger, "malformed authorization header")
				return
			}
			secretKey := strings.TrimSpace(authHeader[len(bearerPrefix):])
			credential = secretKeyCredential(secretKey)
			authContext, err = tokenUseCase.AuthenticateSecretKey(c.Request.Context(), secretKey)

		case hasToken:
			if len(tokens) != 1 || tokens[0] == "" {
				rejectUnauthorized(c, logger, "token parameter must be present exactly once")
				return
			}
			resource := authService.ResourceFromPath(strings.TrimPrefix(c.Request.URL.Path, pathPrefix))
			credential = tokenCredential(tokens[0])
			authContext, err = tokenUseCase.AuthenticateToken(c.Request.Context(), tokens[0], resource)

		default:
			rejectUnauthorized(c, logger, "missing credentials")
			return
		}

		if err != nil {
			if apperrors.Is(err, apperrors.ErrUnauthorized) || apperrors.Is(err, apperrors.ErrForbidden) {
				rejectUnauthorized(c, logger, err.Error())
				return
			}
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithAuthContext(c.Request.Context(), authContext)
		ctx = withCredential(ctx, credential)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("partition", string(authContext.Partition)),
			slog.String("credential", credential))

		c.Next()
	}
}

// RequireAccess allows the request only when its AuthContext grants action on
// collection. When resourceParam is not empty the named path parameter is the
// resource, so resource scoped grants such as "licenses/abc:read" are accepted.
//
// MUST be used after AuthorizationMiddleware.
//
// Returns 401 Unauthorized without an AuthContext or when it has expired, and
// 403 Forbidden when no scope matches.
func RequireAccess(collection, action, resourceParam string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authContext, ok := GetAuthContext(c.Request.Context())
		if !ok {
			logger.Debug("authorization failed: no auth context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		var resource string
		if resourceParam != "" {
			resource = c.Param(resourceParam)
		}

		if err := authContext.AssertAccess(collection, resource, action); err != nil {
			logger.Debug("authorization failed",
				slog.String("collection", collection),
				slog.String("resource", resource),
				slog.String("action", action),
				slog.Any("error", err))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// rejectUnauthorized writes the fixed 401 response. reason is logged only.
func rejectUnauthorized(c *gin.Context, logger *slog.Logger, reason string) {
	logger.Debug("authentication failed", slog.String("reason", reason))
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse{
		Error:   "unauthorized",
		Message: "Authentication is required",
	})
}

// secretKeyCredential identifies a secret key by its id. Unparsable values
// get a digest so that garbage still maps to a stable identity.
func secretKeyCredential(secretKey string) string {
	if key, err := authDomain.ParseSecretKey(secretKey); err == nil {
		return "key:" + key.ID
	}
	return tokenCredential(secretKey)
}

// tokenCredential identifies a token by a truncated digest.
func tokenCredential(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:8])
}
