package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	"github.com/allisson/keyguard/internal/auth/http/dto"
	authUseCase "github.com/allisson/keyguard/internal/auth/usecase"
	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
	customValidation "github.com/allisson/keyguard/internal/validation"
)

// TokenHandler handles HTTP requests for scope tokens and introspection.
type TokenHandler struct {
	tokenUseCase authUseCase.TokenUseCase
	logger       *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	tokenUseCase authUseCase.TokenUseCase,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		tokenUseCase: tokenUseCase,
		logger:       logger,
	}
}

// IssueTokenHandler issues a scope token delegating a subset of the caller's scopes.
// POST /v1/tokens - Requires scope tokens:create.
// Returns 201 Created with the token and its expiration time.
func (h *TokenHandler) IssueTokenHandler(c *gin.Context) {
	caller, ok := GetAuthContext(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authDomain.IssueTokenInput{
		Scopes:   req.Scopes,
		TTL:      time.Duration(req.TTLSeconds) * time.Second,
		Resource: req.Resource,
	}

	output, err := h.tokenUseCase.Issue(c.Request.Context(), caller, input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.IssueTokenResponse{
		Token:     output.Token,
		ExpiresAt: output.Expires,
	})
}

// IntrospectHandler describes the credential of the current request.
// GET /v1/auth/introspect - Requires any valid credential.
func (h *TokenHandler) IntrospectHandler(c *gin.Context) {
	caller, ok := GetAuthContext(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuthContextToIntrospectResponse(caller))
}
