package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	"github.com/allisson/keyguard/internal/auth/http/dto"
	authUseCase "github.com/allisson/keyguard/internal/auth/usecase"
	apperrors "github.com/allisson/keyguard/internal/errors"
	"github.com/allisson/keyguard/internal/httputil"
	customValidation "github.com/allisson/keyguard/internal/validation"
)

// APIKeyHandler handles HTTP requests for API key management. Every operation
// runs in the partition of the caller.
type APIKeyHandler struct {
	apiKeyUseCase authUseCase.APIKeyUseCase
	logger        *slog.Logger
}

// NewAPIKeyHandler creates a new API key handler with required dependencies.
func NewAPIKeyHandler(
	apiKeyUseCase authUseCase.APIKeyUseCase,
	logger *slog.Logger,
) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyUseCase: apiKeyUseCase,
		logger:        logger,
	}
}

// CreateHandler creates a new API key.
// POST /v1/api-keys - Requires scope api-keys:create.
// Returns 201 Created with the plaintext secret key.
func (h *APIKeyHandler) CreateHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authDomain.CreateAPIKeyInput{
		Partition:   caller.Partition,
		Scopes:      req.Scopes,
		Description: req.Description,
	}

	output, err := h.apiKeyUseCase.Create(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapCreateAPIKeyOutputToResponse(output))
}

// GetHandler retrieves an API key by id.
// GET /v1/api-keys/:id - Requires scope api-keys:read or api-keys/<id>:read.
func (h *APIKeyHandler) GetHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	id, ok := h.keyID(c)
	if !ok {
		return
	}

	apiKey, err := h.apiKeyUseCase.Get(c.Request.Context(), id, caller.Partition)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAPIKeyToResponse(apiKey))
}

// ListHandler retrieves API keys with pagination support.
// GET /v1/api-keys?offset=0&limit=50 - Requires scope api-keys:read.
func (h *APIKeyHandler) ListHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	apiKeys, err := h.apiKeyUseCase.List(c.Request.Context(), caller.Partition, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAPIKeysToListResponse(apiKeys))
}

// RevokeHandler revokes an API key. Cached validations of the key are dropped
// before the response is written.
// DELETE /v1/api-keys/:id - Requires scope api-keys:revoke or api-keys/<id>:revoke.
// Returns 204 No Content.
func (h *APIKeyHandler) RevokeHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	id, ok := h.keyID(c)
	if !ok {
		return
	}

	if err := h.apiKeyUseCase.Revoke(c.Request.Context(), id, caller.Partition); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("api key revoked",
		slog.String("partition", string(caller.Partition)),
		slog.String("key_id", id))

	c.Data(http.StatusNoContent, "application/json", nil)
}

func (h *APIKeyHandler) caller(c *gin.Context) (*authDomain.AuthContext, bool) {
	caller, ok := GetAuthContext(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return nil, false
	}
	return caller, true
}

func (h *APIKeyHandler) keyID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	err := validation.Validate(id,
		validation.Required,
		validation.Length(authDomain.KeyIDLength, authDomain.KeyIDLength),
		customValidation.Base62,
	)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid api key id: %w", err),
			h.logger)
		return "", false
	}
	return id, true
}
