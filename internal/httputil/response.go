// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/keyguard/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// errorMapping ties a base error to its status code and public response.
// Responses never echo the error, except for invalid input.
type errorMapping struct {
	target   error
	status   int
	response ErrorResponse
}

var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "The requested resource was not found",
	}},
	{apperrors.ErrConflict, http.StatusConflict, ErrorResponse{
		Error:   "conflict",
		Message: "A conflict occurred with existing data",
	}},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, ErrorResponse{
		Error: "invalid_input",
	}},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "Authentication is required",
	}},
	{apperrors.ErrForbidden, http.StatusForbidden, ErrorResponse{
		Error:   "forbidden",
		Message: "You don't have permission to access this resource",
	}},
	// Undecryptable data at rest. Which field failed is only logged.
	{apperrors.ErrInternal, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
		Code:    "integrity_failure",
	}},
}

var internalErrorResponse = ErrorResponse{
	Error:   "internal_error",
	Message: "An internal error occurred",
}

// mapError returns the status code and response of err. Unknown errors are
// 500 without details.
func mapError(err error) (int, ErrorResponse) {
	for _, m := range errorMappings {
		if apperrors.Is(err, m.target) {
			response := m.response
			if m.target == apperrors.ErrInvalidInput {
				response.Message = err.Error()
			}
			return m.status, response
		}
	}
	return http.StatusInternalServerError, internalErrorResponse
}

// HandleErrorGin maps err to a status code and writes the JSON error response.
// Client errors are logged at debug level and server errors at error level.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode, errorResponse := mapError(err)

	if logger != nil {
		level := slog.LevelDebug
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters using Gin.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	}

	c.JSON(http.StatusBadRequest, errorResponse)
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors using Gin.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	}

	c.JSON(http.StatusUnprocessableEntity, errorResponse)
}
