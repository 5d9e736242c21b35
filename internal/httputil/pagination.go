package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/keyguard/internal/errors"
)

// Page bounds shared by the HTTP API and the CLI listings.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 1000
)

// ErrInvalidPagination is returned for an offset below zero or a limit
// outside [1, MaxPageLimit].
var ErrInvalidPagination = apperrors.Wrap(
	apperrors.ErrInvalidInput,
	"offset must be a non-negative integer and limit between 1 and 1000",
)

// ValidatePagination checks already parsed page bounds.
func ValidatePagination(offset, limit int) error {
	if offset < 0 || limit < 1 || limit > MaxPageLimit {
		return ErrInvalidPagination
	}
	return nil
}

// ParsePagination reads the offset and limit query parameters, defaulting to
// 0 and DefaultPageLimit.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, ErrInvalidPagination
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))
	if err != nil {
		return 0, 0, ErrInvalidPagination
	}

	if err := ValidatePagination(offset, limit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}
