// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

// resourceRegex matches a "<collection>/<id>" resource.
var resourceRegex = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Base62 validates that a string only contains [0-9A-Za-z].
var Base62 = validation.NewStringRuleWithError(
	authDomain.IsBase62,
	validation.NewError("validation_base62", "must only contain characters 0-9, A-Z and a-z"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// Scope validates a <collection>[/<resource>]:<action> scope or "*".
var Scope = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := authDomain.ParseScope(s)
		return err == nil
	},
	validation.NewError("validation_scope", "must be a valid scope"),
)

// Resource validates a "<collection>/<id>" resource.
var Resource = validation.NewStringRuleWithError(
	resourceRegex.MatchString,
	validation.NewError("validation_resource", "must have the form <collection>/<id>"),
)
