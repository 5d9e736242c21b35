// Package errors provides the shared error taxonomy. Domain packages wrap these
// sentinels with their own context and the HTTP boundary maps them to status
// codes with errors.Is, so no layer needs to know another layer's error types.
package errors

import (
	"errors"
	"fmt"
)

// Base errors shared by every domain package.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request carries no valid credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the credential is valid but lacks permission.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates a server-side fault that must surface as an
	// operational alarm (e.g. corrupted data at rest).
	ErrInternal = errors.New("internal error")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
