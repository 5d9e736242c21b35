// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/keyguard/internal/validation"
)

// CreateAPIKeyRequest contains the parameters for creating a new API key.
// The key is created in the partition of the caller.
type CreateAPIKeyRequest struct {
	Scopes      []string `json:"scopes"`
	Description string   `json:"description"`
}

// Validate checks if the create API key request is valid.
func (r *CreateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Scopes,
			validation.Required,
			validation.Length(1, 100),
			validation.Each(customValidation.Scope),
		),
		validation.Field(&r.Description,
			customValidation.NoWhitespace,
			validation.Length(0, 255),
		),
	)
}

// IssueTokenRequest contains the parameters for issuing a scope token.
// TTLSeconds of zero selects the server default.
type IssueTokenRequest struct {
	Scopes     []string `json:"scopes"`
	TTLSeconds int64    `json:"ttl_seconds"`
	Resource   string   `json:"resource"`
}

// Validate checks if the issue token request is valid.
func (r *IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Scopes,
			validation.Required,
			validation.Length(1, 100),
			validation.Each(customValidation.Scope),
		),
		validation.Field(&r.TTLSeconds,
			validation.Min(0),
		),
		validation.Field(&r.Resource,
			customValidation.Resource,
		),
	)
}
