package dto

import (
	"time"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
)

// CreateAPIKeyResponse contains the result of creating a new API key.
// SECURITY: The secret key is only returned once and must be saved securely.
type CreateAPIKeyResponse struct {
	ID          string    `json:"id"`
	SecretKey   string    `json:"secret_key"` //nolint:gosec // returned once on creation
	Partition   string    `json:"partition"`
	Scopes      []string  `json:"scopes"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// MapCreateAPIKeyOutputToResponse converts a create output to an API response.
func MapCreateAPIKeyOutputToResponse(output *authDomain.CreateAPIKeyOutput) CreateAPIKeyResponse {
	return CreateAPIKeyResponse{
		ID:          output.ID,
		SecretKey:   output.SecretKey,
		Partition:   string(output.APIKey.Partition),
		Scopes:      output.APIKey.Scopes,
		Description: output.APIKey.Description,
		CreatedAt:   output.APIKey.CreatedAt,
	}
}

// APIKeyResponse represents an API key in API responses (excludes the secret hash).
type APIKeyResponse struct {
	ID          string     `json:"id"`
	Partition   string     `json:"partition"`
	Scopes      []string   `json:"scopes"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// MapAPIKeyToResponse converts a domain API key to an API response.
func MapAPIKeyToResponse(apiKey *authDomain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:          apiKey.ID,
		Partition:   string(apiKey.Partition),
		Scopes:      apiKey.Scopes,
		Description: apiKey.Description,
		CreatedAt:   apiKey.CreatedAt,
		RevokedAt:   apiKey.RevokedAt,
	}
}

// ListAPIKeysResponse represents a paginated list of API keys in API responses.
type ListAPIKeysResponse struct {
	Data []APIKeyResponse `json:"data"`
}

// MapAPIKeysToListResponse converts a slice of domain API keys to a list API response.
func MapAPIKeysToListResponse(apiKeys []*authDomain.APIKey) ListAPIKeysResponse {
	responses := make([]APIKeyResponse, 0, len(apiKeys))
	for _, apiKey := range apiKeys {
		responses = append(responses, MapAPIKeyToResponse(apiKey))
	}
	return ListAPIKeysResponse{Data: responses}
}

// IssueTokenResponse contains the result of issuing a scope token.
type IssueTokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IntrospectResponse describes the AuthContext of the current request.
type IntrospectResponse struct {
	Partition string     `json:"partition"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// MapAuthContextToIntrospectResponse converts an AuthContext to an API response.
func MapAuthContextToIntrospectResponse(authContext *authDomain.AuthContext) IntrospectResponse {
	return IntrospectResponse{
		Partition: string(authContext.Partition),
		Scopes:    authContext.Scopes,
		ExpiresAt: authContext.Expires,
	}
}
