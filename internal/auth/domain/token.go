package domain

import (
	"time"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// AccessToken is a decoded bearer token: APIKeyToken, ScopeToken or
// ResourceScopeToken.
type AccessToken interface {
	isAccessToken()
}

// APIKeyToken wraps a secret key presented through the token parameter.
type APIKeyToken struct {
	SecretKey string //nolint:gosec // credential, never logged
}

// ScopeToken is a self-contained grant whose integrity is proven by its AEAD
// tag.
type ScopeToken struct {
	Partition cryptoDomain.Partition
	Scopes    ScopeList
	Expires   *time.Time
}

// ResourceScopeToken is a ScopeToken only valid for Resource. Its scopes have
// the "$" placeholder already resolved.
type ResourceScopeToken struct {
	ScopeToken
	Resource string
}

func (APIKeyToken) isAccessToken()        {}
func (ScopeToken) isAccessToken()         {}
func (ResourceScopeToken) isAccessToken() {}

// AuthContext builds the context granted by the token.
func (t ScopeToken) AuthContext() (*AuthContext, error) {
	return NewAuthContext(t.Partition, t.Scopes, t.Expires)
}
