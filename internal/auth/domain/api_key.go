package domain

import (
	"time"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// APIKey is the stored record of a secret key. Only the salted hash of the
// secret part is kept.
type APIKey struct {
	ID          string
	SecretHash  string //nolint:gosec // argon2id hash, not plaintext
	Partition   cryptoDomain.Partition
	Scopes      ScopeList
	Description string
	CreatedAt   time.Time
	RevokedAt   *time.Time
}

// IsRevoked reports whether the key has been revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// CreateAPIKeyInput contains the parameters of a new API key.
type CreateAPIKeyInput struct {
	Partition   cryptoDomain.Partition
	Scopes      ScopeList
	Description string
}

// CreateAPIKeyOutput carries the generated credential. SecretKey is only ever
// returned here.
type CreateAPIKeyOutput struct {
	ID        string
	SecretKey string //nolint:gosec // returned once to the caller
	APIKey    *APIKey
}

// IssueTokenInput contains the parameters of a new scope token.
type IssueTokenInput struct {
	Scopes   ScopeList
	TTL      time.Duration
	Resource string
}

// IssueTokenOutput carries an encoded scope token.
type IssueTokenOutput struct {
	Token   string //nolint:gosec // bearer credential returned to the caller
	Expires *time.Time
}
