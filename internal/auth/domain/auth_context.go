package domain

import (
	"slices"
	"time"

	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
)

// AuthContext is what an authenticated request is allowed to do.
type AuthContext struct {
	Partition cryptoDomain.Partition
	Scopes    ScopeList
	Expires   *time.Time
}

// NewAuthContext validates and builds an AuthContext. Expires, when set, must
// be strictly in the future.
func NewAuthContext(
	partition cryptoDomain.Partition,
	scopes ScopeList,
	expires *time.Time,
) (*AuthContext, error) {
	if !partition.Valid() {
		return nil, cryptoDomain.ErrUnknownPartition
	}
	ac := &AuthContext{
		Partition: partition,
		Scopes:    slices.Clone(scopes),
		Expires:   expires,
	}
	if err := ac.checkExpiry(time.Now()); err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, ErrNoScope
	}
	return ac, nil
}

func (a *AuthContext) checkExpiry(now time.Time) error {
	if a.Expires != nil && !a.Expires.After(now) {
		return ErrExpired
	}
	return nil
}

// AcceptedScopes returns the scopes that grant action on collection, and on
// collection/resource when resource is not empty.
func AcceptedScopes(collection, resource, action string) []string {
	accepted := []string{
		collection + ":" + action,
		collection + ":" + Wildcard,
		Wildcard,
	}
	if resource != "" {
		accepted = append(accepted,
			collection+"/"+resource+":"+action,
			collection+"/"+resource+":"+Wildcard,
		)
	}
	return accepted
}

// AssertAccess fails with ErrForbidden unless one of the context scopes is in
// AcceptedScopes(collection, resource, action). resource may be empty. An
// expired context fails with ErrExpired.
func (a *AuthContext) AssertAccess(collection, resource, action string) error {
	if err := a.checkExpiry(time.Now()); err != nil {
		return err
	}
	for _, accepted := range AcceptedScopes(collection, resource, action) {
		if slices.Contains(a.Scopes, accepted) {
			return nil
		}
	}
	return ErrForbidden
}

// Grants fails unless the context holds a scope covering scope, so a caller
// can only delegate permissions it owns.
func (a *AuthContext) Grants(scope string) error {
	parsed, err := ParseScope(scope)
	if err != nil {
		return err
	}
	if parsed.Collection == Wildcard {
		if err := a.checkExpiry(time.Now()); err != nil {
			return err
		}
		if slices.Contains(a.Scopes, Wildcard) {
			return nil
		}
		return ErrForbidden
	}
	return a.AssertAccess(parsed.Collection, parsed.Resource, parsed.Action)
}
