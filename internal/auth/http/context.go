// Package http provides HTTP middleware and handlers for authentication and authorization.
package http

import (
	"context"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
)

// authContextKey is a context key type for storing the request AuthContext.
type authContextKey struct{}

// credentialKey is a context key type for storing the rate limit identity of a credential.
type credentialKey struct{}

// WithAuthContext stores an authenticated AuthContext in the context.
// This is called by AuthorizationMiddleware after the credential is validated.
func WithAuthContext(ctx context.Context, authContext *authDomain.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, authContext)
}

// GetAuthContext retrieves the AuthContext from the context.
// Returns (authContext, true) if present, or (nil, false) if the request was not authenticated.
func GetAuthContext(ctx context.Context) (*authDomain.AuthContext, bool) {
	authContext, ok := ctx.Value(authContextKey{}).(*authDomain.AuthContext)
	return authContext, ok && authContext != nil
}

// withCredential stores the non-secret identity of the presented credential.
func withCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, credentialKey{}, credential)
}

// getCredential returns the identity stored by withCredential.
func getCredential(ctx context.Context) (string, bool) {
	credential, ok := ctx.Value(credentialKey{}).(string)
	return credential, ok && credential != ""
}
