// Package requestctx carries authenticated caller data through request
// contexts.
package requestctx

import "context"

// UserClaims stores minimal auth info derived from the user guard.
type UserClaims struct {
	ID      int64
	Email   string
	IsAdmin bool
}

type contextKey string

const userContextKey contextKey = "agromarket-user"

// WithUserClaims attaches caller data to the context.
func WithUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// UserFromContext fetches caller claims, returning the zero value if
// the request was not authenticated.
func UserFromContext(ctx context.Context) UserClaims {
	if ctx == nil {
		return UserClaims{}
	}
	claims, _ := ctx.Value(userContextKey).(UserClaims)
	return claims
}
