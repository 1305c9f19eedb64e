package moments

import (
	"context"

	"github.com/goliatone/go-router"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims the jwt middleware stored under key
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// CurrentUserID returns the authenticated user ID for the request, if any
func CurrentUserID(ctx router.Context, key string) (string, bool) {
	claims, ok := GetRouterClaims(ctx, key)
	if !ok || claims.UserID() == "" {
		return "", false
	}
	return claims.UserID(), true
}

// Can checks a permission ("read", "create", "edit", "delete") against the
// claims stored in ctx.
func Can(ctx context.Context, permission string) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}

	switch permission {
	case "read":
		return claims.CanRead()
	case "create":
		return claims.CanCreate()
	case "edit":
		return claims.CanEdit()
	case "delete":
		return claims.CanDelete()
	default:
		return false
	}
}
