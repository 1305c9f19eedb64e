package moments

import (
	"maps"

	"github.com/goliatone/go-router"
	"github.com/momentkit/go-moments/middleware/csrf"
)

var TemplateUserKey = "current_user"

// TemplateHelpers returns helper functions and role constants for views.
//
// In templates:
//
//	{% if is_authenticated(current_user) %}
//	{% if is_at_least(current_user, roles.member) %}
//	{% if can_access(current_user, "delete") %}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": isAuthenticated,
		"has_role":         hasRole,
		"is_at_least":      isAtLeast,
		"can_access":       canAccess,
		"roles": map[string]string{
			"guest":  string(RoleGuest),
			"member": string(RoleMember),
			"admin":  string(RoleAdmin),
			"owner":  string(RoleOwner),
		},
		"routes": map[string]string{
			"home":    Home,
			"sign_in": SignIn,
			"sign_up": SignUp,
		},
	}
}

// MergeTemplateData adds the helpers, the CSRF field and the current user,
// when the middleware stored them, to a view context. Values already in data
// win.
func MergeTemplateData(ctx router.Context, data router.ViewContext) router.ViewContext {
	out := router.ViewContext{}
	maps.Copy(out, TemplateHelpers())
	maps.Copy(out, csrf.TemplateData(ctx, csrf.DefaultContextKey))

	if user, ok := GetTemplateUser(ctx, TemplateUserKey); ok {
		out[TemplateUserKey] = user
	}

	maps.Copy(out, data)
	return out
}

// GetTemplateUser extracts the user stored for views
func GetTemplateUser(ctx router.Context, userKey string) (any, bool) {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	user := ctx.Locals(userKey)
	return user, user != nil
}

func roleOf(user any) (UserRole, bool) {
	switch u := user.(type) {
	case *User:
		if u == nil {
			return "", false
		}
		return u.Role, true
	case User:
		return u.Role, true
	case AuthClaims:
		if u == nil || u.UserID() == "" {
			return "", false
		}
		return UserRole(u.Role()), true
	case map[string]any:
		if r, ok := u["user_role"].(string); ok {
			return UserRole(r), true
		}
		if r, ok := u["role"].(string); ok {
			return UserRole(r), true
		}
		return "", len(u) > 0
	default:
		return "", false
	}
}

func isAuthenticated(user any) bool {
	_, ok := roleOf(user)
	return ok
}

func hasRole(user any, role string) bool {
	r, ok := roleOf(user)
	return ok && r == UserRole(role)
}

func isAtLeast(user any, minRole string) bool {
	r, ok := roleOf(user)
	return ok && r.IsAtLeast(UserRole(minRole))
}

// canAccess checks "read", "create", "edit" or "delete"
func canAccess(user any, action string) bool {
	r, ok := roleOf(user)
	if !ok {
		return false
	}

	switch action {
	case "read":
		return r.CanRead()
	case "create":
		return r.CanCreate()
	case "edit":
		return r.CanEdit()
	case "delete":
		return r.CanDelete()
	default:
		return false
	}
}
