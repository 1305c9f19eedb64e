package jwtware_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/momentkit/go-moments/middleware/jwtware"
)

var roleLevels = map[string]int{"guest": 0, "member": 1, "admin": 2}

type testClaims struct {
	sub  string
	role string
}

func (c testClaims) Subject() string         { return c.sub }
func (c testClaims) UserID() string          { return c.sub }
func (c testClaims) Role() string            { return c.role }
func (c testClaims) HasRole(r string) bool   { return c.role == r }
func (c testClaims) IsAtLeast(r string) bool { return roleLevels[c.role] >= roleLevels[r] }

var errBadToken = errors.New("token is malformed")

func staticValidator(valid string, claims jwtware.AuthClaims) jwtware.TokenValidatorFunc {
	return func(token string) (jwtware.AuthClaims, error) {
		if token != valid {
			return nil, errBadToken
		}
		return claims, nil
	}
}

func returnErr(_ router.Context, err error) error { return err }

func expectLocals(ctx *router.MockContext) {
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Locals", "current_user", mock.Anything).Return(nil)
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	claims := testClaims{sub: "12345", role: "member"}
	cfg := jwtware.Config{
		TokenValidator: staticValidator("good-token", claims),
		ErrorHandler:   returnErr,
	}
	middleware := jwtware.New(cfg)(nil)

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer good-token")
	expectLocals(ctx)

	require.NoError(t, middleware(ctx))
	assert.True(t, ctx.NextCalled)
	ctx.AssertCalled(t, "Locals", "user", claims)

	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")
	err := middleware(ctx)
	require.ErrorIs(t, err, jwtware.ErrJWTMissingOrMalformed)
	assert.False(t, ctx.NextCalled)

	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer bad-token")
	err = middleware(ctx)
	require.ErrorIs(t, err, errBadToken)
}

func TestJWTWare_WrongScheme(t *testing.T) {
	middleware := jwtware.New(jwtware.Config{
		TokenValidator: staticValidator("good-token", testClaims{sub: "1"}),
		ErrorHandler:   returnErr,
	})(nil)

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Basic good-token")

	require.ErrorIs(t, middleware(ctx), jwtware.ErrJWTMissingOrMalformed)
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: staticValidator("good-token", testClaims{sub: "12345", role: "member"}),
		ErrorHandler:   returnErr,
		TokenLookup:    "query:token,param:jwt,cookie:jwt_cookie",
	}
	middleware := jwtware.New(cfg)(nil)

	ctx := router.NewMockContext()
	ctx.QueriesM["token"] = "good-token"
	expectLocals(ctx)
	require.NoError(t, middleware(ctx))
	assert.True(t, ctx.NextCalled)

	ctx = router.NewMockContext()
	ctx.ParamsM["jwt"] = "good-token"
	expectLocals(ctx)
	require.NoError(t, middleware(ctx))
	assert.True(t, ctx.NextCalled)

	ctx = router.NewMockContext()
	ctx.CookiesM["jwt_cookie"] = "good-token"
	expectLocals(ctx)
	require.NoError(t, middleware(ctx))
	assert.True(t, ctx.NextCalled)
}

func TestJWTWare_RoleChecks(t *testing.T) {
	guest := testClaims{sub: "g", role: "guest"}
	admin := testClaims{sub: "a", role: "admin"}

	tests := []struct {
		name     string
		cfg      jwtware.Config
		claims   testClaims
		wantErr  string
		wantNext bool
	}{
		{"minimum role met", jwtware.Config{MinimumRole: "member"}, admin, "", true},
		{"minimum role missing", jwtware.Config{MinimumRole: "member"}, guest, "minimum role 'member' required", false},
		{"required role met", jwtware.Config{RequiredRole: "admin"}, admin, "", true},
		{"required role missing", jwtware.Config{RequiredRole: "admin"}, guest, "required role 'admin' not found", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.TokenValidator = staticValidator("tok", tt.claims)
			cfg.ErrorHandler = returnErr
			cfg.TokenLookup = "cookie:session"

			ctx := router.NewMockContext()
			ctx.CookiesM["session"] = "tok"
			if tt.wantNext {
				expectLocals(ctx)
			}

			err := jwtware.New(cfg)(nil)(ctx)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantNext, ctx.NextCalled)
		})
	}
}

func TestJWTWare_FilterSkipsValidation(t *testing.T) {
	middleware := jwtware.New(jwtware.Config{
		TokenValidator: staticValidator("tok", testClaims{}),
		Filter:         func(router.Context) bool { return true },
	})(nil)

	ctx := router.NewMockContext()
	require.NoError(t, middleware(ctx))
	assert.True(t, ctx.NextCalled)
	ctx.AssertNotCalled(t, "GetString", mock.Anything, mock.Anything)
}

func TestJWTWare_ContextEnricher(t *testing.T) {
	claims := testClaims{sub: "42", role: "member"}
	var enriched jwtware.AuthClaims

	middleware := jwtware.New(jwtware.Config{
		TokenValidator: staticValidator("tok", claims),
		TokenLookup:    "cookie:session",
		ContextEnricher: func(c context.Context, cl jwtware.AuthClaims) context.Context {
			enriched = cl
			return c
		},
	})(nil)

	ctx := router.NewMockContext()
	ctx.CookiesM["session"] = "tok"
	expectLocals(ctx)
	ctx.On("Context").Return(context.Background())
	ctx.On("SetContext", mock.Anything).Return().Maybe()

	require.NoError(t, middleware(ctx))
	assert.Equal(t, claims, enriched)
}

func TestJWTWare_CustomSuccessHandler(t *testing.T) {
	called := false
	middleware := jwtware.New(jwtware.Config{
		TokenValidator: staticValidator("tok", testClaims{sub: "1"}),
		TokenLookup:    "cookie:session",
		SuccessHandler: func(router.Context) error {
			called = true
			return nil
		},
	})(nil)

	ctx := router.NewMockContext()
	ctx.CookiesM["session"] = "tok"
	expectLocals(ctx)

	require.NoError(t, middleware(ctx))
	assert.True(t, called)
	assert.False(t, ctx.NextCalled)
}

func TestGetDefaultConfigRequiresValidator(t *testing.T) {
	assert.Panics(t, func() { jwtware.GetDefaultConfig() })

	cfg := jwtware.GetDefaultConfig(jwtware.Config{TokenValidator: staticValidator("", nil)})
	assert.Equal(t, "user", cfg.ContextKey)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "current_user", cfg.TemplateUserKey)
}

func TestGetExtractorsIgnoresMalformedParts(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization, bogus ,cookie:jwt,unknown:x")
	assert.Len(t, extractors, 2)
}
