package moments_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	moments "github.com/momentkit/go-moments"
	"github.com/momentkit/go-moments/middleware/jwtware"
)

func newRouteAuthenticator(t *testing.T, auther moments.Authenticator, cfg moments.Config) *moments.RouteAuthenticator {
	t.Helper()
	httpAuth, err := moments.NewHTTPAuthenticator(auther, cfg)
	require.NoError(t, err)
	return httpAuth.WithLogger(nopLogger{})
}

func TestNewHTTPAuthenticator_Durations(t *testing.T) {
	cfg := new(MockConfig)
	cfg.On("GetTokenExpiration").Return(12)
	cfg.On("GetExtendedTokenDuration").Return(72)

	httpAuth := newRouteAuthenticator(t, new(MockAuthenticator), cfg)
	assert.Equal(t, 12*time.Hour, httpAuth.GetCookieDuration())
	assert.Equal(t, 72*time.Hour, httpAuth.GetExtendedCookieDuration())

	defaults := newRouteAuthenticator(t, new(MockAuthenticator), &MockConfig{})
	assert.Equal(t, 24*time.Hour, defaults.GetCookieDuration())
	assert.Equal(t, 24*time.Hour, defaults.GetExtendedCookieDuration())
}

func TestRouteAuthenticator_Login(t *testing.T) {
	auther := new(MockAuthenticator)
	cfg := new(MockConfig)
	cfg.On("GetContextKey").Return("moments_session")
	cfg.On("GetExtendedTokenDuration").Return(48)

	auther.On("Login", mock.Anything, "jane@example.com", "password123").Return("signed.jwt", nil)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())

	var cookie *router.Cookie
	ctx.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		cookie = args.Get(0).(*router.Cookie)
	}).Return()

	httpAuth := newRouteAuthenticator(t, auther, cfg)
	err := httpAuth.Login(ctx, MockLoginPayload{
		Identifier:      "jane@example.com",
		Password:        "password123",
		ExtendedSession: true,
	})
	require.NoError(t, err)

	require.NotNil(t, cookie)
	assert.Equal(t, "moments_session", cookie.Name)
	assert.Equal(t, "signed.jwt", cookie.Value)
	assert.True(t, cookie.HTTPOnly)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), cookie.Expires, time.Minute)
	auther.AssertExpectations(t)
}

func TestRouteAuthenticator_LoginError(t *testing.T) {
	auther := new(MockAuthenticator)
	auther.On("Login", mock.Anything, "jane@example.com", "bad").Return("", moments.ErrMismatchedHashAndPassword)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())

	httpAuth := newRouteAuthenticator(t, auther, &MockConfig{})
	err := httpAuth.Login(ctx, MockLoginPayload{Identifier: "jane@example.com", Password: "bad"})
	assert.ErrorIs(t, err, moments.ErrMismatchedHashAndPassword)
	ctx.AssertNotCalled(t, "Cookie", mock.Anything)
}

func TestRouteAuthenticator_Activate(t *testing.T) {
	auther := new(MockAuthenticator)
	auther.On("IssueSession", mock.Anything, "user-1").Return("fresh.jwt", nil)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "user" && c.Value == "fresh.jwt"
	})).Return()

	httpAuth := newRouteAuthenticator(t, auther, &MockConfig{})
	require.NoError(t, httpAuth.Activate(ctx, "user-1"))
	ctx.AssertExpectations(t)
}

func TestRouteAuthenticator_Logout(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
		return c.Name == "user" && c.Value == "" && c.Expires.Before(time.Now())
	})).Return()

	newRouteAuthenticator(t, new(MockAuthenticator), &MockConfig{}).Logout(ctx)
	ctx.AssertExpectations(t)
}

func TestRouteAuthenticator_GetRedirect(t *testing.T) {
	httpAuth := newRouteAuthenticator(t, new(MockAuthenticator), &MockConfig{})

	t.Run("remembered route", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.CookiesM["rejected_route"] = "/upload"
		ctx.On("Cookie", mock.MatchedBy(func(c *router.Cookie) bool {
			return c.Name == "rejected_route" && c.Value == ""
		})).Return()

		assert.Equal(t, "/upload", httpAuth.GetRedirect(ctx))
	})

	t.Run("explicit default", func(t *testing.T) {
		ctx := router.NewMockContext()
		assert.Equal(t, "/studio", httpAuth.GetRedirect(ctx, "/studio"))
	})

	t.Run("configured default", func(t *testing.T) {
		ctx := router.NewMockContext()
		assert.Equal(t, "/", httpAuth.GetRedirect(ctx))
	})
}

func TestRouteAuthenticator_ClientErrorHandler(t *testing.T) {
	httpAuth := newRouteAuthenticator(t, new(MockAuthenticator), &MockConfig{})

	t.Run("optional auth continues", func(t *testing.T) {
		ctx := router.NewMockContext()

		err := httpAuth.MakeClientRouteAuthErrorHandler(true)(ctx, jwtware.ErrJWTMissingOrMalformed)
		require.NoError(t, err)
		assert.True(t, ctx.NextCalled)
	})

	t.Run("required auth uses the error handler", func(t *testing.T) {
		ctx := router.NewMockContext()

		var handled error
		httpAuth.AuthErrorHandler = func(c router.Context, err error) error {
			handled = err
			return c.Redirect(moments.SignIn, http.StatusSeeOther)
		}
		ctx.On("Redirect", moments.SignIn, []int{http.StatusSeeOther}).Return(nil)

		err := httpAuth.MakeClientRouteAuthErrorHandler(false)(ctx, errors.New("token is expired"))
		require.NoError(t, err)
		assert.Same(t, moments.ErrTokenExpired, handled)
		ctx.AssertExpectations(t)
	})
}

func TestRouteAuthenticator_APIErrorHandler(t *testing.T) {
	httpAuth := newRouteAuthenticator(t, new(MockAuthenticator), &MockConfig{})

	ctx := router.NewMockContext()
	ctx.On("OriginalURL").Return("/api/media").Maybe()

	var body map[string]any
	ctx.On("JSON", http.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1).(map[string]any)
	}).Return(nil)

	err := httpAuth.MakeAPIAuthErrorHandler()(ctx, jwtware.ErrJWTMissingOrMalformed)
	require.NoError(t, err)
	assert.Equal(t, "Unauthorized", body["error"])
	assert.Equal(t, moments.TextCodeTokenMalformed, body["text_code"])
}
