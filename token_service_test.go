package moments_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	moments "github.com/momentkit/go-moments"
)

var (
	testSigningKey = []byte("test-signing-key")
	testAudience   = jwt.ClaimStrings{"test:audience"}
)

func newTestTokenService() moments.TokenService {
	return moments.NewTokenService(testSigningKey, 24*time.Hour, "test-issuer", testAudience, nopLogger{})
}

func TestTokenService_Generate(t *testing.T) {
	service := newTestTokenService()
	identity := TestIdentity{id: "user-123", username: "jane", email: "jane@example.com", role: "member"}

	before := time.Now()
	tokenString, err := service.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.ParseWithClaims(tokenString, &moments.JWTClaims{}, func(*jwt.Token) (any, error) {
		return testSigningKey, nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(*moments.JWTClaims)
	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "member", claims.Role())
	assert.Equal(t, "jane@example.com", claims.Email())
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, testAudience, claims.Audience)
	assert.NotEmpty(t, claims.ID)

	expected := before.Add(24 * time.Hour)
	assert.WithinDuration(t, expected, claims.Expires(), 2*time.Second)
}

func TestTokenService_GenerateUniqueIDs(t *testing.T) {
	service := newTestTokenService()
	identity := TestIdentity{id: "user-123", role: "member"}

	first, err := service.Generate(identity)
	require.NoError(t, err)
	second, err := service.Generate(identity)
	require.NoError(t, err)

	a, err := service.Validate(first)
	require.NoError(t, err)
	b, err := service.Validate(second)
	require.NoError(t, err)

	assert.NotEqual(t, a.(*moments.JWTClaims).ID, b.(*moments.JWTClaims).ID)
}

func TestTokenService_Validate(t *testing.T) {
	service := newTestTokenService()

	sign := func(t *testing.T, claims *moments.JWTClaims, key []byte, method jwt.SigningMethod) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	base := func() *moments.JWTClaims {
		now := time.Now()
		return &moments.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-123",
				Issuer:    "test-issuer",
				Audience:  testAudience,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UserRole: "admin",
		}
	}

	t.Run("round trip", func(t *testing.T) {
		claims, err := service.Validate(sign(t, base(), testSigningKey, jwt.SigningMethodHS256))
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, "admin", claims.Role())
	})

	t.Run("expired", func(t *testing.T) {
		c := base()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

		claims, err := service.Validate(sign(t, c, testSigningKey, jwt.SigningMethodHS256))
		assert.Nil(t, claims)
		assert.True(t, moments.IsTokenExpiredError(err))
	})

	t.Run("wrong key", func(t *testing.T) {
		claims, err := service.Validate(sign(t, base(), []byte("other-key"), jwt.SigningMethodHS256))
		assert.Nil(t, claims)
		assert.True(t, moments.IsMalformedError(err))
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		c := base()
		c.Issuer = "intruder"

		_, err := service.Validate(sign(t, c, testSigningKey, jwt.SigningMethodHS256))
		assert.True(t, moments.IsMalformedError(err))
	})

	t.Run("audience mismatch", func(t *testing.T) {
		c := base()
		c.Audience = jwt.ClaimStrings{"other:audience"}

		_, err := service.Validate(sign(t, c, testSigningKey, jwt.SigningMethodHS256))
		assert.True(t, moments.IsMalformedError(err))
	})

	t.Run("other hmac algorithm", func(t *testing.T) {
		_, err := service.Validate(sign(t, base(), testSigningKey, jwt.SigningMethodHS512))
		assert.True(t, moments.IsMalformedError(err))
	})

	t.Run("missing expiration", func(t *testing.T) {
		c := base()
		c.ExpiresAt = nil

		_, err := service.Validate(sign(t, c, testSigningKey, jwt.SigningMethodHS256))
		assert.True(t, moments.IsMalformedError(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		assert.True(t, moments.IsMalformedError(err))
	})
}

func TestTokenService_SignClaimsNil(t *testing.T) {
	_, err := newTestTokenService().SignClaims(nil)
	assert.Error(t, err)
}
