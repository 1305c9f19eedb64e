package moments

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService signs and validates session tokens
type TokenService interface {
	TokenValidator
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
}

// sessionTokens issues HS256 session cookies for signed in users. Every
// token carries a jti and must name the configured issuer and audience.
type sessionTokens struct {
	key      []byte
	ttl      time.Duration
	issuer   string
	audience jwt.ClaimStrings
	parser   *jwt.Parser
	logger   Logger
}

// NewTokenService returns a TokenService signing with key. Tokens expire
// after ttl.
func NewTokenService(key []byte, ttl time.Duration, issuer string, audience []string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if len(audience) > 0 {
		opts = append(opts, jwt.WithAudience(audience...))
	}

	return &sessionTokens{
		key:      key,
		ttl:      ttl,
		issuer:   issuer,
		audience: audience,
		parser:   jwt.NewParser(opts...),
		logger:   logger,
	}
}

// Generate creates a session token for identity
func (ts *sessionTokens) Generate(identity Identity) (string, error) {
	now := time.Now()
	return ts.SignClaims(&JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		UID:       identity.ID(),
		UserRole:  identity.Role(),
		UserEmail: identity.Email(),
	})
}

// SignClaims signs claims with the session key.
func (ts *sessionTokens) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}
	return signed, nil
}

// Validate parses a session token. Expired tokens return ErrTokenExpired,
// anything else that fails returns a malformed token error.
func (ts *sessionTokens) Validate(raw string) (AuthClaims, error) {
	claims := &JWTClaims{}
	_, err := ts.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return ts.key, nil
	})

	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		ts.logger.Debug("session token rejected", "error", err)
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(ErrTokenMalformed.TextCode)
	}
}
