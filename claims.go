package moments

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims with role checks
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Email() string
	CanRead() bool
	CanCreate() bool
	CanEdit() bool
	CanDelete() bool
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	UserRole  string `json:"role,omitempty"`
	UserEmail string `json:"email,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the uid claim, falling back to sub
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

func (c *JWTClaims) Role() string {
	return c.UserRole
}

func (c *JWTClaims) Email() string {
	return c.UserEmail
}

func (c *JWTClaims) CanRead() bool {
	return UserRole(c.UserRole).CanRead()
}

func (c *JWTClaims) CanCreate() bool {
	return UserRole(c.UserRole).CanCreate()
}

func (c *JWTClaims) CanEdit() bool {
	return UserRole(c.UserRole).CanEdit()
}

func (c *JWTClaims) CanDelete() bool {
	return UserRole(c.UserRole).CanDelete()
}

func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return UserRole(c.UserRole).IsAtLeast(UserRole(minRole))
}

func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
