package moments_test

import (
	"errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	moments "github.com/momentkit/go-moments"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"structured", moments.ErrTokenExpired, true},
		{"string match", errors.New("some wrapper: token is expired"), true},
		{"different structured error", moments.ErrIdentityNotFound, false},
		{"different error", errors.New("invalid token"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, moments.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"structured", moments.ErrTokenMalformed, true},
		{"token is malformed", errors.New("token is malformed: bad segment"), true},
		{"missing jwt", errors.New("missing or malformed JWT"), true},
		{"expired", moments.ErrTokenExpired, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, moments.IsMalformedError(tt.err))
		})
	}
}

func TestDomainErrorProperties(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		code     int
		textCode string
	}{
		{"invalid credentials", moments.ErrMismatchedHashAndPassword, goerrors.CategoryAuth, http.StatusUnauthorized, moments.TextCodeInvalidCreds},
		{"too many attempts", moments.ErrTooManyLoginAttempts, goerrors.CategoryAuth, http.StatusForbidden, moments.TextCodeTooManyAttempts},
		{"email taken", moments.ErrEmailTaken, goerrors.CategoryConflict, http.StatusConflict, moments.TextCodeEmailTaken},
		{"invalid code", moments.ErrInvalidVerificationCode, goerrors.CategoryValidation, http.StatusBadRequest, moments.TextCodeInvalidCode},
		{"verification missing", moments.ErrVerificationNotFound, goerrors.CategoryNotFound, http.StatusNotFound, moments.TextCodeVerificationMissing},
		{"pending", moments.ErrAccountPending, goerrors.CategoryAuth, http.StatusForbidden, moments.TextCodeAccountPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}
