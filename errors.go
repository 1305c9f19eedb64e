package moments

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts     = "TOO_MANY_ATTEMPTS"
	TextCodeSessionNotFound     = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeError  = "SESSION_DECODE_ERROR"
	TextCodeDataParseError      = "DATA_PARSE_ERROR"
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeAccountPending      = "ACCOUNT_PENDING"
	TextCodeAccountDisabled     = "ACCOUNT_DISABLED"
	TextCodeEmailTaken          = "EMAIL_TAKEN"
	TextCodeInvalidCode         = "INVALID_VERIFICATION_CODE"
	TextCodeVerificationMissing = "VERIFICATION_NOT_FOUND"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned for any credential mismatch
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrTooManyLoginAttempts is returned while the user is in a cool down period
var ErrTooManyLoginAttempts = errors.New("too many login attempts, try again later", errors.CategoryAuth).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeTooManyAttempts)

// ErrUnableToFindSession is the error when our reequest has no cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionNotFound)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionDecodeError)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeDataParseError)

// ErrNoEmptyString password can not be empty
var ErrNoEmptyString = errors.New("password can not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

var ErrAccountPending = errors.New("email address has not been verified", errors.CategoryAuth).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeAccountPending)

var ErrAccountDisabled = errors.New("account is disabled", errors.CategoryAuth).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeAccountDisabled)

var ErrEmailTaken = errors.New("that email address is taken, please try another", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeEmailTaken)

var ErrInvalidVerificationCode = errors.New("incorrect code", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeInvalidCode)

var ErrVerificationNotFound = errors.New("no pending verification, sign up again", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeVerificationMissing)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
