// Package csrf guards the HTML forms (sign in, sign up, verify) and the code
// input endpoint with signed, stateless tokens.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

var (
	ErrTokenMismatch    = errors.New("CSRF token mismatch")
	ErrTokenMissing     = errors.New("CSRF token missing")
	ErrTokenExpired     = errors.New("CSRF token expired")
	ErrSecureKeyMissing = errors.New("CSRF secure key required")
)

const (
	// DefaultContextKey is the locals key the token is stored under
	DefaultContextKey = "csrf_token"
	// DefaultFormFieldName is the hidden field posted by forms
	DefaultFormFieldName = "_token"
	// DefaultHeaderName is read for fetch requests
	DefaultHeaderName = "X-CSRF-Token"
	// MinKeyLength for SecureKey
	MinKeyLength = 32

	nonceLength = 16
)

// Config defines the configuration for CSRF middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	ContextKey    string
	FormFieldName string
	HeaderName    string

	// SessionKey binds a token to the requester. Defaults to the client IP.
	SessionKey func(router.Context) string

	// SafeMethods are not validated, a fresh token is issued instead
	SafeMethods []string

	// Expiration of issued tokens, zero means 12h
	Expiration time.Duration

	// SecureKey signs tokens, at least MinKeyLength bytes. A random key is
	// generated when empty, tokens then do not survive a restart.
	SecureKey []byte

	ErrorHandler router.ErrorHandler
}

// New creates a new CSRF middleware
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			method := strings.ToUpper(ctx.Method())
			if !slices.Contains(cfg.SafeMethods, method) {
				if err := validate(ctx, cfg); err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
			}

			token, err := issue(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(cfg.ContextKey+"_field", cfg.FormFieldName)
			ctx.Locals(cfg.ContextKey+"_header", cfg.HeaderName)

			return ctx.Next()
		}
	}
}

// token layout: base64(unix:nonce:hex(hmac(unix:nonce:session)))
func issue(ctx router.Context, cfg Config) (string, error) {
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%d:%s", time.Now().UTC().Unix(), hex.EncodeToString(nonce))
	signature := sign(cfg.SecureKey, payload, cfg.SessionKey(ctx))

	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + signature)), nil
}

func validate(ctx router.Context, cfg Config) error {
	received := extract(ctx, cfg)
	if received == "" {
		return ErrTokenMissing
	}

	decoded, err := base64.RawURLEncoding.DecodeString(received)
	if err != nil {
		return ErrTokenMismatch
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 3 {
		return ErrTokenMismatch
	}

	timestamp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}

	expected := sign(cfg.SecureKey, parts[0]+":"+parts[1], cfg.SessionKey(ctx))
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return ErrTokenMismatch
	}

	if time.Now().UTC().After(time.Unix(timestamp, 0).Add(cfg.Expiration)) {
		return ErrTokenExpired
	}

	return nil
}

func sign(key []byte, payload, session string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload + ":" + session))
	return hex.EncodeToString(mac.Sum(nil))
}

func extract(ctx router.Context, cfg Config) string {
	if token := ctx.FormValue(cfg.FormFieldName); token != "" {
		return token
	}
	return ctx.GetString(cfg.HeaderName, "")
}

func sessionFromIP(ctx router.Context) string {
	return ctx.IP()
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.SessionKey == nil {
		cfg.SessionKey = sessionFromIP
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS", "TRACE"}
	}

	if cfg.Expiration <= 0 {
		cfg.Expiration = 12 * time.Hour
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	cfg.SecureKey = initializeSecureKey(cfg.SecureKey)

	return cfg
}

func defaultErrorHandler(ctx router.Context, err error) error {
	switch err {
	case ErrTokenMissing:
		return ctx.Status(router.StatusBadRequest).SendString("CSRF token missing")
	case ErrTokenMismatch:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token mismatch")
	case ErrTokenExpired:
		return ctx.Status(router.StatusForbidden).SendString("CSRF token expired, reload the page")
	default:
		return ctx.Status(router.StatusInternalServerError).SendString("CSRF validation error")
	}
}

func initializeSecureKey(current []byte) []byte {
	if len(current) > 0 {
		if len(current) < MinKeyLength {
			panic(fmt.Errorf("csrf: secure key must be at least %d bytes, got %d", MinKeyLength, len(current)))
		}
		return current
	}
	key := make([]byte, MinKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		panic(fmt.Errorf("csrf: unable to initialize secure key: %w", err))
	}
	return key
}

// TemplateData returns the view values for the token the middleware stored
// under tokenKey: csrf_token, csrf_field, csrf_meta and csrf_header_name.
// It returns nil when the request went through no CSRF middleware.
func TemplateData(ctx router.Context, tokenKey string) map[string]any {
	if tokenKey == "" {
		tokenKey = DefaultContextKey
	}

	token, _ := ctx.Locals(tokenKey).(string)
	if token == "" {
		return nil
	}

	fieldName, _ := ctx.Locals(tokenKey + "_field").(string)
	if fieldName == "" {
		fieldName = DefaultFormFieldName
	}

	headerName, _ := ctx.Locals(tokenKey + "_header").(string)
	if headerName == "" {
		headerName = DefaultHeaderName
	}

	escaped := html.EscapeString(token)
	return map[string]any{
		"csrf_token":       token,
		"csrf_field":       `<input type="hidden" name="` + html.EscapeString(fieldName) + `" value="` + escaped + `">`,
		"csrf_meta":        `<meta name="csrf-token" content="` + escaped + `">`,
		"csrf_header_name": headerName,
	}
}
