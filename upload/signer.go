package upload

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	// DefaultTTL is how long upload params stay valid
	DefaultTTL = 30 * time.Minute
	// MaxTTL the CDN rejects expire values further out than this
	MaxTTL = time.Hour
)

// ErrMissingPrivateKey is returned when the signer has no key configured
var ErrMissingPrivateKey = errors.New("upload private key is not configured", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode("UPLOAD_KEY_MISSING")

// Params are the values a client needs to upload straight to the CDN
type Params struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

type Signer struct {
	privateKey string
	publicKey  string
	ttl        time.Duration
	now        func() time.Time
	token      func() (string, error)
}

type Option func(*Signer)

// WithTTL sets the validity window, values outside (0, MaxTTL) are ignored
func WithTTL(ttl time.Duration) Option {
	return func(s *Signer) {
		if ttl > 0 && ttl < MaxTTL {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenGenerator replaces the UUIDv4 token source
func WithTokenGenerator(fn func() (string, error)) Option {
	return func(s *Signer) {
		if fn != nil {
			s.token = fn
		}
	}
}

func NewSigner(privateKey, publicKey string, opts ...Option) *Signer {
	s := &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		ttl:        DefaultTTL,
		now:        time.Now,
		token:      newToken,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Signer) PublicKey() string {
	return s.publicKey
}

// AuthParams mints a fresh token, expiry and signature
func (s *Signer) AuthParams() (Params, error) {
	if s.privateKey == "" {
		return Params{}, ErrMissingPrivateKey
	}

	token, err := s.token()
	if err != nil {
		return Params{}, errors.Wrap(err, errors.CategoryInternal, "failed to generate upload token")
	}

	expire := s.now().Add(s.ttl).Unix()

	return Params{
		Token:     token,
		Expire:    expire,
		Signature: Sign(s.privateKey, token, expire),
		PublicKey: s.publicKey,
	}, nil
}

// Sign returns hex(HMAC-SHA1(privateKey, token + expire))
func Sign(privateKey, token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func newToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
