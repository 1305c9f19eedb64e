// Package config loads the server configuration from the environment and an
// optional .env file.
package config

import (
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/spf13/viper"

	moments "github.com/momentkit/go-moments"
)

// Config holds every setting the server binary needs.
type Config struct {
	// ServerAddr is the address the HTTP server listens on (e.g. :3000).
	ServerAddr string `mapstructure:"SERVER_ADDR"`
	// Env is the application environment ("development", "production").
	Env string `mapstructure:"APP_ENV"`

	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DatabasePingTimeout bounds the startup ping (e.g. "5s").
	DatabasePingTimeout string `mapstructure:"DATABASE_PING_TIMEOUT"`
	// AutoMigrate runs the embedded migrations on startup.
	AutoMigrate bool `mapstructure:"AUTO_MIGRATE"`

	SigningKey            string `mapstructure:"AUTH_SIGNING_KEY"`
	SigningMethod         string `mapstructure:"AUTH_SIGNING_METHOD"`
	ContextKey            string `mapstructure:"AUTH_CONTEXT_KEY"`
	TokenExpiration       int    `mapstructure:"AUTH_TOKEN_EXPIRATION"`
	ExtendedTokenDuration int    `mapstructure:"AUTH_EXTENDED_TOKEN_DURATION"`
	TokenLookup           string `mapstructure:"AUTH_TOKEN_LOOKUP"`
	AuthScheme            string `mapstructure:"AUTH_SCHEME"`
	Issuer                string `mapstructure:"AUTH_ISSUER"`
	// Audience is a comma separated list.
	Audience             string `mapstructure:"AUTH_AUDIENCE"`
	RejectedRouteKey     string `mapstructure:"AUTH_REJECTED_ROUTE_KEY"`
	RejectedRouteDefault string `mapstructure:"AUTH_REJECTED_ROUTE_DEFAULT"`
	// JWKSURL enables validation of tokens issued by an external identity provider.
	JWKSURL string `mapstructure:"AUTH_JWKS_URL"`
	// HashidUserIDs derives user IDs from the email address.
	HashidUserIDs bool `mapstructure:"AUTH_HASHID_USER_IDS"`

	BcryptCost       int    `mapstructure:"BCRYPT_COST"`
	MaxLoginAttempts int    `mapstructure:"MAX_LOGIN_ATTEMPTS"`
	CoolDownPeriod   string `mapstructure:"LOGIN_COOL_DOWN"`

	CodeLength int    `mapstructure:"VERIFICATION_CODE_LENGTH"`
	CodeTTL    string `mapstructure:"VERIFICATION_CODE_TTL"`
	// DevCodeOutbox keeps issued codes in memory and logs them. Not allowed in production.
	DevCodeOutbox bool `mapstructure:"DEV_CODE_OUTBOX"`

	// CSRFSecret signs form tokens, a random per process key is used when empty
	CSRFSecret     string `mapstructure:"CSRF_SECRET"`
	CSRFExpiration string `mapstructure:"CSRF_EXPIRATION"`

	UploadPrivateKey  string `mapstructure:"UPLOAD_PRIVATE_KEY"`
	UploadPublicKey   string `mapstructure:"UPLOAD_PUBLIC_KEY"`
	UploadURLEndpoint string `mapstructure:"UPLOAD_URL_ENDPOINT"`
	UploadFolder      string `mapstructure:"UPLOAD_FOLDER"`
}

var _ moments.Config = (*Config)(nil)

var defaults = map[string]any{
	"SERVER_ADDR":                  ":3000",
	"APP_ENV":                      "development",
	"DATABASE_URL":                 "",
	"DATABASE_PING_TIMEOUT":        "5s",
	"AUTO_MIGRATE":                 true,
	"AUTH_SIGNING_KEY":             "",
	"AUTH_SIGNING_METHOD":          "HS256",
	"AUTH_CONTEXT_KEY":             "moments_session",
	"AUTH_TOKEN_EXPIRATION":        24,
	"AUTH_EXTENDED_TOKEN_DURATION": 720,
	"AUTH_TOKEN_LOOKUP":            "header:Authorization,cookie:moments_session",
	"AUTH_SCHEME":                  "Bearer",
	"AUTH_ISSUER":                  "moments",
	"AUTH_AUDIENCE":                "moments:web",
	"AUTH_REJECTED_ROUTE_KEY":      "moments_rejected_route",
	"AUTH_REJECTED_ROUTE_DEFAULT":  moments.Home,
	"AUTH_JWKS_URL":                "",
	"AUTH_HASHID_USER_IDS":         false,
	"BCRYPT_COST":                  12,
	"MAX_LOGIN_ATTEMPTS":           5,
	"LOGIN_COOL_DOWN":              "24h",
	"VERIFICATION_CODE_LENGTH":     6,
	"VERIFICATION_CODE_TTL":        "15m",
	"DEV_CODE_OUTBOX":              false,
	"CSRF_SECRET":                  "",
	"CSRF_EXPIRATION":              "12h",
	"UPLOAD_PRIVATE_KEY":           "",
	"UPLOAD_PUBLIC_KEY":            "",
	"UPLOAD_URL_ENDPOINT":          "",
	"UPLOAD_FOLDER":                "/moments",
}

// Load reads .env (if present) and the environment. Env vars override .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path, a missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "config: unable to decode settings")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	fields := map[string]any{}

	if c.ServerAddr == "" {
		fields["SERVER_ADDR"] = "must be set"
	}
	if c.DatabaseURL == "" {
		fields["DATABASE_URL"] = "must be set"
	}
	if c.SigningKey == "" {
		fields["AUTH_SIGNING_KEY"] = "must be set"
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		fields["BCRYPT_COST"] = "must be between 4 and 31"
	}
	if c.CodeLength < 4 || c.CodeLength > 10 {
		fields["VERIFICATION_CODE_LENGTH"] = "must be between 4 and 10"
	}
	if _, err := time.ParseDuration(c.CodeTTL); err != nil {
		fields["VERIFICATION_CODE_TTL"] = "must be a duration"
	}
	if _, err := time.ParseDuration(c.CoolDownPeriod); err != nil {
		fields["LOGIN_COOL_DOWN"] = "must be a duration"
	}
	if c.CSRFSecret != "" && len(c.CSRFSecret) < 32 {
		fields["CSRF_SECRET"] = "must be at least 32 characters"
	}
	if _, err := time.ParseDuration(c.CSRFExpiration); err != nil {
		fields["CSRF_EXPIRATION"] = "must be a duration"
	}
	if c.DevCodeOutbox && c.IsProduction() {
		fields["DEV_CODE_OUTBOX"] = "must not be enabled when APP_ENV=production"
	}

	if len(fields) == 0 {
		return nil
	}

	return errors.New("config: invalid settings", errors.CategoryValidation).
		WithTextCode("CONFIG_INVALID").
		WithMetadata(fields)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// GetCodeTTL returns the verification code lifetime, 15m when unparsable.
func (c *Config) GetCodeTTL() time.Duration {
	return parseDuration(c.CodeTTL, 15*time.Minute)
}

// GetCSRFExpiration returns the form token lifetime, 12h when unparsable.
func (c *Config) GetCSRFExpiration() time.Duration {
	return parseDuration(c.CSRFExpiration, 12*time.Hour)
}

// GetPingTimeout returns the database ping timeout, 5s when unparsable.
func (c *Config) GetPingTimeout() time.Duration {
	return parseDuration(c.DatabasePingTimeout, 5*time.Second)
}

func (c *Config) UploadEnabled() bool {
	return c.UploadPrivateKey != "" && c.UploadPublicKey != ""
}

func (c *Config) GetSigningKey() string           { return c.SigningKey }
func (c *Config) GetSigningMethod() string        { return c.SigningMethod }
func (c *Config) GetContextKey() string           { return c.ContextKey }
func (c *Config) GetTokenExpiration() int         { return c.TokenExpiration }
func (c *Config) GetExtendedTokenDuration() int   { return c.ExtendedTokenDuration }
func (c *Config) GetTokenLookup() string          { return c.TokenLookup }
func (c *Config) GetAuthScheme() string           { return c.AuthScheme }
func (c *Config) GetIssuer() string               { return c.Issuer }
func (c *Config) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c *Config) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }

func (c *Config) GetAudience() []string {
	out := []string{}
	for _, part := range strings.Split(c.Audience, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(expr string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(expr)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
