package moments_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	moments "github.com/momentkit/go-moments"
)

// MockIdentityProvider implements moments.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (moments.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(moments.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (moments.Identity, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(moments.Identity), args.Error(1)
}

// MockConfig implements moments.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string    { return m.stringOr("GetSigningKey", "") }
func (m *MockConfig) GetSigningMethod() string { return m.stringOr("GetSigningMethod", "HS256") }
func (m *MockConfig) GetContextKey() string    { return m.stringOr("GetContextKey", "user") }
func (m *MockConfig) GetTokenLookup() string   { return m.stringOr("GetTokenLookup", "cookie:user") }
func (m *MockConfig) GetAuthScheme() string    { return m.stringOr("GetAuthScheme", "Bearer") }
func (m *MockConfig) GetIssuer() string        { return m.stringOr("GetIssuer", "") }
func (m *MockConfig) GetRejectedRouteKey() string {
	return m.stringOr("GetRejectedRouteKey", "rejected_route")
}
func (m *MockConfig) GetRejectedRouteDefault() string {
	return m.stringOr("GetRejectedRouteDefault", "/")
}

func (m *MockConfig) GetTokenExpiration() int {
	if !m.has("GetTokenExpiration") {
		return 24
	}
	return m.Called().Int(0)
}

func (m *MockConfig) GetExtendedTokenDuration() int {
	if !m.has("GetExtendedTokenDuration") {
		return 0
	}
	return m.Called().Int(0)
}

func (m *MockConfig) GetAudience() []string {
	if !m.has("GetAudience") {
		return nil
	}
	return m.Called().Get(0).([]string)
}

func (m *MockConfig) has(method string) bool {
	for _, call := range m.ExpectedCalls {
		if call.Method == method {
			return true
		}
	}
	return false
}

func (m *MockConfig) stringOr(method, def string) string {
	if !m.has(method) {
		return def
	}
	return m.MethodCalled(method).String(0)
}

func newMockConfig() *MockConfig {
	mockConfig := new(MockConfig)
	mockConfig.On("GetSigningKey").Return("test-signing-key")
	mockConfig.On("GetTokenExpiration").Return(24)
	mockConfig.On("GetIssuer").Return("test-issuer")
	mockConfig.On("GetAudience").Return([]string{"test:audience"})
	return mockConfig
}

// MockLoginPayload implements moments.LoginPayload
type MockLoginPayload struct {
	Identifier      string
	Password        string
	ExtendedSession bool
}

func (m MockLoginPayload) GetIdentifier() string    { return m.Identifier }
func (m MockLoginPayload) GetPassword() string      { return m.Password }
func (m MockLoginPayload) GetExtendedSession() bool { return m.ExtendedSession }

// MockAuthenticator implements moments.Authenticator
type MockAuthenticator struct {
	mock.Mock
	Validator moments.TokenValidator
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) IssueSession(ctx context.Context, identifier string) (string, error) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (moments.Session, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(moments.Session), args.Error(1)
}

func (m *MockAuthenticator) IdentityFromSession(ctx context.Context, session moments.Session) (moments.Identity, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(moments.Identity), args.Error(1)
}

func (m *MockAuthenticator) TokenValidator() moments.TokenValidator {
	return m.Validator
}

// TestIdentity is a simple implementation of Identity for tests
type TestIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }
func (t TestIdentity) Role() string     { return t.role }

type recordingSink struct {
	events []moments.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event moments.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []moments.ActivityEventType {
	out := make([]moments.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
