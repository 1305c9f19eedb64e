package moments

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-router"
)

// CodeSender delivers a plain verification code to its recipient
type CodeSender interface {
	SendCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// CodeSenderFunc adapts a function to the CodeSender interface.
type CodeSenderFunc func(ctx context.Context, email, code string, expiresAt time.Time) error

// SendCode implements CodeSender.
func (f CodeSenderFunc) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if f == nil {
		return nil
	}
	return f(ctx, email, code, expiresAt)
}

// LogCodeSender records issued codes in the logger. The code itself is
// only written when reveal is set, which must stay off in production.
func LogCodeSender(logger Logger, reveal bool) CodeSender {
	if logger == nil {
		logger = defLogger{}
	}
	return CodeSenderFunc(func(ctx context.Context, email, code string, expiresAt time.Time) error {
		shown := strings.Repeat("*", len(code))
		if reveal {
			shown = code
		}
		logger.Info("verification code issued", "email", email, "code", shown, "expires_at", expiresAt)
		return nil
	})
}

type outboxEntry struct {
	code      string
	expiresAt time.Time
}

// CodeOutbox keeps the last code sent to each address in memory so it can
// be read back in development and tests.
type CodeOutbox struct {
	mu   sync.RWMutex
	m    map[string]outboxEntry
	nowF func() time.Time
}

// NewCodeOutbox returns an empty outbox
func NewCodeOutbox() *CodeOutbox {
	return &CodeOutbox{
		m:    make(map[string]outboxEntry),
		nowF: time.Now,
	}
}

// SendCode implements CodeSender.
func (o *CodeOutbox) SendCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m[strings.ToLower(email)] = outboxEntry{code: code, expiresAt: expiresAt}
	return nil
}

// Get returns the code for email if present and not expired.
func (o *CodeOutbox) Get(email string) (string, bool) {
	key := strings.ToLower(email)

	o.mu.RLock()
	e, ok := o.m[key]
	o.mu.RUnlock()
	if !ok {
		return "", false
	}

	if !e.expiresAt.After(o.nowF()) {
		o.mu.Lock()
		delete(o.m, key)
		o.mu.Unlock()
		return "", false
	}

	return e.code, true
}

// Handler serves the last code sent to the "email" query parameter as
// JSON. Mount it on development servers only.
func (o *CodeOutbox) Handler(ctx router.Context) error {
	email := strings.TrimSpace(ctx.Query("email", ""))
	if email == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]any{"error": "email is required"})
	}

	code, ok := o.Get(email)
	if !ok {
		return ctx.JSON(http.StatusNotFound, map[string]any{"error": "no code for " + email})
	}

	return ctx.JSON(http.StatusOK, map[string]any{"email": email, "code": code})
}

// MultiCodeSender fans a code out to every sender, stopping at the first error.
func MultiCodeSender(senders ...CodeSender) CodeSender {
	return CodeSenderFunc(func(ctx context.Context, email, code string, expiresAt time.Time) error {
		for _, s := range senders {
			if s == nil {
				continue
			}
			if err := s.SendCode(ctx, email, code, expiresAt); err != nil {
				return err
			}
		}
		return nil
	})
}
