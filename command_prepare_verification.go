package moments

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultCodeTTL is how long an email code stays valid
var DefaultCodeTTL = 10 * time.Minute

type PrepareVerificationMessage struct {
	UserID     uuid.UUID            `json:"user_id"`
	Strategy   VerificationStrategy `json:"strategy"`
	CodeLength int                  `json:"code_length"`
	TTL        time.Duration        `json:"ttl"`
	OnResponse func(r *PrepareVerificationResponse)
}

func (e PrepareVerificationMessage) Type() string { return "sign_up.prepare_verification" }

type PrepareVerificationResponse struct {
	VerificationID uuid.UUID `json:"verification_id"`
	Email          string    `json:"email"`
	CodeLength     int       `json:"code_length"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// PrepareVerificationHandler issues a code and hands it to the CodeSender.
// Only the hash is stored.
type PrepareVerificationHandler struct {
	repo   RepositoryManager
	sender CodeSender
}

func NewPrepareVerificationHandler(repo RepositoryManager, sender CodeSender) *PrepareVerificationHandler {
	if sender == nil {
		sender = LogCodeSender(nil, false)
	}
	return &PrepareVerificationHandler{repo: repo, sender: sender}
}

func (h *PrepareVerificationHandler) Execute(ctx context.Context, event PrepareVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during verification prepare")
	default:
		return h.execute(ctx, event)
	}
}

func (h *PrepareVerificationHandler) execute(ctx context.Context, event PrepareVerificationMessage) error {
	if event.Strategy == "" {
		event.Strategy = StrategyEmailCode
	}

	if event.Strategy != StrategyEmailCode {
		return goerrors.New("unsupported verification strategy", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"strategy": event.Strategy})
	}

	if event.CodeLength <= 0 {
		event.CodeLength = DefaultCodeLength
	}

	if event.TTL <= 0 {
		event.TTL = DefaultCodeTTL
	}

	resp := &PrepareVerificationResponse{CodeLength: event.CodeLength}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID.String())
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user")
		}

		if user.Status != UserStatusPending {
			return goerrors.New("email address already verified", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict)
		}

		code, err := GenerateCode(event.CodeLength)
		if err != nil {
			return err
		}

		record, err := h.repo.EmailVerifications().IssueTx(ctx, tx, &EmailVerification{
			UserID:    user.ID,
			Email:     user.Email,
			Strategy:  event.Strategy,
			CodeHash:  HashCode(code),
			ExpiresAt: time.Now().Add(event.TTL),
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification")
		}

		if err := h.sender.SendCode(ctx, user.Email, code, record.ExpiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send verification code")
		}

		resp.VerificationID = record.ID
		resp.Email = user.Email
		resp.ExpiresAt = record.ExpiresAt
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to prepare verification")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
