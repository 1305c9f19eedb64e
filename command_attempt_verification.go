package moments

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MaxVerificationAttempts wrong codes before the verification fails
var MaxVerificationAttempts = 5

type AttemptVerificationMessage struct {
	VerificationID uuid.UUID `json:"verification_id"`
	Code           string    `json:"code"`
	OnResponse     func(r *AttemptVerificationResponse)
}

func (e AttemptVerificationMessage) Type() string { return "sign_up.attempt_verification" }

type AttemptVerificationResponse struct {
	Status             SignUpStatus       `json:"status"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	UserID             uuid.UUID          `json:"user_id"`
	Email              string             `json:"email"`
	AttemptsLeft       int                `json:"attempts_left"`
}

// AttemptVerificationHandler checks a code and activates the account
type AttemptVerificationHandler struct {
	repo RepositoryManager
}

func NewAttemptVerificationHandler(repo RepositoryManager) *AttemptVerificationHandler {
	return &AttemptVerificationHandler{repo: repo}
}

func (h *AttemptVerificationHandler) Execute(ctx context.Context, event AttemptVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during verification attempt")
	default:
		return h.execute(ctx, event)
	}
}

func (h *AttemptVerificationHandler) execute(ctx context.Context, event AttemptVerificationMessage) error {
	resp := &AttemptVerificationResponse{Status: SignUpMissingRequirements}
	mismatch := false

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.EmailVerifications().GetPendingTx(ctx, tx, event.VerificationID)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrVerificationNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve verification")
		}

		resp.UserID = record.UserID
		resp.Email = record.Email
		resp.VerificationStatus = record.Status

		switch record.Status {
		case VerificationVerified:
			// a used verification never issues a second session
			return ErrVerificationNotFound
		case VerificationExpired, VerificationFailed:
			resp.Status = SignUpAbandoned
			return nil
		}

		now := time.Now()
		if record.IsExpired(now) {
			record.Status = VerificationExpired
			resp.Status = SignUpAbandoned
			resp.VerificationStatus = record.Status
			return h.repo.EmailVerifications().RecordAttemptTx(ctx, tx, record)
		}

		if !CodeEqual(event.Code, record.CodeHash) {
			record.Attempts++
			if record.Attempts >= MaxVerificationAttempts {
				record.Status = VerificationFailed
				resp.Status = SignUpAbandoned
			} else {
				mismatch = true
			}
			resp.VerificationStatus = record.Status
			resp.AttemptsLeft = max(MaxVerificationAttempts-record.Attempts, 0)
			return h.repo.EmailVerifications().RecordAttemptTx(ctx, tx, record)
		}

		record.Status = VerificationVerified
		record.VerifiedAt = &now
		if err := h.repo.EmailVerifications().RecordAttemptTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update verification")
		}

		if err := h.repo.Users().ActivateTx(ctx, tx, record.UserID); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate user")
		}

		resp.Status = SignUpComplete
		resp.VerificationStatus = record.Status
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute verification attempt")
	}

	if mismatch {
		return goerrors.New(ErrInvalidVerificationCode.Message, goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeInvalidCode).
			WithMetadata(map[string]any{"attempts_left": resp.AttemptsLeft})
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
