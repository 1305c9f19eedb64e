package moments

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SignUpCreateMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(r *SignUpCreateResponse)
}

func (e SignUpCreateMessage) Type() string { return "sign_up.create" }

type SignUpCreateResponse struct {
	UserID uuid.UUID    `json:"user_id"`
	Email  string       `json:"email"`
	Status SignUpStatus `json:"status"`
}

// SignUpCreateHandler registers a pending account
type SignUpCreateHandler struct {
	repo RepositoryManager
}

func NewSignUpCreateHandler(repo RepositoryManager) *SignUpCreateHandler {
	return &SignUpCreateHandler{repo: repo}
}

func (h *SignUpCreateHandler) Execute(ctx context.Context, event SignUpCreateMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign up",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignUpCreateHandler) execute(ctx context.Context, event SignUpCreateMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Status = UserStatusPending
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "sign up transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignUpCreateResponse{
			UserID: user.ID,
			Email:  user.Email,
			Status: SignUpMissingRequirements,
		})
	}

	return nil
}
