package moments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Users interface {
	repository.Repository[*User]

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx creates a pending account. Emails are unique: a second
// registration for an address still pending verification replaces the
// password hash on the existing row, any other status returns ErrEmailTaken.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	existing := new(User)
	err := tx.NewSelect().
		Model(existing).
		Where("?TableAlias.email = ?", user.Email).
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil:
		return a.reRegisterTx(ctx, tx, existing, user)
	case !errors.Is(err, sql.ErrNoRows) && !repository.IsRecordNotFound(err):
		return nil, err
	}

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, err
	}

	return user, nil
}

func (a *users) reRegisterTx(ctx context.Context, tx bun.IDB, existing, user *User) (*User, error) {
	existing.EnsureStatus()
	if existing.Status != UserStatusPending {
		return nil, ErrEmailTaken
	}

	now := time.Now()
	existing.PasswordHash = user.PasswordHash
	existing.LoginAttempts = 0
	existing.UpdatedAt = &now

	_, err := tx.NewUpdate().
		Model(existing).
		Column("password_hash", "login_attempts", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return existing, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

// ActivateTx marks the user's email as verified and moves the account to
// active, provided its current status allows it.
func (a *users) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	current := new(User)
	err := tx.NewSelect().
		Model(current).
		Column("id", "status").
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return err
	}

	if err := ValidateTransition(current.Status, UserStatusActive); err != nil {
		return err
	}

	now := time.Now()
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("status = ?", UserStatusActive).
		Set("is_email_verified = ?", true).
		Set("verified_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("loggedin_at = ?", time.Now()).
		Set("login_attempt_at = NULL").
		Set("login_attempts = 0").
		Where("id = ?", user.ID).
		Exec(ctx)

	return err
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, user)
}

func (a *users) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	_, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("login_attempts = ?", user.LoginAttempts+1).
		Set("login_attempt_at = ?", time.Now()).
		Where("id = ?", user.ID).
		Exec(ctx)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	record.EnsureStatus()
	record.Email = strings.ToLower(strings.TrimSpace(record.Email))

	if record.Username == "" {
		record.Username = getUsername(record.Email)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func getUsername(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i] + "-" + uuid.NewString()[:8]
	}
	return email
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  strings.ToLower(trimmed),
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
