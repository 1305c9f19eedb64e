package moments

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EmailVerifications stores hashed email codes
type EmailVerifications interface {
	repository.Repository[*EmailVerification]

	IssueTx(ctx context.Context, tx bun.IDB, record *EmailVerification) (*EmailVerification, error)
	GetPendingTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*EmailVerification, error)
	RecordAttemptTx(ctx context.Context, tx bun.IDB, record *EmailVerification) error
}

type emailVerifications struct {
	repository.Repository[*EmailVerification]
	db *bun.DB
}

func NewEmailVerificationsRepository(db *bun.DB) EmailVerifications {
	handlers := repository.ModelHandlers[*EmailVerification]{
		NewRecord: func() *EmailVerification {
			return &EmailVerification{}
		},
		GetID: func(record *EmailVerification) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *EmailVerification, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}

	return &emailVerifications{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
	}
}

// IssueTx stores a new code and expires any code still pending for the
// same user, only the latest code can be used.
func (r *emailVerifications) IssueTx(ctx context.Context, tx bun.IDB, record *EmailVerification) (*EmailVerification, error) {
	_, err := tx.NewUpdate().
		Model((*EmailVerification)(nil)).
		Set("status = ?", VerificationExpired).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", record.UserID).
		Where("status = ?", VerificationUnverified).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Status == "" {
		record.Status = VerificationUnverified
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (r *emailVerifications) GetPendingTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*EmailVerification, error) {
	record := &EmailVerification{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}
	return record, nil
}

// RecordAttemptTx persists attempts, status and verified_at.
func (r *emailVerifications) RecordAttemptTx(ctx context.Context, tx bun.IDB, record *EmailVerification) error {
	_, err := tx.NewUpdate().
		Model((*EmailVerification)(nil)).
		Set("attempts = ?", record.Attempts).
		Set("status = ?", record.Status).
		Set("verified_at = ?", record.VerifiedAt).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", record.ID).
		Exec(ctx)
	return err
}
