package media

import (
	"context"
	"database/sql"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const TextCodeMediaNotFound = "MEDIA_NOT_FOUND"

// ListFilter narrows List results
type ListFilter struct {
	IncludePrivate bool
	Limit          int
	Offset         int
}

const defaultListLimit = 50

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Media, error)
	Get(ctx context.Context, id uuid.UUID) (*Media, error)
	Update(ctx context.Context, params UpdateParams) (*Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*Media, error)
}

type store struct {
	repo repository.Repository[*Media]
	db   *bun.DB
}

var _ Repository = (*store)(nil)

func NewRepository(db *bun.DB) Repository {
	repo := repository.NewRepository[*Media](db, repository.ModelHandlers[*Media]{
		NewRecord: func() *Media { return &Media{} },
		GetID: func(m *Media) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *Media, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &store{repo: repo, db: db}
}

func (s *store) Create(ctx context.Context, params CreateParams) (*Media, error) {
	if err := params.Validate(); err != nil {
		return nil, validationError(err)
	}

	record := params.Record()
	record.prepareDefaults()

	created, err := s.repo.CreateTx(ctx, s.db, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create media").
			WithCode(goerrors.CodeInternal)
	}

	return created, nil
}

func (s *store) Get(ctx context.Context, id uuid.UUID) (*Media, error) {
	record, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(id)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve media").
			WithCode(goerrors.CodeInternal)
	}
	return record, nil
}

// Update writes only the fields set in params
func (s *store) Update(ctx context.Context, params UpdateParams) (*Media, error) {
	if err := params.Validate(); err != nil {
		return nil, validationError(err)
	}

	id := uuid.MustParse(params.ID)
	if params.IsEmpty() {
		return s.Get(ctx, id)
	}

	q := s.db.NewUpdate().
		Model((*Media)(nil)).
		Set("updated_at = ?", time.Now())

	if params.FileName != nil {
		q = q.Set("file_name = ?", *params.FileName)
	}
	if params.OriginalURL != nil {
		q = q.Set("original_url = ?", *params.OriginalURL)
	}
	if params.TransformedURL != nil {
		q = q.Set("transformed_url = ?", *params.TransformedURL)
	}
	if params.Type != nil {
		q = q.Set("type = ?", string(*params.Type))
	}
	if params.TransformationConfig != nil {
		q = q.Set("transformation_config = ?", params.TransformationConfig)
	}
	if params.IsPrivate != nil {
		q = q.Set("is_private = ?", *params.IsPrivate)
	}

	res, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update media").
			WithCode(goerrors.CodeInternal)
	}

	if rowsAffected(res) == 0 {
		return nil, notFound(id)
	}

	return s.Get(ctx, id)
}

func (s *store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.NewDelete().
		Model((*Media)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete media").
			WithCode(goerrors.CodeInternal)
	}

	if rowsAffected(res) == 0 {
		return notFound(id)
	}

	return nil
}

// List returns newest records first
func (s *store) List(ctx context.Context, filter ListFilter) ([]*Media, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	records := make([]*Media, 0)
	q := s.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Limit(limit).
		Offset(max(filter.Offset, 0))

	if !filter.IncludePrivate {
		q = q.Where("is_private = ?", false)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list media").
			WithCode(goerrors.CodeInternal)
	}

	return records, nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func notFound(id uuid.UUID) error {
	return goerrors.New("media not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeMediaNotFound).
		WithMetadata(map[string]any{"id": id.String()})
}

func validationError(err error) error {
	fields := map[string]string{}
	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid media payload").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"validation": fields})
}

// ValidationFields returns the per field messages of a validation error
func ValidationFields(err error) map[string]string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Metadata == nil {
		return nil
	}
	fields, _ := richErr.Metadata["validation"].(map[string]string)
	return fields
}
