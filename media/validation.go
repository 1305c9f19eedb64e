package media

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

const (
	msgFileNameRequired   = "File name is required."
	msgFileNameTooLong    = "File name cannot exceed 255 characters."
	msgFileNameInvalid    = "File name contains invalid characters."
	msgOriginalURL        = "Please provide a valid original URL."
	msgTransformedURL     = "Please provide a valid transformed URL."
	msgMediaType          = "Media type must be image or video."
	msgMediaID            = "Please provide a valid media ID."
	maxFileNameRuneLength = 255
)

var fileNamePattern = regexp.MustCompile(`^[^<>:"/\\|?*]+$`)

// CreateParams is the payload for a new media record
type CreateParams struct {
	FileName             string               `json:"fileName" form:"file_name"`
	OriginalURL          string               `json:"originalUrl" form:"original_url"`
	TransformedURL       string               `json:"transformedUrl,omitempty" form:"transformed_url"`
	Type                 Type                 `json:"mediaType,omitempty" form:"media_type"`
	TransformationConfig TransformationConfig `json:"transformationConfig,omitempty"`
	IsPrivate            bool                 `json:"isPrivate" form:"is_private"`
}

func (p CreateParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FileName, fileNameRules(validation.Required.Error(msgFileNameRequired))...),
		validation.Field(&p.OriginalURL,
			validation.Required.Error(msgOriginalURL),
			is.RequestURL.Error(msgOriginalURL),
		),
		validation.Field(&p.TransformedURL, is.RequestURL.Error(msgTransformedURL)),
		validation.Field(&p.Type, validation.In(TypeImage, TypeVideo).Error(msgMediaType)),
	)
}

// Record builds the model, is_private defaults to false
func (p CreateParams) Record() *Media {
	return &Media{
		FileName:             p.FileName,
		OriginalURL:          p.OriginalURL,
		TransformedURL:       p.TransformedURL,
		Type:                 p.Type,
		TransformationConfig: p.TransformationConfig,
		IsPrivate:            p.IsPrivate,
	}
}

// UpdateParams changes the fields that are set
type UpdateParams struct {
	ID                   string               `json:"id"`
	FileName             *string              `json:"fileName,omitempty"`
	OriginalURL          *string              `json:"originalUrl,omitempty"`
	TransformedURL       *string              `json:"transformedUrl,omitempty"`
	Type                 *Type                `json:"mediaType,omitempty"`
	TransformationConfig TransformationConfig `json:"transformationConfig,omitempty"`
	IsPrivate            *bool                `json:"isPrivate,omitempty"`
}

func (p UpdateParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required.Error(msgMediaID), is.UUID.Error(msgMediaID)),
		validation.Field(&p.FileName, fileNameRules(validation.NilOrNotEmpty.Error(msgFileNameRequired))...),
		validation.Field(&p.OriginalURL,
			validation.NilOrNotEmpty.Error(msgOriginalURL),
			is.RequestURL.Error(msgOriginalURL),
		),
		validation.Field(&p.TransformedURL, is.RequestURL.Error(msgTransformedURL)),
		validation.Field(&p.Type, validation.In(TypeImage, TypeVideo).Error(msgMediaType)),
	)
}

// IsEmpty reports whether no field besides the ID is set
func (p UpdateParams) IsEmpty() bool {
	return p.FileName == nil &&
		p.OriginalURL == nil &&
		p.TransformedURL == nil &&
		p.Type == nil &&
		p.TransformationConfig == nil &&
		p.IsPrivate == nil
}

// QueryParams selects one media record
type QueryParams struct {
	ID string `json:"id" params:"id"`
}

func (p QueryParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required.Error(msgMediaID), is.UUID.Error(msgMediaID)),
	)
}

// UUID returns the parsed id, call after Validate
func (p QueryParams) UUID() uuid.UUID {
	id, _ := uuid.Parse(p.ID)
	return id
}

func fileNameRules(presence validation.Rule) []validation.Rule {
	return []validation.Rule{
		presence,
		validation.RuneLength(1, maxFileNameRuneLength).Error(msgFileNameTooLong),
		validation.Match(fileNamePattern).Error(msgFileNameInvalid),
	}
}
