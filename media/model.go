package media

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Type is the media_type enum
type Type string

const (
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

// Types lists every valid media type
func Types() []Type {
	return []Type{TypeImage, TypeVideo}
}

func (t Type) IsValid() bool {
	return t == TypeImage || t == TypeVideo
}

// TransformationConfig is free form CDN transformation settings
type TransformationConfig map[string]any

// Media is an uploaded file record
type Media struct {
	bun.BaseModel        `bun:"table:media,alias:med"`
	ID                   uuid.UUID            `bun:"id,pk,nullzero,type:uuid" json:"id"`
	FileName             string               `bun:"file_name,notnull" json:"fileName"`
	OriginalURL          string               `bun:"original_url,notnull" json:"originalUrl"`
	TransformedURL       string               `bun:"transformed_url" json:"transformedUrl"`
	TransformationConfig TransformationConfig `bun:"transformation_config,type:jsonb" json:"transformationConfig"`
	Type                 Type                 `bun:"type,nullzero" json:"mediaType,omitempty"`
	IsPrivate            bool                 `bun:"is_private,notnull" json:"isPrivate"`
	CreatedAt            *time.Time           `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt            *time.Time           `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

func (m *Media) prepareDefaults() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.TransformationConfig == nil {
		m.TransformationConfig = TransformationConfig{}
	}
	now := time.Now()
	if m.CreatedAt == nil {
		m.CreatedAt = &now
	}
	if m.UpdatedAt == nil {
		m.UpdatedAt = &now
	}
}
