package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template is a DOCX template with an optional theme.
// A nil BusinessID marks a global template usable by every business.
type Template struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID *uuid.UUID     `gorm:"type:uuid;index" json:"businessId,omitempty"`
	Type       DocumentType   `gorm:"size:20;not null;index" json:"type"`
	Name       string         `gorm:"size:120;not null" json:"name"`
	Version    int            `gorm:"not null;default:1" json:"version"`
	BlobPath   string         `gorm:"not null" json:"blobPath"`
	Theme      datatypes.JSON `json:"theme,omitempty"`
	PreviewURL string         `json:"previewUrl,omitempty"`
	IsDefault  bool           `gorm:"not null;default:false" json:"isDefault"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (Template) TableName() string {
	return "document_templates"
}

// BeforeCreate assigns an id when the caller did not
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsGlobal reports whether the template is shared by all businesses
func (t *Template) IsGlobal() bool {
	return t.BusinessID == nil
}

// UsableBy reports whether businessID may render with this template
func (t *Template) UsableBy(businessID uuid.UUID) bool {
	return t.BusinessID == nil || *t.BusinessID == businessID
}
