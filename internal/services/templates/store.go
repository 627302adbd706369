package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckdocs/internal/models"
)

// Store persists template metadata
type Store interface {
	// ListTemplates returns global templates plus those owned by businessID
	ListTemplates(ctx context.Context, businessID uuid.UUID, docType models.DocumentType) ([]models.Template, error)
	// GetTemplate returns nil, nil when the template does not exist
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	// CreateTemplate inserts tpl; when tpl.IsDefault it also clears the other
	// defaults of its scope in the same transaction
	CreateTemplate(ctx context.Context, tpl *models.Template) error
	LatestVersion(ctx context.Context, owner *uuid.UUID, docType models.DocumentType, name string) (int, error)
	// SetDefault makes tpl the only default of its type within its owner scope
	SetDefault(ctx context.Context, tpl *models.Template) error
	DefaultTemplate(ctx context.Context, owner *uuid.UUID, docType models.DocumentType) (*models.Template, error)
	UpdatePreview(ctx context.Context, id uuid.UUID, url string) error
}

// GormStore is the Postgres implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// scope restricts q to global templates or to those of owner
func scope(q *gorm.DB, owner *uuid.UUID) *gorm.DB {
	if owner == nil {
		return q.Where("business_id IS NULL")
	}
	return q.Where("business_id = ?", *owner)
}

func (s *GormStore) ListTemplates(ctx context.Context, businessID uuid.UUID, docType models.DocumentType) ([]models.Template, error) {
	q := s.db.WithContext(ctx).Where("(business_id IS NULL OR business_id = ?)", businessID)
	if docType != "" {
		q = q.Where("type = ?", docType)
	}
	var out []models.Template
	if err := q.Order("type ASC").Order("name ASC").Order("version DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (s *GormStore) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	var tpl models.Template
	err := s.db.WithContext(ctx).First(&tpl, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *GormStore) CreateTemplate(ctx context.Context, tpl *models.Template) error {
	if !tpl.IsDefault {
		return s.db.WithContext(ctx).Create(tpl).Error
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefaults(tx, tpl); err != nil {
			return err
		}
		return defaultConflict(tx.Create(tpl).Error)
	})
}

func (s *GormStore) LatestVersion(ctx context.Context, owner *uuid.UUID, docType models.DocumentType, name string) (int, error) {
	var version int
	q := scope(s.db.WithContext(ctx).Model(&models.Template{}), owner).
		Where("type = ? AND LOWER(name) = LOWER(?)", docType, name)
	if err := q.Select("COALESCE(MAX(version), 0)").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

func (s *GormStore) SetDefault(ctx context.Context, tpl *models.Template) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefaults(tx, tpl); err != nil {
			return err
		}
		err := tx.Model(&models.Template{}).Where("id = ?", tpl.ID).Update("is_default", true).Error
		return defaultConflict(err)
	})
}

// lockScope selects the ids of every template sharing tpl's owner and type, row-locked.
// Concurrent default toggles in one scope queue behind each other on these locks.
func lockScope(tx *gorm.DB, tpl *models.Template) *gorm.DB {
	return scope(tx.Model(&models.Template{}), tpl.BusinessID).
		Where("type = ?", tpl.Type).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id")
}

func clearDefaults(tx *gorm.DB, tpl *models.Template) error {
	var ids []uuid.UUID
	if err := lockScope(tx, tpl).Find(&ids).Error; err != nil {
		return fmt.Errorf("lock templates: %w", err)
	}
	err := scope(tx.Model(&models.Template{}), tpl.BusinessID).
		Where("type = ? AND is_default = ? AND id <> ?", tpl.Type, true, tpl.ID).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("clear defaults: %w", err)
	}
	return nil
}

// defaultConflict maps a hit on the one-default index to ErrDefaultConflict
func defaultConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDefaultConflict
	}
	return err
}

func (s *GormStore) DefaultTemplate(ctx context.Context, owner *uuid.UUID, docType models.DocumentType) (*models.Template, error) {
	var tpl models.Template
	err := scope(s.db.WithContext(ctx), owner).
		Where("type = ? AND is_default = ?", docType, true).
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *GormStore) UpdatePreview(ctx context.Context, id uuid.UUID, url string) error {
	return s.db.WithContext(ctx).Model(&models.Template{}).Where("id = ?", id).Update("preview_url", url).Error
}
