package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/models"
)

// ListFilter narrows a document listing. Zero values mean "any".
type ListFilter struct {
	BusinessID uuid.UUID
	Type       models.DocumentType
	Status     models.DocumentStatus
	From       *time.Time
	To         *time.Time
	Search     string
	Page       int
	PageSize   int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// Store persists documents and reads the businesses that own them
type Store interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, businessID, id uuid.UUID) (*models.Document, error)
	ListDocuments(ctx context.Context, f ListFilter) ([]models.Document, int64, error)
	// UpdateDocument saves header fields; lines are replaced when replaceLines is set
	UpdateDocument(ctx context.Context, doc *models.Document, replaceLines bool) error
	GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

// GormStore is the Postgres implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *GormStore) GetDocument(ctx context.Context, businessID, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ? AND business_id = ?", id, businessID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, docs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *GormStore) ListDocuments(ctx context.Context, f ListFilter) ([]models.Document, int64, error) {
	f.normalize()
	q := s.db.WithContext(ctx).Model(&models.Document{}).Where("business_id = ?", f.BusinessID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("issued_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("issued_at <= ?", *f.To)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(number) LIKE ? OR LOWER(customer_name) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	var out []models.Document
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return out, total, nil
}

func (s *GormStore) UpdateDocument(ctx context.Context, doc *models.Document, replaceLines bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replaceLines {
			if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentLine{}).Error; err != nil {
				return fmt.Errorf("delete lines: %w", err)
			}
			for i := range doc.Lines {
				doc.Lines[i].ID = uuid.Nil
				doc.Lines[i].DocumentID = doc.ID
			}
			if len(doc.Lines) > 0 {
				if err := tx.Create(&doc.Lines).Error; err != nil {
					return fmt.Errorf("insert lines: %w", err)
				}
			}
		}
		return tx.Omit("Lines").Save(doc).Error
	})
}

func (s *GormStore) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var b models.Business
	err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("business %s: %w", id, docs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
