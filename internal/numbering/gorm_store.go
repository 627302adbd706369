package numbering

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xelth-com/eckdocs/internal/models"
)

// GormStore reads the last number from the documents table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// LastNumber implements Store. Soft-deleted documents still count.
func (s *GormStore) LastNumber(ctx context.Context, businessID uuid.UUID, docType models.DocumentType, prefix string) (string, error) {
	var doc models.Document
	q := s.db.WithContext(ctx).Unscoped().
		Select("number").
		Where("business_id = ? AND type = ?", businessID, docType)
	if prefix != "" {
		q = q.Where("number LIKE ?", prefix+"%")
	}
	err := q.Order("created_at DESC").Order("number DESC").Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.Number, nil
}
