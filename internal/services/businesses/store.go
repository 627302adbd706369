// Package businesses manages issuing businesses and who may act for them.
package businesses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xelth-com/eckdocs/internal/models"
)

// Store persists businesses and memberships
type Store interface {
	// CreateWithOwner saves b and makes userID its owner in one transaction
	CreateWithOwner(ctx context.Context, b *models.Business, userID string) error
	ListForUser(ctx context.Context, userID string) ([]models.Business, error)
	Membership(ctx context.Context, userID string, businessID uuid.UUID) (*models.Membership, error)
}

// GormStore is the Postgres implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateWithOwner(ctx context.Context, b *models.Business, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("create business: %w", err)
		}
		m := &models.Membership{UserID: userID, BusinessID: b.ID, Role: models.RoleOwner, Status: "active"}
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
}

func (s *GormStore) ListForUser(ctx context.Context, userID string) ([]models.Business, error) {
	var out []models.Business
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.business_id = businesses.id").
		Where("memberships.user_id = ? AND memberships.status = ?", userID, "active").
		Order("businesses.name ASC").
		Find(&out).Error
	return out, err
}

func (s *GormStore) Membership(ctx context.Context, userID string, businessID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
