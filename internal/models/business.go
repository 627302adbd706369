package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Business is the issuer of documents
type Business struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string     `gorm:"size:200;not null" json:"name"`
	Category          string     `gorm:"size:80" json:"category,omitempty"`
	County            string     `gorm:"size:80" json:"county,omitempty"`
	Town              string     `gorm:"size:80" json:"town,omitempty"`
	Email             string     `gorm:"size:200" json:"email,omitempty"`
	Phone             string     `gorm:"size:40" json:"phone,omitempty"`
	Currency          string     `gorm:"size:3" json:"currency,omitempty"`
	LogoURL           string     `json:"logoUrl,omitempty"`
	DefaultTemplateID *uuid.UUID `gorm:"type:uuid" json:"defaultTemplateId,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (Business) TableName() string {
	return "businesses"
}

// BeforeCreate assigns an id when the caller did not
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Address joins town and county, skipping blanks
func (b *Business) Address() string {
	var parts []string
	for _, p := range []string{b.Town, b.County} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Membership roles
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Membership links a user to a business
type Membership struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_business,priority:1" json:"userId"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_user_business,priority:2;index" json:"businessId"`
	Role       string    `gorm:"size:20;not null;default:'member'" json:"role"`
	Status     string    `gorm:"size:20;not null;default:'active'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Membership) TableName() string {
	return "memberships"
}

// BeforeCreate assigns an id when the caller did not
func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
