package businesses

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/models"
)

var ErrNameRequired = errors.New("business name is required")

// CreateRequest registers a new business
type CreateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	County   string `json:"county,omitempty"`
	Town     string `json:"town,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Currency string `json:"currency,omitempty"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

// Service implements business registration and membership checks
type Service struct {
	store           Store
	defaultCurrency string
}

// NewService creates a business service
func NewService(store Store, defaultCurrency string) *Service {
	return &Service{store: store, defaultCurrency: defaultCurrency}
}

// Create saves the business with userID as owner
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*models.Business, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if err := docs.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	b := &models.Business{
		Name:     name,
		Category: strings.TrimSpace(req.Category),
		County:   strings.TrimSpace(req.County),
		Town:     strings.TrimSpace(req.Town),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Currency: currency,
		LogoURL:  strings.TrimSpace(req.LogoURL),
	}
	if err := s.store.CreateWithOwner(ctx, b, userID); err != nil {
		return nil, err
	}
	log.Info().Str("business", b.ID.String()).Str("name", b.Name).Msg("🏪 Business registered")
	return b, nil
}

// List returns the businesses userID belongs to
func (s *Service) List(ctx context.Context, userID string) ([]models.Business, error) {
	return s.store.ListForUser(ctx, userID)
}

// IsMember reports whether userID has an active membership in businessID
func (s *Service) IsMember(ctx context.Context, userID string, businessID uuid.UUID) (bool, error) {
	m, err := s.store.Membership(ctx, userID, businessID)
	if err != nil {
		return false, err
	}
	return m != nil && m.Status == "active", nil
}
