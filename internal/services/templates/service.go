// Package templates manages DOCX templates: upload, listing, defaults and previews.
package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckdocs/internal/docx"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/render"
	"github.com/xelth-com/eckdocs/internal/storage"
	"github.com/xelth-com/eckdocs/internal/theme"
)

const contentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	ErrNotFound        = errors.New("template not found")
	ErrInvalidTemplate = errors.New("file is not a valid DOCX template")
	ErrNotOwner        = errors.New("template belongs to another business")
	ErrInvalidRequest  = errors.New("template name and a valid type are required")
	ErrDefaultConflict = errors.New("another default template was set concurrently")
)

// PreviewRenderer draws the first page of a document as PNG
type PreviewRenderer interface {
	Preview(doc *models.Document, business *models.Business, th theme.Theme) ([]byte, error)
}

// UploadRequest describes a new template. Owner nil uploads a global template.
type UploadRequest struct {
	Owner     *uuid.UUID
	Type      models.DocumentType
	Name      string
	Data      []byte
	Theme     *theme.Theme
	IsDefault bool
}

// UploadResult is the stored template and what tokens it uses
type UploadResult struct {
	Template *models.Template   `json:"template"`
	Tokens   render.TokenReport `json:"tokens"`
}

// Config names the containers templates and previews live in
type Config struct {
	TemplatesContainer string
	PreviewsContainer  string
	DefaultCurrency    string
}

// Service implements the template workflows
type Service struct {
	store    Store
	blobs    storage.BlobStore
	previews PreviewRenderer
	cfg      Config
}

// NewService creates a template service. previews may be nil to disable preview generation.
func NewService(store Store, blobs storage.BlobStore, previews PreviewRenderer, cfg Config) *Service {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "KES"
	}
	return &Service{store: store, blobs: blobs, previews: previews, cfg: cfg}
}

// List returns global templates and those owned by businessID, optionally of one type
func (s *Service) List(ctx context.Context, businessID uuid.UUID, docType models.DocumentType) ([]models.Template, error) {
	return s.store.ListTemplates(ctx, businessID, docType)
}

// Get returns a template the business may use
func (s *Service) Get(ctx context.Context, businessID, id uuid.UUID) (*models.Template, error) {
	tpl, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil || !tpl.UsableBy(businessID) {
		return nil, ErrNotFound
	}
	return tpl, nil
}

// FindTemplate loads any template by id without an ownership check; nil when missing.
// The theme resolver applies its own permission rule.
func (s *Service) FindTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

// DefaultTemplate returns the business's default for docType, else the global default
func (s *Service) DefaultTemplate(ctx context.Context, businessID uuid.UUID, docType models.DocumentType) (*models.Template, error) {
	tpl, err := s.store.DefaultTemplate(ctx, &businessID, docType)
	if err != nil || tpl != nil {
		return tpl, err
	}
	return s.store.DefaultTemplate(ctx, nil, docType)
}

// Upload validates the DOCX, stores it under a versioned path and records it
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Type.Valid() {
		return nil, ErrInvalidRequest
	}

	pkg, err := docx.Open(req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	report := render.ScanTokens(pkg)

	latest, err := s.store.LatestVersion(ctx, req.Owner, req.Type, name)
	if err != nil {
		return nil, fmt.Errorf("find template version: %w", err)
	}
	version := latest + 1
	blobPath := BlobPath(req.Owner, req.Type, name, version)

	if _, err := s.blobs.Upload(ctx, req.Data, blobPath, s.cfg.TemplatesContainer, contentTypeDOCX); err != nil {
		return nil, fmt.Errorf("upload template: %w", err)
	}

	tpl := &models.Template{
		BusinessID: req.Owner,
		Type:       req.Type,
		Name:       name,
		Version:    version,
		BlobPath:   blobPath,
		IsDefault:  req.IsDefault,
	}
	if req.Theme != nil {
		tpl.Theme = req.Theme.Normalize().JSON()
	}
	if err := s.store.CreateTemplate(ctx, tpl); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}

	ev := log.Info().Str("name", name).Str("type", string(req.Type)).Int("version", version)
	if len(report.Unknown) > 0 {
		ev = ev.Strs("unknownTokens", report.Unknown)
	}
	ev.Msg("📝 Template uploaded")

	return &UploadResult{Template: tpl, Tokens: report}, nil
}

// SetDefault makes a template the default of its type for its owner.
// A business may only toggle its own templates; global ones need owner nil.
func (s *Service) SetDefault(ctx context.Context, owner *uuid.UUID, id uuid.UUID) (*models.Template, error) {
	tpl, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrNotFound
	}
	if !sameOwner(tpl.BusinessID, owner) {
		if owner != nil && tpl.UsableBy(*owner) {
			return nil, ErrNotOwner
		}
		return nil, ErrNotFound
	}
	if err := s.store.SetDefault(ctx, tpl); err != nil {
		return nil, fmt.Errorf("set default: %w", err)
	}
	tpl.IsDefault = true
	log.Info().Str("template", tpl.ID.String()).Str("type", string(tpl.Type)).Msg("Template set as default")
	return tpl, nil
}

// GeneratePreview renders a sample document in the template's theme and stores the PNG
func (s *Service) GeneratePreview(ctx context.Context, businessID, id uuid.UUID) (*models.Template, error) {
	if s.previews == nil {
		return nil, errors.New("preview rendering is not configured")
	}
	tpl, err := s.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}

	png, err := s.previews.Preview(SampleDocument(tpl.Type, s.cfg.DefaultCurrency), SampleBusiness(), theme.Pick(nil, tpl))
	if err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}
	name := fmt.Sprintf("templates/%s-v%d.png", tpl.ID, tpl.Version)
	url, err := s.blobs.Upload(ctx, png, name, s.cfg.PreviewsContainer, "image/png")
	if err != nil {
		return nil, fmt.Errorf("upload preview: %w", err)
	}
	if err := s.store.UpdatePreview(ctx, tpl.ID, url); err != nil {
		return nil, fmt.Errorf("save preview url: %w", err)
	}
	tpl.PreviewURL = url
	return tpl, nil
}

// BlobPath is global/{type}/{slug}-v{n}.docx or {business}/{type}/{slug}-v{n}.docx
func BlobPath(owner *uuid.UUID, docType models.DocumentType, name string, version int) string {
	dir := "global"
	if owner != nil {
		dir = owner.String()
	}
	return fmt.Sprintf("%s/%s/%s-v%d.docx", dir, strings.ToLower(string(docType)), Slug(name), version)
}

// Slug lower-cases name and joins its words with hyphens
func Slug(name string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if sb.Len() == 0 {
		return "template"
	}
	return sb.String()
}

// SampleDocument is the fixed document template previews are drawn with
func SampleDocument(docType models.DocumentType, currency string) *models.Document {
	issued := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	due := issued.AddDate(0, 0, 30)
	rate := decimal.RequireFromString("0.16")
	return &models.Document{
		Type:          docType,
		Number:        docType.Info().Prefix + "202501-0001",
		Status:        models.DocumentStatusDraft,
		Currency:      currency,
		IssuedAt:      issued,
		DueAt:         &due,
		CustomerName:  "John Doe",
		CustomerPhone: "+254 700 000 000",
		CustomerEmail: "john.doe@example.com",
		BillingCity:   "Nairobi",
		Reference:     "PO-0001",
		Notes:         "Thank you for your business.",
		Lines: []models.DocumentLine{
			{Position: 1, Name: "Sample Product", Description: "Product description", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1000), TaxRate: rate},
			{Position: 2, Name: "Another Product", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(500), TaxRate: rate},
		},
	}
}

// SampleBusiness is the issuer shown on previews
func SampleBusiness() *models.Business {
	return &models.Business{
		Name:  "Your Business Name",
		Phone: "+254 711 000 000",
		Email: "hello@yourbusiness.co.ke",
		Town:  "Nairobi",
	}
}

func sameOwner(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
