// Package documents creates, edits, signs and renders invoices, receipts and quotations.
package documents

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	// decoders for signature validation
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckdocs/internal/ai"
	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/docx"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/numbering"
	"github.com/xelth-com/eckdocs/internal/storage"
	"github.com/xelth-com/eckdocs/internal/theme"
)

// Event names published to connected clients
const (
	EventRendered = "document.rendered"
	EventSigned   = "document.signed"
	EventFailed   = "document.render_failed"
)

// ErrInvalidSignature covers undecodable or non-image signature payloads
var ErrInvalidSignature = errors.New("signature must be a base64 encoded image")

// ErrVoiceUnavailable is returned when no extractor is configured
var ErrVoiceUnavailable = errors.New("voice extraction is not configured")

// RenderFailedError is returned when a document was saved but its files were not produced.
// It matches docs.ErrRenderFailed and the underlying cause.
type RenderFailedError struct {
	DocumentID uuid.UUID
	Number     string
	Err        error
}

func (e *RenderFailedError) Error() string {
	return fmt.Sprintf("%v (%s): %v", docs.ErrRenderFailed, e.Number, e.Err)
}

func (e *RenderFailedError) Unwrap() []error {
	return []error{docs.ErrRenderFailed, e.Err}
}

// Notifier receives document events
type Notifier interface {
	Publish(businessID uuid.UUID, event string, payload interface{})
}

// DefaultTemplates finds the default template of a document type for a business
type DefaultTemplates interface {
	DefaultTemplate(ctx context.Context, businessID uuid.UUID, docType models.DocumentType) (*models.Template, error)
}

// Actor is the authenticated user acting within a business
type Actor struct {
	UserID     string
	BusinessID uuid.UUID
}

// LineInput is a line item as submitted by a client
type LineInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxRate     decimal.Decimal `json:"taxRate"`
}

// CustomerInput is the customer snapshot as submitted by a client
type CustomerInput struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
}

// CreateRequest creates a document from form input
type CreateRequest struct {
	Type       models.DocumentType `json:"type"`
	Currency   string              `json:"currency,omitempty"`
	IssuedAt   *time.Time          `json:"issuedAt,omitempty"`
	DueAt      *time.Time          `json:"dueAt,omitempty"`
	Customer   CustomerInput       `json:"customer"`
	Reference  string              `json:"reference,omitempty"`
	Notes      string              `json:"notes,omitempty"`
	Lines      []LineInput         `json:"lines"`
	TemplateID *uuid.UUID          `json:"templateId,omitempty"`
	Theme      *theme.Theme        `json:"theme,omitempty"`
}

// VoiceRequest creates a document from a spoken transcript
type VoiceRequest struct {
	Type       models.DocumentType `json:"type"`
	Transcript string              `json:"transcript"`
	Locale     string              `json:"locale,omitempty"`
	Currency   string              `json:"currency,omitempty"`
	TemplateID *uuid.UUID          `json:"templateId,omitempty"`
	Theme      *theme.Theme        `json:"theme,omitempty"`
}

// UpdateRequest edits a draft. Nil fields are left alone; non-empty Lines replace all lines.
type UpdateRequest struct {
	Customer  *CustomerInput `json:"customer,omitempty"`
	Lines     []LineInput    `json:"lines,omitempty"`
	DueAt     *time.Time     `json:"dueAt,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
	Reference *string        `json:"reference,omitempty"`
}

// SignRequest attaches a signature image
type SignRequest struct {
	SignatureBase64 string `json:"signatureBase64"`
	SignerName      string `json:"signerName"`
	Notes           string `json:"notes,omitempty"`
}

// Result is a document with the URLs of its files
type Result struct {
	Document  *models.Document `json:"document"`
	Artifacts Artifacts        `json:"urls"`
}

// ListResult is one page of documents
type ListResult struct {
	Documents  []models.Document `json:"documents"`
	TotalCount int64             `json:"totalCount"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// Config holds service defaults
type Config struct {
	DefaultCurrency     string
	DefaultLocale       string
	SignaturesContainer string
}

// Service implements the document workflows
type Service struct {
	store     Store
	numbers   *numbering.Allocator
	themes    *theme.Resolver
	renderer  *Renderer
	blobs     storage.BlobStore
	extractor ai.Extractor
	notifier  Notifier
	defaults  DefaultTemplates
	cfg       Config
	now       func() time.Time
}

// NewService creates a document service
func NewService(store Store, numbers *numbering.Allocator, themes *theme.Resolver, renderer *Renderer, blobs storage.BlobStore, cfg Config) *Service {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "KES"
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en-KE"
	}
	if cfg.SignaturesContainer == "" {
		cfg.SignaturesContainer = "document-signatures"
	}
	return &Service{
		store:    store,
		numbers:  numbers,
		themes:   themes,
		renderer: renderer,
		blobs:    blobs,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetExtractor enables voice creation
func (s *Service) SetExtractor(e ai.Extractor) {
	s.extractor = e
}

// SetDefaultTemplates enables per-type default templates
func (s *Service) SetDefaultTemplates(d DefaultTemplates) {
	s.defaults = d
}

// SetNotifier sets the event sink
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateManual validates the request, saves the document with a fresh number and renders it.
// A render failure after the save returns the saved document and a *RenderFailedError.
func (s *Service) CreateManual(ctx context.Context, actor Actor, req CreateRequest) (*Result, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", docs.ErrInvalidType, req.Type)
	}
	doc := &models.Document{
		Type:      req.Type,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		DueAt:     req.DueAt,
		Reference: strings.TrimSpace(req.Reference),
		Notes:     strings.TrimSpace(req.Notes),
		Lines:     toLines(req.Lines),
	}
	applyCustomer(doc, req.Customer)
	if req.IssuedAt != nil {
		doc.IssuedAt = req.IssuedAt.UTC()
	}
	return s.create(ctx, actor, doc, req.TemplateID, req.Theme)
}

// CreateFromVoice extracts the document from a transcript and continues like CreateManual.
// Extracted lines carry no tax.
func (s *Service) CreateFromVoice(ctx context.Context, actor Actor, req VoiceRequest) (*Result, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", docs.ErrInvalidType, req.Type)
	}
	if s.extractor == nil {
		return nil, ErrVoiceUnavailable
	}

	locale := req.Locale
	if locale == "" {
		locale = s.cfg.DefaultLocale
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	extracted, err := s.extractor.Extract(ctx, req.Transcript, locale, currency)
	if err != nil {
		if errors.Is(err, ai.ErrNothingExtracted) {
			return nil, fmt.Errorf("%w: could not understand the %s details", docs.ErrNoLines, strings.ToLower(req.Type.Info().Name))
		}
		return nil, fmt.Errorf("extract document: %w", err)
	}

	doc := &models.Document{
		Type:          req.Type,
		Currency:      currency,
		CustomerName:  extracted.CustomerName,
		CustomerPhone: extracted.CustomerPhone,
		Notes:         extracted.Notes,
	}
	for _, it := range extracted.Items {
		doc.Lines = append(doc.Lines, models.DocumentLine{
			Name:      it.Name,
			Quantity:  it.Quantity.Round(docs.QuantityScale),
			UnitPrice: it.UnitPrice.Round(docs.PriceScale),
		})
	}
	return s.create(ctx, actor, doc, req.TemplateID, req.Theme)
}

// create runs the shared path: validate, theme, totals, number+save, render
func (s *Service) create(ctx context.Context, actor Actor, doc *models.Document, templateID *uuid.UUID, inline *theme.Theme) (*Result, error) {
	if err := docs.ValidateLines(doc.Lines); err != nil {
		return nil, err
	}

	business, err := s.store.GetBusiness(ctx, actor.BusinessID)
	if err != nil {
		return nil, err
	}

	if doc.Currency == "" {
		doc.Currency = business.Currency
	}
	if doc.Currency == "" {
		doc.Currency = s.cfg.DefaultCurrency
	}
	if err := docs.ValidateCurrency(doc.Currency); err != nil {
		return nil, err
	}

	if templateID == nil && s.defaults != nil {
		tpl, err := s.defaults.DefaultTemplate(ctx, business.ID, doc.Type)
		if err != nil {
			log.Warn().Err(err).Str("type", string(doc.Type)).Msg("Default template lookup failed")
		} else if tpl != nil {
			templateID = &tpl.ID
		}
	}
	if templateID == nil {
		templateID = business.DefaultTemplateID
	}
	res, err := s.themes.Resolve(ctx, theme.Request{BusinessID: business.ID, TemplateID: templateID, Inline: inline})
	if err != nil {
		return nil, err
	}
	if res.Template != nil {
		doc.TemplateID = &res.Template.ID
	}
	doc.AppliedTheme = res.Theme.JSON()

	doc.BusinessID = business.ID
	doc.CreatedByUserID = actor.UserID
	doc.Status = models.DocumentStatusDraft
	doc.Version = 1
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = s.now()
	}
	for i := range doc.Lines {
		doc.Lines[i].Position = i + 1
	}
	docs.ApplyTotals(doc)

	_, err = s.numbers.AllocateAndSave(ctx, business.ID, doc.Type, func(ctx context.Context, number string) error {
		doc.Number = number
		doc.ID = uuid.Nil
		for i := range doc.Lines {
			doc.Lines[i].ID = uuid.Nil
		}
		return s.store.CreateDocument(ctx, doc)
	})
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	log.Info().
		Str("number", doc.Number).
		Str("type", string(doc.Type)).
		Str("business", business.ID.String()).
		Msg("✅ Document created")

	return s.renderAndStore(ctx, doc, business, docs.SignatureFromDocument(doc, nil), EventRendered)
}

// Get returns a document of the actor's business created by the actor
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Document, error) {
	doc, err := s.store.GetDocument(ctx, actor.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if doc.CreatedByUserID != actor.UserID {
		return nil, docs.ErrForbidden
	}
	return doc, nil
}

// List returns a page of the business's documents, newest first
func (s *Service) List(ctx context.Context, actor Actor, f ListFilter) (*ListResult, error) {
	f.BusinessID = actor.BusinessID
	f.normalize()
	items, total, err := s.store.ListDocuments(ctx, f)
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	return &ListResult{
		Documents:  items,
		TotalCount: total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: pages,
	}, nil
}

// Update edits a draft created by the actor. Files are not regenerated; call Rerender.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateRequest) (*models.Document, error) {
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentStatusDraft {
		return nil, docs.ErrNotEditable
	}

	replaceLines := len(req.Lines) > 0
	if replaceLines {
		lines := toLines(req.Lines)
		if err := docs.ValidateLines(lines); err != nil {
			return nil, err
		}
		for i := range lines {
			lines[i].Position = i + 1
			lines[i].DocumentID = doc.ID
		}
		doc.Lines = lines
	}
	if req.Customer != nil {
		applyCustomer(doc, *req.Customer)
	}
	if req.DueAt != nil {
		doc.DueAt = req.DueAt
	}
	if req.Notes != nil {
		doc.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Reference != nil {
		doc.Reference = strings.TrimSpace(*req.Reference)
	}
	docs.ApplyTotals(doc)
	doc.Version++

	if err := s.store.UpdateDocument(ctx, doc, replaceLines); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	log.Info().Str("number", doc.Number).Int("version", doc.Version).Msg("Document updated")
	return doc, nil
}

// Sign stores the signature image, marks the document Signed and regenerates its files.
// Any member of the business may sign.
func (s *Service) Sign(ctx context.Context, actor Actor, id uuid.UUID, req SignRequest) (*Result, error) {
	sigImage, err := decodeSignature(req.SignatureBase64)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.GetDocument(ctx, actor.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.DocumentStatusCancelled {
		return nil, docs.ErrNotEditable
	}
	business, err := s.store.GetBusiness(ctx, doc.BusinessID)
	if err != nil {
		return nil, err
	}

	name := doc.Number + "-signature." + sigImage.ext
	url, err := s.blobs.Upload(ctx, sigImage.data, name, s.cfg.SignaturesContainer, sigImage.contentType)
	if err != nil {
		return nil, fmt.Errorf("upload signature: %w", err)
	}

	now := s.now()
	doc.SignaturePath = name
	doc.SignatureURL = url
	doc.SignedBy = strings.TrimSpace(req.SignerName)
	doc.SignedAt = &now
	doc.SignatureNotes = strings.TrimSpace(req.Notes)
	doc.Status = models.DocumentStatusSigned

	if err := s.store.UpdateDocument(ctx, doc, false); err != nil {
		return nil, fmt.Errorf("save signature: %w", err)
	}
	log.Info().Str("number", doc.Number).Str("signedBy", doc.SignedBy).Msg("✍️ Document signed")

	return s.renderAndStore(ctx, doc, business, docs.SignatureFromDocument(doc, sigImage.data), EventSigned)
}

// Rerender regenerates the files of a saved document, e.g. after an earlier render failed.
// A signed document must have its signature image available.
func (s *Service) Rerender(ctx context.Context, actor Actor, id uuid.UUID) (*Result, error) {
	doc, err := s.store.GetDocument(ctx, actor.BusinessID, id)
	if err != nil {
		return nil, err
	}
	business, err := s.store.GetBusiness(ctx, doc.BusinessID)
	if err != nil {
		return nil, err
	}

	var sigImage []byte
	if doc.SignaturePath != "" {
		sigImage, err = s.blobs.Download(ctx, doc.SignaturePath, s.cfg.SignaturesContainer)
		if err != nil {
			if doc.Status == models.DocumentStatusSigned {
				return nil, fmt.Errorf("%w: %v", docs.ErrSignatureUnavailable, err)
			}
			log.Warn().Err(err).Str("number", doc.Number).Msg("Signature image missing, rendering without it")
			sigImage = nil
		}
	} else if doc.Status == models.DocumentStatusSigned {
		return nil, docs.ErrSignatureUnavailable
	}

	event := EventRendered
	if doc.Status == models.DocumentStatusSigned {
		event = EventSigned
	}
	return s.renderAndStore(ctx, doc, business, docs.SignatureFromDocument(doc, sigImage), event)
}

// renderAndStore renders doc and records either the URLs or the failure on it
func (s *Service) renderAndStore(ctx context.Context, doc *models.Document, business *models.Business, sig docs.SignatureRender, event string) (*Result, error) {
	art, renderErr := s.renderer.Render(ctx, doc, business, sig)
	if renderErr != nil {
		log.Error().Err(renderErr).Str("number", doc.Number).Msg("❌ Failed to render document")
		doc.RenderError = renderErr.Error()
		if err := s.store.UpdateDocument(ctx, doc, false); err != nil {
			log.Error().Err(err).Str("number", doc.Number).Msg("Failed to record render error")
		}
		s.publish(doc, EventFailed, map[string]interface{}{"id": doc.ID, "number": doc.Number, "error": doc.RenderError})
		return &Result{Document: doc}, &RenderFailedError{DocumentID: doc.ID, Number: doc.Number, Err: renderErr}
	}

	doc.DocxURL = art.DocxURL
	doc.PdfURL = art.PdfURL
	doc.PreviewURL = art.PreviewURL
	doc.RenderError = ""
	if err := s.store.UpdateDocument(ctx, doc, false); err != nil {
		return nil, fmt.Errorf("save document urls: %w", err)
	}

	s.publish(doc, event, map[string]interface{}{"id": doc.ID, "number": doc.Number, "urls": art})
	return &Result{Document: doc, Artifacts: art}, nil
}

func (s *Service) publish(doc *models.Document, event string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(doc.BusinessID, event, payload)
	}
}

// signatureImage is a decoded signature with the format it was sent in
type signatureImage struct {
	data        []byte
	ext         string
	contentType string
}

// decodeSignature accepts plain base64 or a data URL and checks the bytes are an image
func decodeSignature(encoded string) (signatureImage, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}
	if encoded == "" {
		return signatureImage{}, fmt.Errorf("%w: empty", ErrInvalidSignature)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return signatureImage{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	ext, ct, err := docx.ImageExt(data)
	if err != nil {
		return signatureImage{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return signatureImage{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return signatureImage{data: data, ext: ext, contentType: ct}, nil
}

func toLines(in []LineInput) []models.DocumentLine {
	out := make([]models.DocumentLine, 0, len(in))
	for _, l := range in {
		out = append(out, models.DocumentLine{
			Name:        strings.TrimSpace(l.Name),
			Description: strings.TrimSpace(l.Description),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
		})
	}
	return out
}

func applyCustomer(doc *models.Document, c CustomerInput) {
	doc.CustomerName = strings.TrimSpace(c.Name)
	doc.CustomerPhone = strings.TrimSpace(c.Phone)
	doc.CustomerEmail = strings.TrimSpace(c.Email)
	doc.BillingAddressLine1 = strings.TrimSpace(c.AddressLine1)
	doc.BillingAddressLine2 = strings.TrimSpace(c.AddressLine2)
	doc.BillingCity = strings.TrimSpace(c.City)
	doc.BillingCountry = strings.TrimSpace(c.Country)
}
