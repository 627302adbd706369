package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	docs "github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/imagefetch"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/render"
	"github.com/xelth-com/eckdocs/internal/render/pdf"
	"github.com/xelth-com/eckdocs/internal/storage"
	"github.com/xelth-com/eckdocs/internal/theme"
)

// Content types of uploaded artifacts
const (
	contentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	contentTypePDF  = "application/pdf"
	contentTypePNG  = "image/png"
)

// TemplateLookup loads template metadata. A nil template means not found.
type TemplateLookup interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
}

// Artifacts are the public URLs of a rendered document
type Artifacts struct {
	DocxURL      string `json:"docxUrl"`
	PdfURL       string `json:"pdfUrl"`
	PreviewURL   string `json:"previewUrl"`
	FromTemplate bool   `json:"fromTemplate"`
}

// RendererConfig holds containers and render options
type RendererConfig struct {
	TemplatesContainer string
	PreviewsContainer  string
	Merge              render.MergeOptions
	PDF                pdf.Options
}

// Renderer runs the render pipeline for a saved document:
// totals, theme, DOCX (template or built), PDF, preview, upload.
type Renderer struct {
	blobs     storage.BlobStore
	templates TemplateLookup
	images    imagefetch.Fetcher
	merger    *render.Merger
	pdf       *pdf.Renderer
	previews  string
	log       zerolog.Logger
}

// NewRenderer creates a renderer. images may be nil to skip logos.
func NewRenderer(blobs storage.BlobStore, templates TemplateLookup, images imagefetch.Fetcher, cfg RendererConfig) *Renderer {
	return &Renderer{
		blobs:     blobs,
		templates: templates,
		images:    images,
		merger:    render.NewMerger(blobs, cfg.TemplatesContainer, cfg.Merge),
		pdf:       pdf.NewRenderer(cfg.PDF),
		previews:  cfg.PreviewsContainer,
		log:       log.Logger,
	}
}

// Render produces and uploads the DOCX, PDF and preview of doc.
// Totals are recomputed on doc before anything is drawn.
func (r *Renderer) Render(ctx context.Context, doc *models.Document, business *models.Business, sig docs.SignatureRender) (Artifacts, error) {
	if err := docs.ValidateForRender(doc); err != nil {
		return Artifacts{}, err
	}
	docs.ApplyTotals(doc)

	in := render.Input{
		Document:  doc,
		Business:  business,
		Theme:     theme.FromJSON(doc.AppliedTheme),
		Signature: sig,
		Logo:      r.logo(ctx, business),
	}

	docx, fromTemplate, err := r.docx(ctx, in)
	if err != nil {
		return Artifacts{}, fmt.Errorf("build docx: %w", err)
	}

	out, err := r.pdf.Render(in)
	if err != nil {
		return Artifacts{}, fmt.Errorf("render pdf: %w", err)
	}

	container := doc.Type.Info().Container
	art := Artifacts{FromTemplate: fromTemplate}
	if art.DocxURL, err = r.blobs.Upload(ctx, docx, doc.Number+".docx", container, contentTypeDOCX); err != nil {
		return Artifacts{}, fmt.Errorf("upload docx: %w", err)
	}
	if art.PdfURL, err = r.blobs.Upload(ctx, out.PDF, doc.Number+".pdf", container, contentTypePDF); err != nil {
		return Artifacts{}, fmt.Errorf("upload pdf: %w", err)
	}
	if art.PreviewURL, err = r.blobs.Upload(ctx, out.Preview, doc.Number+".png", r.previews, contentTypePNG); err != nil {
		return Artifacts{}, fmt.Errorf("upload preview: %w", err)
	}

	r.log.Info().
		Str("number", doc.Number).
		Int("pages", out.Pages).
		Bool("template", fromTemplate).
		Msg("📄 Document rendered")
	return art, nil
}

// Preview renders only the PNG preview of doc without uploading anything
func (r *Renderer) Preview(doc *models.Document, business *models.Business, th theme.Theme) ([]byte, error) {
	docs.ApplyTotals(doc)
	return r.pdf.Preview(render.Input{Document: doc, Business: business, Theme: th})
}

// docx merges the document's template, falling back to a built document
// when there is no template or the merge fails.
func (r *Renderer) docx(ctx context.Context, in render.Input) ([]byte, bool, error) {
	doc := in.Document
	if doc.TemplateID != nil && r.templates != nil {
		tpl, err := r.templates.GetTemplate(ctx, *doc.TemplateID)
		switch {
		case err != nil:
			r.log.Warn().Err(err).Str("number", doc.Number).Msg("Template lookup failed, using programmatic build")
		case tpl == nil || tpl.BlobPath == "":
			r.log.Warn().Str("template", doc.TemplateID.String()).Msg("Template not found, using programmatic build")
		case !tpl.UsableBy(doc.BusinessID):
			r.log.Warn().Str("template", tpl.ID.String()).Msg("Template belongs to another business, using programmatic build")
		default:
			data, err := r.merger.Merge(ctx, tpl.BlobPath, in)
			if err == nil {
				return data, true, nil
			}
			if !errors.Is(err, render.ErrTemplateBlobMissing) && !errors.Is(err, render.ErrTemplateMalformed) {
				return nil, false, err
			}
			r.log.Warn().Err(err).
				Str("template", tpl.ID.String()).
				Str("number", doc.Number).
				Msg("⚠️ Template merge failed, using programmatic build")
		}
	}

	data, err := render.Build(in)
	return data, false, err
}

// logo fetches the business logo; any failure only costs the logo
func (r *Renderer) logo(ctx context.Context, business *models.Business) []byte {
	if r.images == nil || business == nil || business.LogoURL == "" {
		return nil
	}
	data, err := r.images.Get(ctx, business.LogoURL)
	if err != nil {
		r.log.Warn().Err(err).Str("business", business.ID.String()).Msg("Logo fetch failed, rendering without logo")
		return nil
	}
	return data
}
