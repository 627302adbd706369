// Package pdf renders documents to PDF and to a PNG preview of the first page.
// Both outputs are painted from one page model so they always agree.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/render"
)

// LayoutError is a failure to lay out or paint a document
type LayoutError struct {
	DocumentNumber string
	LineCount      int
	HasSignature   bool
	Err            error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("pdf layout error for document %s (line items: %d, signature present: %t): %v",
		e.DocumentNumber, e.LineCount, e.HasSignature, e.Err)
}

func (e *LayoutError) Unwrap() error {
	return e.Err
}

func newLayoutError(in render.Input, err error) *LayoutError {
	return &LayoutError{
		DocumentNumber: in.Document.Number,
		LineCount:      len(in.Document.Lines),
		HasSignature:   in.Signature.HasImage(),
		Err:            err,
	}
}

// Options configures the renderer
type Options struct {
	// QRCode adds a QR code to the first page footer
	QRCode bool
	// VerifyBaseURL, when set, is encoded in the QR code as {base}/{number}
	VerifyBaseURL string
	// PreviewWidth is the PNG width in pixels
	PreviewWidth int
}

// Output is the result of a render
type Output struct {
	PDF     []byte
	Preview []byte
	Pages   int
}

// Renderer produces PDFs and previews
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer
func NewRenderer(opts Options) *Renderer {
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = 1240
	}
	return &Renderer{opts: opts}
}

// Render lays the document out once and paints both the PDF and the preview
func (r *Renderer) Render(in render.Input) (out Output, err error) {
	if err := documents.ValidateForRender(in.Document); err != nil {
		return Output{}, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			out, err = Output{}, newLayoutError(in, fmt.Errorf("panic: %v", rec))
		}
	}()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(in.Document.Type.Info().Name+" "+in.Document.Number, true)
	if in.Business != nil {
		pdf.SetAuthor(in.Business.Name, true)
	}
	pdf.SetCreator("eckdocs", true)
	if !in.Document.IssuedAt.IsZero() {
		pdf.SetCreationDate(in.Document.IssuedAt)
	}

	family := coreFont(in.Theme.FontFamily)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	m := &fpdfMeasurer{pdf: pdf, family: family, tr: tr}

	model, err := buildLayout(in, m, r.opts)
	if err != nil {
		return Output{}, newLayoutError(in, err)
	}

	paintPDF(pdf, model, family, tr)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Output{}, newLayoutError(in, err)
	}

	preview, err := paintPreview(model, r.opts.PreviewWidth, family)
	if err != nil {
		return Output{}, newLayoutError(in, fmt.Errorf("preview: %w", err))
	}
	return Output{PDF: buf.Bytes(), Preview: preview, Pages: model.pages}, nil
}

// Preview renders only the PNG of the first page
func (r *Renderer) Preview(in render.Input) ([]byte, error) {
	out, err := r.Render(in)
	if err != nil {
		return nil, err
	}
	return out.Preview, nil
}

type fpdfMeasurer struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (m *fpdfMeasurer) width(text string, size float64, style string) float64 {
	m.pdf.SetFont(m.family, style, size)
	return m.pdf.GetStringWidth(m.tr(text))
}

func paintPDF(pdf *gofpdf.Fpdf, model *pageModel, family string, tr func(string) string) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	registered := make(map[string]bool)

	for page := 0; page < model.pages; page++ {
		pdf.AddPage()
		for _, o := range model.onPage(page) {
			switch o.kind {
			case opText:
				pdf.SetFont(family, o.style, o.size)
				pdf.SetTextColor(o.color.r, o.color.g, o.color.b)
				pdf.Text(o.x, o.y, tr(o.text))
			case opRect:
				pdf.SetFillColor(o.color.r, o.color.g, o.color.b)
				pdf.Rect(o.x, o.y, o.w, o.h, "F")
			case opLine:
				pdf.SetDrawColor(o.color.r, o.color.g, o.color.b)
				pdf.SetLineWidth(o.size)
				pdf.Line(o.x, o.y, o.x+o.w, o.y+o.h)
			case opImage:
				if !registered[o.image.name] {
					pdf.RegisterImageOptionsReader(o.image.name, opts, bytes.NewReader(o.image.png))
					registered[o.image.name] = true
				}
				pdf.ImageOptions(o.image.name, o.x, o.y, o.w, o.h, false, opts, 0, "")
			}
		}
	}
}

// coreFont maps a theme font family onto one of the PDF core fonts
func coreFont(family string) string {
	f := strings.ToLower(family)
	switch {
	case strings.Contains(f, "mono"), strings.Contains(f, "courier"), strings.Contains(f, "consol"):
		return "Courier"
	case strings.Contains(f, "times"), strings.Contains(f, "georgia"), strings.Contains(f, "garamond"),
		strings.Contains(f, "serif") && !strings.Contains(f, "sans"):
		return "Times"
	default:
		return "Helvetica"
	}
}

func qrPNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 256)
}
