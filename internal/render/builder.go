package render

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xelth-com/eckdocs/internal/docx"
	"github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/theme"
)

// logo box in EMU (0.6 in square)
const logoEMU = 548640

// Build creates a DOCX for the document without any template
func Build(in Input) ([]byte, error) {
	if err := documents.ValidateForRender(in.Document); err != nil {
		return nil, err
	}
	pkg := docx.New()
	b := &builder{pkg: pkg, in: in}

	b.header()
	b.customer()
	b.dates()
	pkg.AppendBody(lineItemsTable(in))
	b.totals()
	b.notes()
	b.signature()

	data, err := pkg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return data, nil
}

type builder struct {
	pkg *docx.Package
	in  Input
}

func (b *builder) style(bold bool, size int, color string) docx.RunStyle {
	return docx.RunStyle{Bold: bold, Size: size, Color: color, Font: b.in.Theme.FontFamily}
}

func (b *builder) primary() string   { return theme.WordColor(b.in.Theme.PrimaryColor, "111827") }
func (b *builder) secondary() string { return theme.WordColor(b.in.Theme.SecondaryColor, "1F2937") }
func (b *builder) accent() string    { return theme.WordColor(b.in.Theme.AccentColor, "F97316") }

func (b *builder) line(text string, st docx.RunStyle) {
	b.lineAligned(docx.AlignLeft, text, st)
}

func (b *builder) lineAligned(align, text string, st docx.RunStyle) {
	b.pkg.AppendBody(docx.Paragraph(align, docx.Run(xmlSafe(text), st)))
}

func (b *builder) optional(label, text string, st docx.RunStyle) {
	if text != "" {
		b.line(label+text, st)
	}
}

func (b *builder) header() {
	biz := b.in.business()
	doc := b.in.Document

	if len(b.in.Logo) > 0 {
		if relID, err := b.pkg.AddImage(b.in.Logo); err == nil {
			img := docx.InlineImage(relID, logoEMU, logoEMU, b.pkg.NextDrawingID(), "Logo")
			b.pkg.AppendBody(docx.Paragraph(docx.AlignLeft, img))
		} else {
			log.Warn().Err(err).Str("document", doc.Number).Msg("Skipping logo")
		}
	}

	b.line(biz.Name, b.style(true, 32, b.primary()))
	body := b.style(false, 20, b.secondary())
	b.optional("", biz.Phone, body)
	b.optional("", biz.Email, body)
	b.optional("", biz.Address(), body)
	b.pkg.AppendBody(docx.EmptyParagraph())

	b.lineAligned(docx.AlignRight, doc.Type.Info().Heading, b.style(true, 36, b.accent()))
	b.lineAligned(docx.AlignRight, "Number: "+doc.Number, b.style(false, 22, b.primary()))
	b.pkg.AppendBody(docx.EmptyParagraph())
}

func (b *builder) customer() {
	doc := b.in.Document
	b.line(doc.Type.Info().CustomerLabel, b.style(true, 22, b.primary()))
	body := b.style(false, 20, b.secondary())
	b.optional("", doc.CustomerName, body)
	b.optional("", doc.CustomerPhone, body)
	b.optional("", doc.CustomerEmail, body)
	for _, l := range documents.CustomerAddressLines(doc) {
		b.line(l, body)
	}
	b.pkg.AppendBody(docx.EmptyParagraph())
}

func (b *builder) dates() {
	doc := b.in.Document
	body := b.style(false, 20, b.secondary())
	b.line("Issued: "+doc.IssuedAt.Format(documents.LongDateLayout), body)
	if doc.DueAt != nil {
		b.line("Due: "+doc.DueAt.Format(documents.LongDateLayout), body)
	}
	b.optional("Reference: ", doc.Reference, body)
	b.pkg.AppendBody(docx.EmptyParagraph())
}

func (b *builder) totals() {
	doc := b.in.Document
	b.pkg.AppendBody(docx.EmptyParagraph())

	body := b.style(false, 20, b.secondary())
	b.lineAligned(docx.AlignRight, "Subtotal: "+documents.FormatMoney(doc.Currency, doc.Subtotal), body)
	if doc.Tax.IsPositive() {
		b.lineAligned(docx.AlignRight, "Tax: "+documents.FormatMoney(doc.Currency, doc.Tax), body)
	}
	b.lineAligned(docx.AlignRight, "Total: "+documents.FormatMoney(doc.Currency, doc.Total), b.style(true, 24, b.accent()))
}

func (b *builder) notes() {
	doc := b.in.Document
	if doc.Notes == "" {
		return
	}
	b.pkg.AppendBody(docx.EmptyParagraph())
	b.line("Notes", b.style(true, 22, b.primary()))
	b.line(doc.Notes, b.style(false, 20, b.secondary()))
}

func (b *builder) signature() {
	sig := b.in.Signature
	if !sig.Present() {
		return
	}
	b.pkg.AppendBody(docx.EmptyParagraph())
	b.line("Authorized Signature", b.style(true, 22, b.primary()))

	if sig.HasImage() {
		if relID, err := b.pkg.AddImage(sig.Image); err == nil {
			img := docx.InlineImage(relID, docx.SignatureWidthEMU, docx.SignatureHeightEMU, b.pkg.NextDrawingID(), "Signature")
			b.pkg.AppendBody(docx.Paragraph(docx.AlignLeft, img))
		} else {
			log.Warn().Err(err).Str("document", b.in.Document.Number).Msg("Signature image not embeddable")
		}
	}

	body := b.style(false, 20, b.secondary())
	b.line(sig.Caption(), body)
	b.optional("", sig.Notes, body)
}
