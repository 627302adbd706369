package render

import (
	"github.com/xelth-com/eckdocs/internal/docx"
	"github.com/xelth-com/eckdocs/internal/theme"
)

// StarterTemplate produces a DOCX template that uses every token once.
// It seeds the global templates and serves as a starting point for custom ones.
func StarterTemplate(name string, th theme.Theme) ([]byte, error) {
	th = th.Normalize()
	pkg := docx.New()
	font := th.FontFamily
	primary := theme.WordColor(th.PrimaryColor, "111827")
	secondary := theme.WordColor(th.SecondaryColor, "1F2937")
	accent := theme.WordColor(th.AccentColor, "F97316")

	heading := func(text string) {
		pkg.AppendBody(docx.Paragraph(docx.AlignLeft, docx.Run(text, docx.RunStyle{Bold: true, Size: 24, Color: secondary, Font: font})))
	}
	line := func(text string) {
		pkg.AppendBody(docx.Paragraph(docx.AlignLeft, docx.Run(text, docx.RunStyle{Size: 20, Font: font})))
	}
	blank := func() { pkg.AppendBody(docx.EmptyParagraph()) }

	pkg.AppendBody(docx.Paragraph(docx.AlignLeft, docx.Run(TokenBusinessName, docx.RunStyle{Bold: true, Size: 32, Color: primary, Font: font})))
	line(TokenBusinessPhone + " | " + TokenBusinessEmail)
	line(TokenBusinessAddress)
	blank()

	pkg.AppendBody(docx.Paragraph(docx.AlignRight, docx.Run(TokenDocumentType, docx.RunStyle{Bold: true, Size: 36, Color: accent, Font: font})))
	pkg.AppendBody(docx.Paragraph(docx.AlignRight, docx.Run("No. "+TokenDocumentNumber, docx.RunStyle{Size: 22, Font: font})))
	pkg.AppendBody(docx.Paragraph(docx.AlignRight, docx.Run("Date: "+TokenDocumentDate+"   Due: "+TokenDueDate, docx.RunStyle{Size: 20, Font: font})))
	blank()

	heading("Customer")
	line(TokenCustomerName)
	line(TokenCustomerPhone + " | " + TokenCustomerEmail)
	line(TokenCustomerAddress)
	line("Reference: " + TokenReference)
	blank()

	pkg.AppendBody(docx.Paragraph(docx.AlignLeft, docx.Run(TokenLineItems, docx.RunStyle{Font: font})))
	blank()

	pkg.AppendBody(docx.Paragraph(docx.AlignRight, docx.Run("Subtotal: "+TokenSubtotal, docx.RunStyle{Size: 20, Font: font})))
	pkg.AppendBody(docx.Paragraph(docx.AlignRight, docx.Run("Tax: "+TokenTax, docx.RunStyle{Size: 20, Font: font})))
	pkg.AppendBody(docx.Paragraph(docx.AlignRight, docx.Run("Total: "+TokenTotal, docx.RunStyle{Bold: true, Size: 24, Color: accent, Font: font})))
	line("All amounts in " + TokenCurrency)
	blank()

	heading("Notes")
	line(TokenNotes)
	blank()

	heading("Signature")
	pkg.AppendBody(docx.Paragraph(docx.AlignLeft, docx.Run(TokenSignature, docx.RunStyle{Font: font})))

	return pkg.Bytes()
}
