package render

import (
	"github.com/beevik/etree"

	"github.com/xelth-com/eckdocs/internal/docx"
	"github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/theme"
)

// column widths in twips; they add up to the 170 mm text width
var lineItemWidths = []int{3662, 1157, 1735, 1157, 1927}

var lineItemHeaders = []string{"Item", "Qty", "Price", "Tax", "Total"}

// lineItemsTable builds the 5-column table both DOCX paths use
func lineItemsTable(in Input) *etree.Element {
	doc := in.Document
	font := in.Theme.FontFamily
	cur := doc.Currency

	header := make([]docx.Cell, len(lineItemHeaders))
	for i, h := range lineItemHeaders {
		header[i] = docx.Cell{
			Text:  h,
			Style: docx.RunStyle{Bold: true, Color: "FFFFFF", Font: font, Size: 20},
			Fill:  theme.WordColor(in.Theme.SecondaryColor, "1F2937"),
			Align: numericAlign(i),
		}
	}

	rows := [][]docx.Cell{header}
	body := docx.RunStyle{Font: font, Size: 20}
	for _, l := range doc.Lines {
		lineTotal := documents.LineTotal(l.Quantity, l.UnitPrice)
		rows = append(rows, []docx.Cell{
			{Text: xmlSafe(l.Name), Sub: xmlSafe(l.Description), Style: body},
			{Text: documents.FormatQuantity(l.Quantity), Style: body, Align: docx.AlignRight},
			{Text: documents.FormatMoney(cur, l.UnitPrice), Style: body, Align: docx.AlignRight},
			{Text: documents.FormatPercent(l.TaxRate), Style: body, Align: docx.AlignRight},
			{Text: documents.FormatMoney(cur, lineTotal), Style: body, Align: docx.AlignRight},
		})
	}

	return docx.Table(docx.TableOptions{
		Widths:     lineItemWidths,
		BorderSize: 4,
		HeaderRows: 1,
	}, rows)
}

func numericAlign(col int) string {
	if col == 0 {
		return docx.AlignLeft
	}
	return docx.AlignRight
}
