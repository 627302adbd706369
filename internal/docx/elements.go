package docx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Namespaces used by generated markup
const (
	NSW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NSA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

// Paragraph alignment values
const (
	AlignLeft   = ""
	AlignCenter = "center"
	AlignRight  = "right"
)

// RunStyle is character formatting. Size is in half-points, Color is RRGGBB.
type RunStyle struct {
	Bold   bool
	Italic bool
	Size   int
	Color  string
	Font   string
}

// Run creates a w:r holding text
func Run(text string, st RunStyle) *etree.Element {
	r := etree.NewElement("w:r")
	rPr := r.CreateElement("w:rPr")
	if st.Font != "" {
		f := rPr.CreateElement("w:rFonts")
		f.CreateAttr("w:ascii", st.Font)
		f.CreateAttr("w:hAnsi", st.Font)
		f.CreateAttr("w:cs", st.Font)
	}
	if st.Bold {
		rPr.CreateElement("w:b")
	}
	if st.Italic {
		rPr.CreateElement("w:i")
	}
	if st.Color != "" {
		rPr.CreateElement("w:color").CreateAttr("w:val", st.Color)
	}
	if st.Size > 0 {
		sz := strconv.Itoa(st.Size)
		rPr.CreateElement("w:sz").CreateAttr("w:val", sz)
		rPr.CreateElement("w:szCs").CreateAttr("w:val", sz)
	}
	if len(rPr.ChildElements()) == 0 {
		r.RemoveChild(rPr)
	}
	SetText(r.CreateElement("w:t"), text)
	return r
}

// Paragraph creates a w:p with the given alignment and runs
func Paragraph(align string, runs ...*etree.Element) *etree.Element {
	p := etree.NewElement("w:p")
	pPr := p.CreateElement("w:pPr")
	sp := pPr.CreateElement("w:spacing")
	sp.CreateAttr("w:after", "60")
	if align != AlignLeft {
		pPr.CreateElement("w:jc").CreateAttr("w:val", align)
	}
	for _, r := range runs {
		p.AddChild(r)
	}
	return p
}

// EmptyParagraph is a blank line
func EmptyParagraph() *etree.Element {
	return etree.NewElement("w:p")
}

// Cell is one table cell. Sub is an optional smaller second line.
type Cell struct {
	Text  string
	Sub   string
	Style RunStyle
	Align string
	Fill  string
}

// TableOptions controls borders and column widths (twips)
type TableOptions struct {
	Widths      []int
	BorderColor string
	BorderSize  int
	HeaderRows  int
}

// Table creates a bordered w:tbl. The first HeaderRows rows repeat on page breaks.
func Table(opts TableOptions, rows [][]Cell) *etree.Element {
	tbl := etree.NewElement("w:tbl")
	tblPr := tbl.CreateElement("w:tblPr")
	w := tblPr.CreateElement("w:tblW")
	w.CreateAttr("w:w", "5000")
	w.CreateAttr("w:type", "pct")

	color := opts.BorderColor
	if color == "" {
		color = "auto"
	}
	size := opts.BorderSize
	if size <= 0 {
		size = 4
	}
	borders := tblPr.CreateElement("w:tblBorders")
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		b := borders.CreateElement("w:" + side)
		b.CreateAttr("w:val", "single")
		b.CreateAttr("w:sz", strconv.Itoa(size))
		b.CreateAttr("w:space", "0")
		b.CreateAttr("w:color", color)
	}

	grid := tbl.CreateElement("w:tblGrid")
	for _, cw := range opts.Widths {
		grid.CreateElement("w:gridCol").CreateAttr("w:w", strconv.Itoa(cw))
	}

	for i, row := range rows {
		tr := tbl.CreateElement("w:tr")
		if i < opts.HeaderRows {
			tr.CreateElement("w:trPr").CreateElement("w:tblHeader")
		}
		for j, c := range row {
			tc := tr.CreateElement("w:tc")
			tcPr := tc.CreateElement("w:tcPr")
			if j < len(opts.Widths) {
				tcW := tcPr.CreateElement("w:tcW")
				tcW.CreateAttr("w:w", strconv.Itoa(opts.Widths[j]))
				tcW.CreateAttr("w:type", "dxa")
			}
			if c.Fill != "" {
				shd := tcPr.CreateElement("w:shd")
				shd.CreateAttr("w:val", "clear")
				shd.CreateAttr("w:color", "auto")
				shd.CreateAttr("w:fill", c.Fill)
			}
			tc.AddChild(Paragraph(c.Align, Run(c.Text, c.Style)))
			if c.Sub != "" {
				sub := c.Style
				sub.Bold = false
				sub.Size = 16
				sub.Color = "6B7280"
				tc.AddChild(Paragraph(c.Align, Run(c.Sub, sub)))
			}
		}
	}
	return tbl
}

// SetText sets a w:t value, preserving leading and trailing spaces
func SetText(t *etree.Element, text string) {
	t.SetText(text)
	if strings.TrimSpace(text) != text {
		if t.SelectAttr("xml:space") == nil {
			t.CreateAttr("xml:space", "preserve")
		}
	}
}
