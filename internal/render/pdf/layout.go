package pdf

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/render"
)

var errDoesNotFit = errors.New("content taller than a page")

// measurer returns the width in mm of text set in the given size (pt) and style
type measurer interface {
	width(text string, size float64, style string) float64
}

type palette struct {
	primary, secondary, accent, muted, rule, white rgb
}

// table columns as fractions of the content width
var columnFractions = []float64{0.38, 0.12, 0.18, 0.12, 0.20}

const cellPad = 2.0

type layouter struct {
	m     measurer
	in    render.Input
	opts  Options
	model *pageModel
	pal   palette
	page  int
	y     float64
}

func lineHeight(size float64) float64 {
	return size * ptToMM * 1.4
}

// buildLayout places every element of the document on A4 pages
func buildLayout(in render.Input, m measurer, opts Options) (*pageModel, error) {
	th := in.Theme.Normalize()
	l := &layouter{
		m:     m,
		in:    in,
		opts:  opts,
		model: &pageModel{pages: 1},
		pal: palette{
			primary:   hexRGB(th.PrimaryColor),
			secondary: hexRGB(th.SecondaryColor),
			accent:    hexRGB(th.AccentColor),
			muted:     rgb{107, 114, 128},
			rule:      rgb{209, 213, 219},
			white:     rgb{255, 255, 255},
		},
		y: margin,
	}

	l.header()
	l.customer()
	if err := l.table(); err != nil {
		return nil, err
	}
	if err := l.totals(); err != nil {
		return nil, err
	}
	if err := l.notes(); err != nil {
		return nil, err
	}
	if err := l.signature(); err != nil {
		return nil, err
	}
	l.footer()
	return l.model, nil
}

// text draws s with its top edge at top
func (l *layouter) text(x, top float64, s string, size float64, style string, c rgb) {
	if s == "" {
		return
	}
	l.model.add(op{kind: opText, page: l.page, x: x, y: top + size*ptToMM*0.8, text: s, size: size, style: style, color: c})
}

// textRight draws s ending at right
func (l *layouter) textRight(right, top float64, s string, size float64, style string, c rgb) {
	l.text(right-l.m.width(s, size, style), top, s, size, style, c)
}

func (l *layouter) rect(x, y, w, h float64, c rgb) {
	l.model.add(op{kind: opRect, page: l.page, x: x, y: y, w: w, h: h, color: c})
}

func (l *layouter) hline(x, y, w float64, c rgb, width float64) {
	l.model.add(op{kind: opLine, page: l.page, x: x, y: y, w: w, size: width, color: c})
}

func (l *layouter) image(img *pageImage, x, y, w, h float64) {
	l.model.add(op{kind: opImage, page: l.page, x: x, y: y, w: w, h: h, image: img})
}

// ensure starts a new page when h does not fit below the cursor.
// It reports whether a page break happened.
func (l *layouter) ensure(h float64) (bool, error) {
	if h > bodyBottom-margin {
		return false, errDoesNotFit
	}
	if l.y+h <= bodyBottom {
		return false, nil
	}
	l.page++
	l.model.pages = l.page + 1
	l.y = margin
	return true, nil
}

// wrap breaks s into lines no wider than width; over-long words are split
func (l *layouter) wrap(s string, width, size float64, style string) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r", ""), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for l.m.width(w, size, style) > width {
				head, rest := l.breakWord(w, width, size, style)
				if cur != "" {
					lines = append(lines, cur)
					cur = ""
				}
				lines = append(lines, head)
				w = rest
			}
			cand := w
			if cur != "" {
				cand = cur + " " + w
			}
			if l.m.width(cand, size, style) <= width {
				cur = cand
				continue
			}
			lines = append(lines, cur)
			cur = w
		}
		lines = append(lines, cur)
	}
	return lines
}

// breakWord returns the longest prefix of w that fits, at least one rune
func (l *layouter) breakWord(w string, width, size float64, style string) (string, string) {
	cut := 0
	for i := range w {
		if i > 0 && l.m.width(w[:i], size, style) > width {
			break
		}
		cut = i
	}
	if cut == 0 {
		_, n := utf8.DecodeRuneInString(w)
		cut = n
	}
	return w[:cut], w[cut:]
}

func (l *layouter) header() {
	biz := l.in.Business
	doc := l.in.Document
	top := l.y
	left := margin
	logoBottom := top

	if len(l.in.Logo) > 0 {
		if img, err := loadImage("logo", l.in.Logo); err == nil {
			b := img.img.Bounds()
			w, h := fit(float64(b.Dx()), float64(b.Dy()), 20, 20)
			l.image(img, margin, top, w, h)
			left = margin + w + 4
			logoBottom = top + h
		} else {
			log.Warn().Err(err).Str("document", doc.Number).Msg("Skipping logo")
		}
	}

	ly := top
	if biz != nil {
		nameWidth := contentWidth*0.55 - (left - margin)
		for _, line := range l.wrap(biz.Name, nameWidth, 18, "B") {
			l.text(left, ly, line, 18, "B", l.pal.primary)
			ly += lineHeight(18)
		}
		for _, s := range []string{biz.Phone, biz.Email, biz.Address()} {
			if s != "" {
				l.text(left, ly, s, 9, "", l.pal.secondary)
				ly += lineHeight(9)
			}
		}
	}

	right := margin + contentWidth
	ry := top
	l.textRight(right, ry, doc.Type.Info().Heading, 18, "B", l.pal.accent)
	ry += lineHeight(18)
	l.textRight(right, ry, "#"+doc.Number, 11, "", l.pal.primary)
	ry += lineHeight(11)
	l.textRight(right, ry, "Date: "+documents.FormatDate(doc.IssuedAt), 9, "", l.pal.secondary)
	ry += lineHeight(9)
	if doc.DueAt != nil {
		l.textRight(right, ry, "Due: "+documents.FormatDate(*doc.DueAt), 9, "", l.pal.secondary)
		ry += lineHeight(9)
	}

	l.y = max(ly, ry, logoBottom) + 4
	l.hline(margin, l.y, contentWidth, l.pal.accent, 0.6)
	l.y += 6
}

func (l *layouter) customer() {
	doc := l.in.Document
	l.text(margin, l.y, doc.Type.Info().CustomerLabel, 10, "B", l.pal.primary)
	l.y += lineHeight(10)

	lines := []string{doc.CustomerName, doc.CustomerPhone, doc.CustomerEmail}
	lines = append(lines, documents.CustomerAddressLines(doc)...)
	for _, s := range lines {
		if s != "" {
			l.text(margin, l.y, s, 10, "", l.pal.secondary)
			l.y += lineHeight(10)
		}
	}
	if doc.Reference != "" {
		l.y += 1
		l.text(margin, l.y, "Reference: "+doc.Reference, 9, "I", l.pal.primary)
		l.y += lineHeight(9)
	}
	l.y += 5
}

func (l *layouter) columns() (xs, ws []float64) {
	x := margin
	for _, f := range columnFractions {
		w := contentWidth * f
		xs = append(xs, x)
		ws = append(ws, w)
		x += w
	}
	return xs, ws
}

func (l *layouter) tableHeader() error {
	const h = 8.0
	if _, err := l.ensure(h + lineHeight(9) + 2*cellPad); err != nil {
		return err
	}
	xs, ws := l.columns()
	l.rect(margin, l.y, contentWidth, h, l.pal.accent)
	top := l.y + (h-lineHeight(9))/2
	for i, title := range []string{"Item", "Qty", "Price", "Tax", "Total"} {
		if i == 0 {
			l.text(xs[i]+cellPad, top, title, 9, "B", l.pal.white)
		} else {
			l.textRight(xs[i]+ws[i]-cellPad, top, title, 9, "B", l.pal.white)
		}
	}
	l.y += h
	return nil
}

func (l *layouter) table() error {
	doc := l.in.Document
	cur := doc.Currency
	xs, ws := l.columns()

	if err := l.tableHeader(); err != nil {
		return err
	}
	for i, line := range doc.Lines {
		nameLines := l.wrap(line.Name, ws[0]-2*cellPad, 9, "")
		var descLines []string
		if line.Description != "" {
			descLines = l.wrap(line.Description, ws[0]-2*cellPad, 8, "I")
		}
		rowH := float64(len(nameLines))*lineHeight(9) + float64(len(descLines))*lineHeight(8) + 2*cellPad

		broke, err := l.ensure(rowH)
		if err != nil {
			return fmt.Errorf("line item %d (%q): %w", i+1, line.Name, err)
		}
		if broke {
			if err := l.tableHeader(); err != nil {
				return err
			}
		}

		ty := l.y + cellPad
		for _, s := range nameLines {
			l.text(xs[0]+cellPad, ty, s, 9, "", l.pal.secondary)
			ty += lineHeight(9)
		}
		for _, s := range descLines {
			l.text(xs[0]+cellPad, ty, s, 8, "I", l.pal.muted)
			ty += lineHeight(8)
		}

		lineTotal := documents.LineTotal(line.Quantity, line.UnitPrice)
		cells := []string{
			documents.FormatQuantity(line.Quantity),
			documents.FormatMoney(cur, line.UnitPrice),
			documents.FormatPercent(line.TaxRate),
			documents.FormatMoney(cur, lineTotal),
		}
		for j, s := range cells {
			l.textRight(xs[j+1]+ws[j+1]-cellPad, l.y+cellPad, s, 9, "", l.pal.secondary)
		}

		l.y += rowH
		l.hline(margin, l.y, contentWidth, l.pal.rule, 0.2)
	}
	l.y += 4
	return nil
}

func (l *layouter) totals() error {
	doc := l.in.Document
	rows := 2
	if doc.Tax.IsPositive() {
		rows++
	}
	if _, err := l.ensure(float64(rows-1)*lineHeight(10) + lineHeight(14) + 2); err != nil {
		return err
	}

	labelX := margin + contentWidth*0.55
	right := margin + contentWidth
	row := func(label, amount string, size float64, style string, labelColor, amountColor rgb) {
		l.text(labelX, l.y, label, size, style, labelColor)
		l.textRight(right, l.y, amount, size, style, amountColor)
		l.y += lineHeight(size)
	}

	row("Subtotal:", documents.FormatMoney(doc.Currency, doc.Subtotal), 10, "", l.pal.primary, l.pal.secondary)
	if doc.Tax.IsPositive() {
		row("Tax:", documents.FormatMoney(doc.Currency, doc.Tax), 10, "", l.pal.primary, l.pal.secondary)
	}
	l.hline(labelX, l.y+0.5, right-labelX, l.pal.rule, 0.3)
	l.y += 1.5
	row("Total:", documents.FormatMoney(doc.Currency, doc.Total), 14, "B", l.pal.accent, l.pal.accent)
	l.y += 4
	return nil
}

func (l *layouter) notes() error {
	notes := strings.TrimSpace(l.in.Document.Notes)
	if notes == "" {
		return nil
	}
	if _, err := l.ensure(lineHeight(10) + lineHeight(9)); err != nil {
		return err
	}
	l.text(margin, l.y, "Notes", 10, "B", l.pal.primary)
	l.y += lineHeight(10)
	for _, s := range l.wrap(notes, contentWidth, 9, "") {
		if _, err := l.ensure(lineHeight(9)); err != nil {
			return err
		}
		l.text(margin, l.y, s, 9, "", l.pal.secondary)
		l.y += lineHeight(9)
	}
	l.y += 4
	return nil
}

func (l *layouter) signature() error {
	sig := l.in.Signature
	if !sig.Present() {
		return nil
	}
	need := lineHeight(10) + signatureH + 2 + 2*lineHeight(9)
	if _, err := l.ensure(need); err != nil {
		return err
	}

	l.text(margin, l.y, "Authorized Signature", 10, "B", l.pal.primary)
	l.y += lineHeight(10) + 1

	drawn := false
	if sig.HasImage() {
		img, err := loadImage("signature", sig.Image)
		if err != nil {
			return fmt.Errorf("signature image: %w", err)
		}
		l.image(img, margin, l.y, signatureW, signatureH)
		drawn = true
	}
	if !drawn {
		l.hline(margin, l.y+signatureH, signatureW, l.pal.muted, 0.3)
	}
	l.y += signatureH + 2

	l.text(margin, l.y, sig.Caption(), 9, "", l.pal.secondary)
	l.y += lineHeight(9)
	if sig.Notes != "" {
		l.text(margin, l.y, sig.Notes, 9, "I", l.pal.secondary)
		l.y += lineHeight(9)
	}
	return nil
}

func (l *layouter) footer() {
	var qr *pageImage
	if l.opts.QRCode {
		if data, err := qrPNG(l.qrContent()); err == nil {
			qr, _ = loadImage("qr", data)
		} else {
			log.Warn().Err(err).Msg("QR code generation failed")
		}
	}

	for p := 0; p < l.model.pages; p++ {
		label := fmt.Sprintf("Page %d", p+1)
		x := (pageWidth - l.m.width(label, 9, "")) / 2
		l.model.add(op{kind: opText, page: p, x: x, y: footerLine, text: label, size: 9, color: l.pal.secondary})
		if qr != nil && p == 0 {
			l.model.add(op{kind: opImage, page: p, x: pageWidth - margin - 14, y: pageHeight - 18, w: 14, h: 14, image: qr})
		}
	}
}

// qrContent is the verification URL when configured, otherwise a compact summary
func (l *layouter) qrContent() string {
	doc := l.in.Document
	if base := strings.TrimRight(l.opts.VerifyBaseURL, "/"); base != "" {
		return base + "/" + doc.Number
	}
	return strings.Join([]string{doc.Number, documents.FormatMoney(doc.Currency, doc.Total), documents.FormatDate(doc.IssuedAt)}, "|")
}
