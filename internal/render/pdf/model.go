package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	// decoders for logos and signatures
	_ "image/gif"
	_ "image/jpeg"

	"github.com/xelth-com/eckdocs/internal/theme"
)

// Page geometry in millimetres
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 20.0
	contentWidth = pageWidth - 2*margin
	bodyBottom   = pageHeight - margin - 6
	footerLine   = pageHeight - 12
	ptToMM       = 0.3528
)

// Signature box is 120x50 pt regardless of the image's aspect ratio
const (
	signatureW = 120 * ptToMM
	signatureH = 50 * ptToMM
)

type rgb struct{ r, g, b int }

func hexRGB(s string) rgb {
	r, g, b := theme.RGB(s)
	return rgb{r, g, b}
}

type opKind int

const (
	opText opKind = iota
	opRect
	opLine
	opImage
)

// op is one drawing instruction. Text y is the baseline; everything else uses top-left.
type op struct {
	kind  opKind
	page  int
	x, y  float64
	w, h  float64
	text  string
	size  float64
	style string
	color rgb
	image *pageImage
}

// pageImage is an image normalised to 8-bit PNG so both painters can use it
type pageImage struct {
	name string
	png  []byte
	img  image.Image
}

// pageModel is the laid-out document shared by the PDF and PNG painters
type pageModel struct {
	pages int
	ops   []op
}

func (m *pageModel) add(o op) {
	m.ops = append(m.ops, o)
}

func (m *pageModel) onPage(page int) []op {
	var out []op
	for _, o := range m.ops {
		if o.page == page {
			out = append(out, o)
		}
	}
	return out
}

// loadImage decodes data and re-encodes it as 8-bit RGBA PNG
func loadImage(name string, data []byte) (*pageImage, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%s is empty", name)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return &pageImage{name: name, png: buf.Bytes(), img: dst}, nil
}

// fit scales w x h into a box keeping the aspect ratio
func fit(w, h, boxW, boxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return boxW, boxH
	}
	scale := boxW / w
	if h*scale > boxH {
		scale = boxH / h
	}
	return w * scale, h * scale
}
