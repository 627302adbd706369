package pdf

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontsOnce sync.Once
	fontsErr  error
	ttfs      map[string]*truetype.Font

	facesMu sync.Mutex
	faces   = make(map[string]font.Face)
)

func loadFonts() {
	ttfs = make(map[string]*truetype.Font)
	for name, data := range map[string][]byte{
		"regular":  goregular.TTF,
		"bold":     gobold.TTF,
		"italic":   goitalic.TTF,
		"mono":     gomono.TTF,
		"monobold": gomonobold.TTF,
	} {
		f, err := truetype.Parse(data)
		if err != nil {
			fontsErr = fmt.Errorf("parse %s font: %w", name, err)
			return
		}
		ttfs[name] = f
	}
}

// face returns a cached face for the core family, style and pixel size
func face(family, style string, px float64) (font.Face, error) {
	fontsOnce.Do(loadFonts)
	if fontsErr != nil {
		return nil, fontsErr
	}

	name := "regular"
	switch {
	case family == "Courier" && style == "B":
		name = "monobold"
	case family == "Courier":
		name = "mono"
	case style == "B":
		name = "bold"
	case style == "I":
		name = "italic"
	}
	px = math.Round(px*2) / 2
	key := fmt.Sprintf("%s/%.1f", name, px)

	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[key]; ok {
		return f, nil
	}
	f := truetype.NewFace(ttfs[name], &truetype.Options{Size: px, DPI: 72, Hinting: font.HintingFull})
	faces[key] = f
	return f, nil
}

// paintPreview rasterizes the first page of model at width pixels
func paintPreview(model *pageModel, width int, family string) ([]byte, error) {
	scale := float64(width) / pageWidth
	height := int(math.Round(pageHeight * scale))

	dc := gg.NewContext(width, height)
	dc.SetRGB255(255, 255, 255)
	dc.Clear()

	for _, o := range model.onPage(0) {
		switch o.kind {
		case opText:
			f, err := face(family, o.style, o.size*ptToMM*scale)
			if err != nil {
				return nil, err
			}
			// gg draws through the shared face; guard it like the cache
			facesMu.Lock()
			dc.SetFontFace(f)
			dc.SetRGB255(o.color.r, o.color.g, o.color.b)
			dc.DrawString(o.text, o.x*scale, o.y*scale)
			facesMu.Unlock()
		case opRect:
			dc.SetRGB255(o.color.r, o.color.g, o.color.b)
			dc.DrawRectangle(o.x*scale, o.y*scale, o.w*scale, o.h*scale)
			dc.Fill()
		case opLine:
			dc.SetRGB255(o.color.r, o.color.g, o.color.b)
			dc.SetLineWidth(math.Max(1, o.size*scale))
			dc.DrawLine(o.x*scale, o.y*scale, (o.x+o.w)*scale, (o.y+o.h)*scale)
			dc.Stroke()
		case opImage:
			w := int(math.Max(1, math.Round(o.w*scale)))
			h := int(math.Max(1, math.Round(o.h*scale)))
			dst := image.NewRGBA(image.Rect(0, 0, w, h))
			xdraw.CatmullRom.Scale(dst, dst.Bounds(), o.image.img, o.image.img.Bounds(), xdraw.Over, nil)
			dc.DrawImage(dst, int(math.Round(o.x*scale)), int(math.Round(o.y*scale)))
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
