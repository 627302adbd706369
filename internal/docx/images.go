package docx

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const imageRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

// EMU per inch is 914400; these bound signature images
const (
	SignatureWidthEMU  = 1828800
	SignatureHeightEMU = 609600
)

// ImageExt maps sniffed image bytes to a file extension and content type
func ImageExt(data []byte) (ext, contentType string, err error) {
	switch ct := http.DetectContentType(data); ct {
	case "image/png":
		return "png", ct, nil
	case "image/jpeg":
		return "jpeg", ct, nil
	case "image/gif":
		return "gif", ct, nil
	default:
		return "", "", fmt.Errorf("unsupported image type %s", ct)
	}
}

// AddImage stores data as a media part and returns its relationship id
func (p *Package) AddImage(data []byte) (string, error) {
	ext, ct, err := ImageExt(data)
	if err != nil {
		return "", err
	}
	rels, err := p.documentRels()
	if err != nil {
		return "", err
	}

	n := 1
	for p.Has(fmt.Sprintf("word/media/eck_image%d.%s", n, ext)) {
		n++
	}
	target := fmt.Sprintf("media/eck_image%d.%s", n, ext)
	p.SetFile("word/"+target, data)

	id := nextRelID(rels.Root())
	rel := rels.Root().CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", imageRelType)
	rel.CreateAttr("Target", target)

	if err := p.ensureDefaultContentType(ext, ct); err != nil {
		return "", err
	}
	p.ensureDrawingNamespaces()
	return id, nil
}

func (p *Package) documentRels() (*etree.Document, error) {
	if p.Has(DocumentRelsPart) {
		return p.Part(DocumentRelsPart)
	}
	d := etree.NewDocument()
	if err := d.ReadFromString(documentRelsXML); err != nil {
		return nil, err
	}
	p.setPart(DocumentRelsPart, d)
	return d, nil
}

func nextRelID(root *etree.Element) string {
	used := make(map[string]bool)
	for _, r := range root.SelectElements("Relationship") {
		used[r.SelectAttrValue("Id", "")] = true
	}
	n := len(used) + 1
	for used["rId"+strconv.Itoa(n)] {
		n++
	}
	return "rId" + strconv.Itoa(n)
}

func (p *Package) ensureDefaultContentType(ext, ct string) error {
	d, err := p.Part(ContentTypesPart)
	if err != nil {
		return err
	}
	for _, def := range d.Root().SelectElements("Default") {
		if strings.EqualFold(def.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}
	def := etree.NewElement("Default")
	def.CreateAttr("Extension", ext)
	def.CreateAttr("ContentType", ct)
	d.Root().InsertChildAt(0, def)
	return nil
}

// ensureDrawingNamespaces declares the prefixes inline pictures use on the document root
func (p *Package) ensureDrawingNamespaces() {
	root := p.Document().Root()
	for prefix, uri := range map[string]string{"r": NSR, "wp": NSWP, "a": NSA, "pic": NSPic} {
		if root.SelectAttr("xmlns:"+prefix) == nil {
			root.CreateAttr("xmlns:"+prefix, uri)
		}
	}
}

// NextDrawingID returns an unused wp:docPr id
func (p *Package) NextDrawingID() int {
	max := 0
	for _, d := range p.Document().Root().FindElements(".//wp:docPr") {
		if n, err := strconv.Atoi(d.SelectAttrValue("id", "")); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// InlineImage creates a run holding an inline picture of cx by cy EMU
func InlineImage(relID string, cx, cy int64, id int, name string) *etree.Element {
	ext := func(e *etree.Element) {
		e.CreateAttr("cx", strconv.FormatInt(cx, 10))
		e.CreateAttr("cy", strconv.FormatInt(cy, 10))
	}
	sid := strconv.Itoa(id)

	r := etree.NewElement("w:r")
	inline := r.CreateElement("w:drawing").CreateElement("wp:inline")
	for _, a := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(a, "0")
	}
	ext(inline.CreateElement("wp:extent"))
	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", sid)
	docPr.CreateAttr("name", name)

	graphic := inline.CreateElement("a:graphic")
	graphic.CreateAttr("xmlns:a", NSA)
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", NSPic)

	pic := data.CreateElement("pic:pic")
	pic.CreateAttr("xmlns:pic", NSPic)
	nv := pic.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", name)
	nv.CreateElement("pic:cNvPicPr")

	fill := pic.CreateElement("pic:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", relID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext(xfrm.CreateElement("a:ext"))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	return r
}
