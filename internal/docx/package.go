// Package docx reads, edits and writes WordprocessingML packages.
// XML parts are edited as etree trees; everything else is carried through untouched.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Well-known part names
const (
	DocumentPart     = "word/document.xml"
	DocumentRelsPart = "word/_rels/document.xml.rels"
	ContentTypesPart = "[Content_Types].xml"
	PackageRelsPart  = "_rels/.rels"
)

// ErrMalformed is returned when bytes are not a usable DOCX package
var ErrMalformed = errors.New("malformed docx package")

const maxPartSize = 32 << 20

// Package is an opened DOCX
type Package struct {
	names []string
	files map[string][]byte
	parts map[string]*etree.Document
}

// Open parses a DOCX package and its main document part
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	p := &Package{files: make(map[string][]byte), parts: make(map[string]*etree.Document)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, f.Name, err)
		}
		b, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrMalformed, f.Name, err)
		}
		if len(b) > maxPartSize {
			return nil, fmt.Errorf("%w: %s too large", ErrMalformed, f.Name)
		}
		p.names = append(p.names, f.Name)
		p.files[f.Name] = b
	}

	doc, err := p.Part(DocumentPart)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil || doc.Root().FindElement("./w:body") == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrMalformed, DocumentPart)
	}
	return p, nil
}

// Part returns the parsed XML part, parsing it on first use
func (p *Package) Part(name string) (*etree.Document, error) {
	if d, ok := p.parts[name]; ok {
		return d, nil
	}
	b, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, name)
	}
	d := etree.NewDocument()
	if err := d.ReadFromBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	if d.Root() == nil {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformed, name)
	}
	p.parts[name] = d
	return d, nil
}

// Document is the main document part
func (p *Package) Document() *etree.Document {
	return p.parts[DocumentPart]
}

// Body is the w:body element of the main document
func (p *Package) Body() *etree.Element {
	return p.Document().Root().FindElement("./w:body")
}

// Has reports whether a part exists
func (p *Package) Has(name string) bool {
	_, ok := p.files[name]
	if !ok {
		_, ok = p.parts[name]
	}
	return ok
}

// SetFile adds or replaces a binary part
func (p *Package) SetFile(name string, data []byte) {
	if !p.Has(name) {
		p.names = append(p.names, name)
	}
	p.files[name] = data
	delete(p.parts, name)
}

// setPart adds or replaces an XML part
func (p *Package) setPart(name string, d *etree.Document) {
	if !p.Has(name) {
		p.names = append(p.names, name)
	}
	p.parts[name] = d
}

// HeaderFooterParts lists word/header*.xml and word/footer*.xml
func (p *Package) HeaderFooterParts() []string {
	var out []string
	for _, n := range p.names {
		if !strings.HasSuffix(n, ".xml") || strings.Count(n, "/") != 1 {
			continue
		}
		if strings.HasPrefix(n, "word/header") || strings.HasPrefix(n, "word/footer") {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// AppendBody adds el at the end of the body, before the trailing w:sectPr
func (p *Package) AppendBody(el *etree.Element) {
	body := p.Body()
	children := body.ChildElements()
	if n := len(children); n > 0 && children[n-1].Tag == "sectPr" {
		body.InsertChildAt(children[n-1].Index(), el)
		return
	}
	body.AddChild(el)
}

// Bytes serializes the package. [Content_Types].xml is written first.
func (p *Package) Bytes() ([]byte, error) {
	for name, d := range p.parts {
		b, err := d.WriteToBytes()
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", name, err)
		}
		p.files[name] = b
	}

	names := make([]string, 0, len(p.names))
	names = append(names, ContentTypesPart)
	for _, n := range p.names {
		if n != ContentTypesPart {
			names = append(names, n)
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range names {
		data, ok := p.files[n]
		if !ok {
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: n, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// New creates an empty A4 document with 20 mm margins
func New() *Package {
	p := &Package{files: make(map[string][]byte), parts: make(map[string]*etree.Document)}
	for _, f := range []struct{ name, xml string }{
		{ContentTypesPart, contentTypesXML},
		{PackageRelsPart, packageRelsXML},
		{DocumentPart, documentXML},
		{DocumentRelsPart, documentRelsXML},
	} {
		p.names = append(p.names, f.name)
		p.files[f.name] = []byte(f.xml)
	}
	// The skeleton is a constant; parsing it cannot fail.
	if _, err := p.Part(DocumentPart); err != nil {
		panic(err)
	}
	return p
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const packageRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const documentXML = xmlHeader + `<w:document xmlns:w="` + NSW + `" xmlns:r="` + NSR + `" xmlns:wp="` + NSWP + `" xmlns:a="` + NSA + `" xmlns:pic="` + NSPic + `">` +
	`<w:body>` +
	`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
	`<w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>` +
	`</w:body></w:document>`
