package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// containers a paragraph's runs can be nested in
var runContainers = map[string]bool{
	"hyperlink":  true,
	"ins":        true,
	"smartTag":   true,
	"fldSimple":  true,
	"sdt":        true,
	"sdtContent": true,
	"customXml":  true,
}

// Paragraphs returns every w:p under root in document order
func Paragraphs(root *etree.Element) []*etree.Element {
	return root.FindElements(".//w:p")
}

// TextNodes returns the w:t elements of p's own runs in order.
// Paragraphs nested in text boxes are not included.
func TextNodes(p *etree.Element) []*etree.Element {
	var out []*etree.Element
	collectText(p, &out)
	return out
}

func collectText(e *etree.Element, out *[]*etree.Element) {
	for _, c := range e.ChildElements() {
		switch {
		case c.Tag == "r":
			for _, t := range c.ChildElements() {
				if t.Tag == "t" {
					*out = append(*out, t)
				}
			}
		case runContainers[c.Tag]:
			collectText(c, out)
		}
	}
}

// ParagraphText concatenates the text of p's runs
func ParagraphText(p *etree.Element) string {
	var b strings.Builder
	for _, t := range TextNodes(p) {
		b.WriteString(t.Text())
	}
	return b.String()
}

// ReplaceElement swaps old for repl at the same position
func ReplaceElement(old, repl *etree.Element) {
	parent := old.Parent()
	if parent == nil {
		return
	}
	idx := old.Index()
	parent.RemoveChild(old)
	parent.InsertChildAt(idx, repl)
}

// InsertAfter places el right after ref
func InsertAfter(ref, el *etree.Element) {
	parent := ref.Parent()
	if parent == nil {
		return
	}
	parent.InsertChildAt(ref.Index()+1, el)
}
