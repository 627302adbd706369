package render

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/xelth-com/eckdocs/internal/docx"
	"github.com/xelth-com/eckdocs/internal/storage"
)

// Merge failures. Both are recoverable by building the document programmatically.
// Other errors from Merge, such as a storage outage or a cancelled context, are not.
var (
	ErrTemplateBlobMissing = errors.New("template blob missing")
	ErrTemplateMalformed   = errors.New("template malformed")
)

// MergeOptions tunes the merger
type MergeOptions struct {
	// NormalizeRuns joins text tokens Word split across runs before substitution
	NormalizeRuns bool
}

// DefaultMergeOptions has run normalization on
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{NormalizeRuns: true}
}

// Merger fills DOCX templates from blob storage
type Merger struct {
	blobs     storage.BlobStore
	container string
	opts      MergeOptions
}

// NewMerger reads templates from container in blobs
func NewMerger(blobs storage.BlobStore, container string, opts MergeOptions) *Merger {
	return &Merger{blobs: blobs, container: container, opts: opts}
}

// Merge downloads the template at blobPath and fills it
func (m *Merger) Merge(ctx context.Context, blobPath string, in Input) ([]byte, error) {
	data, err := m.blobs.Download(ctx, blobPath, m.container)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateBlobMissing, blobPath)
		}
		return nil, fmt.Errorf("download template %s: %w", blobPath, err)
	}
	return MergeBytes(data, in, m.opts)
}

// MergeBytes fills a template given as raw DOCX bytes
func MergeBytes(template []byte, in Input, opts MergeOptions) ([]byte, error) {
	pkg, err := docx.Open(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateMalformed, err)
	}
	if err := MergePackage(pkg, in, opts); err != nil {
		return nil, err
	}
	out, err := pkg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateMalformed, err)
	}
	return out, nil
}

// MergePackage applies text substitution, the line-items table and the signature to pkg.
// Structural tokens are located and stripped before any value is substituted, so
// entered text that looks like {LineItems} or {Signature} stays plain text.
func MergePackage(pkg *docx.Package, in Input, opts MergeOptions) error {
	values := Values(in)
	body := pkg.Body()
	lineItems, signatures := findAnchors(body)

	roots := []*etree.Element{body}
	for _, name := range pkg.HeaderFooterParts() {
		part, err := pkg.Part(name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTemplateMalformed, err)
		}
		roots = append(roots, part.Root())
	}

	for _, root := range roots {
		for _, p := range docx.Paragraphs(root) {
			if opts.NormalizeRuns {
				normalizeRuns(p, textTokens)
			}
			for _, t := range docx.TextNodes(p) {
				if s := t.Text(); strings.Contains(s, "{") {
					if r := Substitute(s, values); r != s {
						docx.SetText(t, r)
					}
				}
			}
		}
	}

	for _, a := range lineItems {
		replaceLineItems(a, in)
	}
	for _, p := range signatures {
		if err := placeSignature(pkg, p, in); err != nil {
			return err
		}
	}
	return nil
}

// anchor is a paragraph that held {LineItems}; alone means nothing else was in it
type anchor struct {
	p     *etree.Element
	alone bool
}

// findAnchors records the paragraphs carrying structural tokens and removes the tokens
func findAnchors(body *etree.Element) (lineItems []anchor, signatures []*etree.Element) {
	for _, p := range docx.Paragraphs(body) {
		text := docx.ParagraphText(p)
		hasItems := strings.Contains(text, TokenLineItems)
		hasSig := strings.Contains(text, TokenSignature)
		if !hasItems && !hasSig {
			continue
		}
		normalizeRuns(p, []string{TokenLineItems, TokenSignature})
		if hasItems {
			lineItems = append(lineItems, anchor{p: p, alone: strings.TrimSpace(text) == TokenLineItems})
			stripToken(p, TokenLineItems)
		}
		if hasSig {
			signatures = append(signatures, p)
			stripToken(p, TokenSignature)
		}
	}
	return lineItems, signatures
}

// replaceLineItems swaps a {LineItems} paragraph for the table.
// A paragraph with other text keeps that text and gets the table after it.
func replaceLineItems(a anchor, in Input) {
	table := lineItemsTable(in)
	parent := a.p.Parent()

	if a.alone {
		docx.ReplaceElement(a.p, table)
	} else {
		docx.InsertAfter(a.p, table)
	}
	// a table cell must end with a paragraph
	if parent != nil && parent.Tag == "tc" {
		docx.InsertAfter(table, docx.EmptyParagraph())
	}
}

// placeSignature adds the signature image after p when there is one
func placeSignature(pkg *docx.Package, p *etree.Element, in Input) error {
	if !in.Signature.HasImage() {
		return nil
	}
	relID, err := pkg.AddImage(in.Signature.Image)
	if err != nil {
		return fmt.Errorf("embed signature: %w", err)
	}
	img := docx.InlineImage(relID, docx.SignatureWidthEMU, docx.SignatureHeightEMU, pkg.NextDrawingID(), "Signature")
	docx.InsertAfter(p, docx.Paragraph(docx.AlignLeft, img))
	return nil
}

func stripToken(p *etree.Element, token string) {
	for _, t := range docx.TextNodes(p) {
		if s := t.Text(); strings.Contains(s, token) {
			docx.SetText(t, strings.ReplaceAll(s, token, ""))
		}
	}
}

// normalizeRuns moves every token that spans several w:t nodes into the node
// where it starts. The paragraph text is unchanged; formatting of the first run wins.
func normalizeRuns(p *etree.Element, tokens []string) bool {
	nodes := docx.TextNodes(p)
	if len(nodes) < 2 {
		return false
	}

	texts := make([]string, len(nodes))
	var full strings.Builder
	for i, n := range nodes {
		texts[i] = n.Text()
		full.WriteString(texts[i])
	}
	joined := full.String()
	if !strings.Contains(joined, "{") {
		return false
	}

	// owner[k] is the node index that holds byte k of the joined text
	owner := make([]int, 0, len(joined))
	for i, s := range texts {
		for range len(s) {
			owner = append(owner, i)
		}
	}

	type span struct{ a, b int }
	var spans []span
	for _, tok := range tokens {
		for off := 0; ; {
			i := strings.Index(joined[off:], tok)
			if i < 0 {
				break
			}
			a := off + i
			spans = append(spans, span{a, a + len(tok)})
			off = a + len(tok)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].a < spans[j].a })

	changed := false
	for _, s := range spans {
		first := owner[s.a]
		if owner[s.b-1] == first {
			continue
		}
		for k := s.a; k < s.b; k++ {
			owner[k] = first
		}
		changed = true
	}
	if !changed {
		return false
	}

	rebuilt := make([]strings.Builder, len(nodes))
	for k := 0; k < len(joined); k++ {
		rebuilt[owner[k]].WriteByte(joined[k])
	}
	for i, n := range nodes {
		if s := rebuilt[i].String(); s != texts[i] {
			docx.SetText(n, s)
		}
	}
	return true
}
