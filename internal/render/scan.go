package render

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/xelth-com/eckdocs/internal/docx"
)

// TokenReport summarises what a template uses
type TokenReport struct {
	Found []string `json:"found"`
	// Split lists tokens that only appear when runs are joined
	Split []string `json:"split,omitempty"`
	// Unknown lists {Words} that are not in the vocabulary
	Unknown []string `json:"unknown,omitempty"`
}

// ScanTokens inspects a template without modifying it
func ScanTokens(pkg *docx.Package) TokenReport {
	known := make(map[string]bool)
	for _, t := range Tokens() {
		known[t] = true
	}

	found := make(map[string]bool)
	split := make(map[string]bool)
	unknown := make(map[string]bool)

	visit := func(root *etree.Element) {
		for _, p := range docx.Paragraphs(root) {
			whole := make(map[string]bool)
			for _, t := range docx.TextNodes(p) {
				for _, tok := range bracedWords(t.Text()) {
					whole[tok] = true
				}
			}
			for _, tok := range bracedWords(docx.ParagraphText(p)) {
				if !known[tok] {
					unknown[tok] = true
					continue
				}
				found[tok] = true
				if !whole[tok] {
					split[tok] = true
				}
			}
		}
	}

	visit(pkg.Body())
	for _, name := range pkg.HeaderFooterParts() {
		if part, err := pkg.Part(name); err == nil {
			visit(part.Root())
		}
	}

	return TokenReport{Found: keys(found), Split: keys(split), Unknown: keys(unknown)}
}

// bracedWords finds {Word} sequences made of letters only
func bracedWords(s string) []string {
	var out []string
	for {
		i := strings.IndexByte(s, '{')
		if i < 0 {
			return out
		}
		j := strings.IndexByte(s[i:], '}')
		if j < 0 {
			return out
		}
		word := s[i : i+j+1]
		if isWord(word[1 : len(word)-1]) {
			out = append(out, word)
			s = s[i+j+1:]
		} else {
			s = s[i+1:]
		}
	}
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func keys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
