// Package render turns a document into a themed DOCX, either by merging a
// template or by building the document from scratch.
package render

import (
	"strings"
	"unicode/utf8"

	"github.com/xelth-com/eckdocs/internal/documents"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/theme"
)

// Template tokens
const (
	TokenBusinessName    = "{BusinessName}"
	TokenBusinessPhone   = "{BusinessPhone}"
	TokenBusinessEmail   = "{BusinessEmail}"
	TokenBusinessAddress = "{BusinessAddress}"
	TokenDocumentType    = "{DocumentType}"
	TokenDocumentNumber  = "{DocumentNumber}"
	TokenDocumentDate    = "{DocumentDate}"
	TokenDueDate         = "{DueDate}"
	TokenCustomerName    = "{CustomerName}"
	TokenCustomerPhone   = "{CustomerPhone}"
	TokenCustomerEmail   = "{CustomerEmail}"
	TokenCustomerAddress = "{CustomerAddress}"
	TokenSubtotal        = "{Subtotal}"
	TokenTax             = "{Tax}"
	TokenTotal           = "{Total}"
	TokenCurrency        = "{Currency}"
	TokenNotes           = "{Notes}"
	TokenReference       = "{Reference}"

	// Structural tokens replace whole paragraphs
	TokenLineItems = "{LineItems}"
	TokenSignature = "{Signature}"
)

var textTokens = []string{
	TokenBusinessName, TokenBusinessPhone, TokenBusinessEmail, TokenBusinessAddress,
	TokenDocumentType, TokenDocumentNumber, TokenDocumentDate, TokenDueDate,
	TokenCustomerName, TokenCustomerPhone, TokenCustomerEmail, TokenCustomerAddress,
	TokenSubtotal, TokenTax, TokenTotal, TokenCurrency, TokenNotes, TokenReference,
}

// TextTokens are substituted with plain text
func TextTokens() []string {
	return append([]string(nil), textTokens...)
}

// Tokens is the full vocabulary, text tokens first
func Tokens() []string {
	return append(TextTokens(), TokenLineItems, TokenSignature)
}

// Input is everything a render path needs
type Input struct {
	Document  *models.Document
	Business  *models.Business
	Theme     theme.Theme
	Signature documents.SignatureRender
	Logo      []byte
}

func (in Input) business() *models.Business {
	if in.Business == nil {
		return &models.Business{}
	}
	return in.Business
}

// Values maps every text token to its rendered value
func Values(in Input) map[string]string {
	doc, biz := in.Document, in.business()
	cur := doc.Currency
	v := map[string]string{
		TokenBusinessName:    biz.Name,
		TokenBusinessPhone:   biz.Phone,
		TokenBusinessEmail:   biz.Email,
		TokenBusinessAddress: biz.Address(),
		TokenDocumentType:    doc.Type.Info().Heading,
		TokenDocumentNumber:  doc.Number,
		TokenDocumentDate:    documents.FormatDate(doc.IssuedAt),
		TokenDueDate:         documents.FormatOptionalDate(doc.DueAt),
		TokenCustomerName:    doc.CustomerName,
		TokenCustomerPhone:   doc.CustomerPhone,
		TokenCustomerEmail:   doc.CustomerEmail,
		TokenCustomerAddress: documents.CustomerAddress(doc),
		TokenSubtotal:        documents.FormatMoney(cur, doc.Subtotal),
		TokenTax:             documents.FormatMoney(cur, doc.Tax),
		TokenTotal:           documents.FormatMoney(cur, doc.Total),
		TokenCurrency:        cur,
		TokenNotes:           doc.Notes,
		TokenReference:       doc.Reference,
	}
	for k, s := range v {
		v[k] = xmlSafe(s)
	}
	return v
}

// Substitute replaces every text token in s
func Substitute(s string, values map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	pairs := make([]string, 0, len(values)*2)
	for _, tok := range textTokens {
		if val, ok := values[tok]; ok {
			pairs = append(pairs, tok, val)
		}
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// xmlSafe drops characters XML 1.0 cannot carry and flattens line breaks
func xmlSafe(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\r':
		case r == '\n':
			b.WriteByte(' ')
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r == utf8.RuneError:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
