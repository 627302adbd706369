package models

import "strings"

// DocumentType is the kind of transactional document
type DocumentType string

const (
	DocumentTypeInvoice   DocumentType = "Invoice"
	DocumentTypeReceipt   DocumentType = "Receipt"
	DocumentTypeQuotation DocumentType = "Quotation"
)

// DocumentTypeInfo is everything that varies by document type
type DocumentTypeInfo struct {
	Name          string
	Heading       string
	Prefix        string
	Container     string
	CustomerLabel string
}

var documentTypes = map[DocumentType]DocumentTypeInfo{
	DocumentTypeInvoice: {
		Name:          "Invoice",
		Heading:       "INVOICE",
		Prefix:        "INV-",
		Container:     "invoices",
		CustomerLabel: "Bill To:",
	},
	DocumentTypeReceipt: {
		Name:          "Receipt",
		Heading:       "RECEIPT",
		Prefix:        "RCPT-",
		Container:     "receipts",
		CustomerLabel: "Paid By:",
	},
	DocumentTypeQuotation: {
		Name:          "Quotation",
		Heading:       "QUOTATION",
		Prefix:        "QUO-",
		Container:     "quotations",
		CustomerLabel: "Bill To:",
	},
}

// DocumentTypes returns the supported types in display order
func DocumentTypes() []DocumentType {
	return []DocumentType{DocumentTypeInvoice, DocumentTypeReceipt, DocumentTypeQuotation}
}

// Valid reports whether t is one of the supported types
func (t DocumentType) Valid() bool {
	_, ok := documentTypes[t]
	return ok
}

// Info returns the lookup entry for t. Unknown types get a generic entry.
func (t DocumentType) Info() DocumentTypeInfo {
	if info, ok := documentTypes[t]; ok {
		return info
	}
	return DocumentTypeInfo{
		Name:          string(t),
		Heading:       "DOCUMENT",
		Prefix:        "DOC-",
		Container:     "documents",
		CustomerLabel: "Bill To:",
	}
}

// ParseDocumentType matches s case-insensitively against the supported types
func ParseDocumentType(s string) (DocumentType, bool) {
	for _, t := range DocumentTypes() {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// DocumentStatus tracks a document through its lifecycle
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "Draft"
	DocumentStatusIssued    DocumentStatus = "Issued"
	DocumentStatusSigned    DocumentStatus = "Signed"
	DocumentStatusCancelled DocumentStatus = "Cancelled"
)

// ParseDocumentStatus matches s case-insensitively
func ParseDocumentStatus(s string) (DocumentStatus, bool) {
	for _, st := range []DocumentStatus{DocumentStatusDraft, DocumentStatusIssued, DocumentStatusSigned, DocumentStatusCancelled} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}
