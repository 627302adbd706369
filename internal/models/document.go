package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is an invoice, receipt or quotation issued by a business.
// Customer fields are a snapshot taken at creation.
type Document struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID      uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_documents_business_type_number,priority:1" json:"businessId"`
	CreatedByUserID string         `gorm:"type:uuid;index" json:"createdByUserId"`
	TemplateID      *uuid.UUID     `gorm:"type:uuid" json:"templateId,omitempty"`
	Type            DocumentType   `gorm:"size:20;not null;uniqueIndex:idx_documents_business_type_number,priority:2" json:"type"`
	Status          DocumentStatus `gorm:"size:20;not null;default:'Draft';index" json:"status"`
	Number          string         `gorm:"size:40;not null;uniqueIndex:idx_documents_business_type_number,priority:3" json:"number"`
	Version         int            `gorm:"not null;default:1" json:"version"`

	Currency string          `gorm:"size:3;not null" json:"currency"`
	Subtotal decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"subtotal"`
	Tax      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"tax"`
	Total    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total"`

	IssuedAt time.Time  `gorm:"not null;index" json:"issuedAt"`
	DueAt    *time.Time `json:"dueAt,omitempty"`

	CustomerName         string `gorm:"size:200" json:"customerName"`
	CustomerPhone        string `gorm:"size:40" json:"customerPhone,omitempty"`
	CustomerEmail        string `gorm:"size:200" json:"customerEmail,omitempty"`
	BillingAddressLine1  string `json:"billingAddressLine1,omitempty"`
	BillingAddressLine2  string `json:"billingAddressLine2,omitempty"`
	BillingCity          string `json:"billingCity,omitempty"`
	BillingCountry       string `json:"billingCountry,omitempty"`
	Reference            string `gorm:"size:100" json:"reference,omitempty"`
	Notes                string `json:"notes,omitempty"`

	Lines        []DocumentLine `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"lines"`
	AppliedTheme datatypes.JSON `json:"appliedTheme,omitempty"`

	SignaturePath  string     `json:"-"`
	SignatureURL   string     `json:"signatureUrl,omitempty"`
	SignedBy       string     `json:"signedBy,omitempty"`
	SignedAt       *time.Time `json:"signedAt,omitempty"`
	SignatureNotes string     `json:"signatureNotes,omitempty"`

	DocxURL     string `json:"docxUrl,omitempty"`
	PdfURL      string `json:"pdfUrl,omitempty"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	RenderError string `json:"renderError,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (Document) TableName() string {
	return "documents"
}

// BeforeCreate assigns an id when the caller did not
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// HasSignature reports whether the document carries signature metadata
func (d *Document) HasSignature() bool {
	return d.SignedBy != "" || d.SignaturePath != "" || d.SignatureURL != ""
}

// DocumentLine is one line item of a document
type DocumentLine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"documentId"`
	Position    int             `gorm:"not null" json:"position"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"unitPrice"`
	TaxRate     decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0" json:"taxRate"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"lineTotal"`
}

// TableName specifies the table name
func (DocumentLine) TableName() string {
	return "document_lines"
}

// BeforeCreate assigns an id when the caller did not
func (l *DocumentLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
