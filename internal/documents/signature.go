package documents

import (
	"time"

	"github.com/xelth-com/eckdocs/internal/models"
)

// SignatureRender is what a render path needs to draw a signature block.
// It is never persisted.
type SignatureRender struct {
	Image    []byte
	SignedBy string
	SignedAt *time.Time
	Notes    string
}

// HasImage reports whether image bytes are present
func (s SignatureRender) HasImage() bool {
	return len(s.Image) > 0
}

// Present reports whether a signature block should be drawn at all
func (s SignatureRender) Present() bool {
	return s.HasImage() || s.SignedBy != ""
}

// Caption returns "Signed by X on ..." or "Signature pending"
func (s SignatureRender) Caption() string {
	if s.SignedBy == "" {
		return "Signature pending"
	}
	if s.SignedAt == nil {
		return "Signed by " + s.SignedBy
	}
	return "Signed by " + s.SignedBy + " on " + s.SignedAt.Format(SignatureLayout)
}

// SignatureFromDocument copies signature metadata; image bytes are attached by the caller
func SignatureFromDocument(doc *models.Document, image []byte) SignatureRender {
	return SignatureRender{
		Image:    image,
		SignedBy: doc.SignedBy,
		SignedAt: doc.SignedAt,
		Notes:    doc.SignatureNotes,
	}
}
