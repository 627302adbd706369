package documents

import "errors"

// Precondition failures. Nothing is persisted when one of these is returned.
var (
	ErrNoLines         = errors.New("document must have at least one line item")
	ErrInvalidType     = errors.New("invalid document type")
	ErrInvalidLine     = errors.New("invalid line item")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
	ErrNotFound        = errors.New("document not found")
	ErrNotEditable     = errors.New("only draft documents can be edited")
	ErrForbidden       = errors.New("not a member of this business")
)

// ErrRenderFailed marks a document that was saved but whose files could not be generated
var ErrRenderFailed = errors.New("document saved but files could not be generated")

// ErrSignatureUnavailable is returned when a signed document is rendered without its signature image
var ErrSignatureUnavailable = errors.New("signature image unavailable")
