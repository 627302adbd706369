// Package documents holds the arithmetic, formatting and validation rules
// shared by every render path.
package documents

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckdocs/internal/models"
)

// Totals is the result of CalculateTotals
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal is quantity times unit price rounded to 2 places
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// CalculateTotals computes totals over lines. Tax is rounded once over the sum.
func CalculateTotals(lines []models.DocumentLine) Totals {
	subtotal := decimal.Zero
	rawTax := decimal.Zero
	for _, l := range lines {
		lt := LineTotal(l.Quantity, l.UnitPrice)
		subtotal = subtotal.Add(lt)
		rawTax = rawTax.Add(lt.Mul(l.TaxRate))
	}
	tax := rawTax.Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// ApplyTotals recomputes every stored line total and the document totals in place
func ApplyTotals(doc *models.Document) Totals {
	for i := range doc.Lines {
		doc.Lines[i].LineTotal = LineTotal(doc.Lines[i].Quantity, doc.Lines[i].UnitPrice)
	}
	t := CalculateTotals(doc.Lines)
	doc.Subtotal = t.Subtotal
	doc.Tax = t.Tax
	doc.Total = t.Total
	return t
}

// Line limits. Scales match the document_lines columns so stored values
// recompute to the same totals.
const (
	MaxLineNameLength = 200
	QuantityScale     = 3
	PriceScale        = 2
	TaxRateScale      = 4
)

var (
	maxQuantity  = decimal.NewFromInt(999_999)
	maxLineTotal = decimal.NewFromInt(999_999_999)
)

// ValidateLines checks line item invariants
func ValidateLines(lines []models.DocumentLine) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	one := decimal.NewFromInt(1)
	for i, l := range lines {
		n := i + 1
		switch {
		case strings.TrimSpace(l.Name) == "":
			return fmt.Errorf("%w: line %d has no name", ErrInvalidLine, n)
		case utf8.RuneCountInString(l.Name) > MaxLineNameLength:
			return fmt.Errorf("%w: line %d name exceeds %d characters", ErrInvalidLine, n, MaxLineNameLength)
		case !l.Quantity.IsPositive():
			return fmt.Errorf("%w: line %d quantity must be greater than zero", ErrInvalidLine, n)
		case l.Quantity.GreaterThan(maxQuantity):
			return fmt.Errorf("%w: line %d quantity cannot exceed 999,999", ErrInvalidLine, n)
		case !fitsScale(l.Quantity, QuantityScale):
			return fmt.Errorf("%w: line %d quantity allows at most %d decimals", ErrInvalidLine, n, QuantityScale)
		case l.UnitPrice.IsNegative():
			return fmt.Errorf("%w: line %d unit price must not be negative", ErrInvalidLine, n)
		case l.UnitPrice.GreaterThan(maxLineTotal):
			return fmt.Errorf("%w: line %d unit price is too large", ErrInvalidLine, n)
		case !fitsScale(l.UnitPrice, PriceScale):
			return fmt.Errorf("%w: line %d unit price allows at most %d decimals", ErrInvalidLine, n, PriceScale)
		case l.TaxRate.IsNegative() || l.TaxRate.GreaterThan(one):
			return fmt.Errorf("%w: line %d tax rate must be between 0 and 1", ErrInvalidLine, n)
		case !fitsScale(l.TaxRate, TaxRateScale):
			return fmt.Errorf("%w: line %d tax rate allows at most %d decimals", ErrInvalidLine, n, TaxRateScale)
		case l.Quantity.Mul(l.UnitPrice).GreaterThan(maxLineTotal):
			return fmt.Errorf("%w: line %d total is too large", ErrInvalidLine, n)
		}
	}
	return nil
}

func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// ValidateCurrency checks for an upper-case 3-letter code
func ValidateCurrency(currency string) error {
	if len(currency) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrency
		}
	}
	return nil
}

// ValidateForRender is the gate every render path goes through
func ValidateForRender(doc *models.Document) error {
	if doc == nil {
		return ErrNotFound
	}
	if len(doc.Lines) == 0 {
		return ErrNoLines
	}
	return nil
}
