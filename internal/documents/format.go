package documents

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckdocs/internal/models"
)

// Date layouts used on rendered documents
const (
	DateLayout      = "02/01/2006"
	LongDateLayout  = "02 Jan 2006"
	SignatureLayout = "02 Jan 2006 15:04"
)

// FormatAmount renders d with two decimals and thousands separators ("1,234.00")
func FormatAmount(d decimal.Decimal) string {
	return group(d.StringFixed(2))
}

// FormatMoney prefixes the amount with the currency code ("KES 1,234.00")
func FormatMoney(currency string, d decimal.Decimal) string {
	return currency + " " + FormatAmount(d)
}

// FormatQuantity renders a quantity the same way as an amount
func FormatQuantity(d decimal.Decimal) string {
	return FormatAmount(d)
}

// FormatPercent renders a 0..1 rate as a whole percentage ("16%")
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}

// FormatDate renders t as dd/MM/yyyy, or "" for the zero time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatOptionalDate renders a nullable date
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

// group inserts commas into the integer part of a fixed-point string
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(frac)
	return b.String()
}

// CustomerAddressLines returns the non-empty billing address lines
func CustomerAddressLines(doc *models.Document) []string {
	var lines []string
	for _, l := range []string{doc.BillingAddressLine1, doc.BillingAddressLine2, doc.BillingCity, doc.BillingCountry} {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// CustomerAddress joins the billing address lines with ", "
func CustomerAddress(doc *models.Document) string {
	return strings.Join(CustomerAddressLines(doc), ", ")
}
