package documents

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xelth-com/eckdocs/internal/models"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234", "KES 1,234.00"},
		{"0", "KES 0.00"},
		{"999.5", "KES 999.50"},
		{"1000000.456", "KES 1,000,000.46"},
		{"-4060", "KES -4,060.00"},
		{"123456", "KES 123,456.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney("KES", decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "16%", FormatPercent(decimal.RequireFromString("0.16")))
	assert.Equal(t, "0%", FormatPercent(decimal.Zero))
	assert.Equal(t, "8%", FormatPercent(decimal.RequireFromString("0.075")))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "07/03/2025", FormatDate(d))
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "", FormatOptionalDate(nil))
}

func TestCustomerAddress(t *testing.T) {
	doc := &models.Document{BillingAddressLine1: "Moi Avenue", BillingCity: "Nairobi", BillingCountry: "Kenya"}
	assert.Equal(t, "Moi Avenue, Nairobi, Kenya", CustomerAddress(doc))
	assert.Equal(t, "", CustomerAddress(&models.Document{}))
}
