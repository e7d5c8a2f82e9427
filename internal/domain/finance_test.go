package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"facturaia/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		qty      string
		price    string
		expected string
	}{
		{"simple", "2", "10.50", "21"},
		{"fractional quantity", "1.5", "3.33", "4.995"},
		{"zero quantity", "0", "99.99", "0"},
		{"zero price", "7", "0", "0"},
		{"both zero", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.LineTotal(dec(tt.qty), dec(tt.price))
			assert.True(t, got.Equal(dec(tt.expected)), "got %s want %s", got, tt.expected)
		})
	}
}

func TestComputeTotals_WithTax(t *testing.T) {
	items := []domain.LineItem{
		{Description: "Consultoría", Quantity: dec("2"), UnitPrice: dec("100"), TaxRate: dec("16")},
		{Description: "Licencia", Quantity: dec("1"), UnitPrice: dec("50.005"), TaxRate: dec("0")},
	}

	totals := domain.ComputeTotals(items)

	assert.Equal(t, "250.01", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "32.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "282.01", totals.Total.StringFixed(2))
	assert.Len(t, totals.Items, 2)
	assert.Equal(t, "232.00", totals.Items[0].Total.StringFixed(2))
	assert.Equal(t, "50.01", totals.Items[1].Total.StringFixed(2))
}

func TestComputeTotals_DiscountNeverNegative(t *testing.T) {
	items := []domain.LineItem{
		{Quantity: dec("1"), UnitPrice: dec("10"), Discount: dec("15"), TaxRate: dec("16")},
	}

	totals := domain.ComputeTotals(items)

	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.Items[0].Total.IsZero())
}

func TestComputeTotals_ZeroCases(t *testing.T) {
	items := []domain.LineItem{
		{Quantity: dec("0"), UnitPrice: dec("10"), TaxRate: dec("16")},
		{Quantity: dec("3"), UnitPrice: dec("0"), TaxRate: dec("16")},
	}

	totals := domain.ComputeTotals(items)

	for _, it := range totals.Items {
		assert.True(t, it.Total.IsZero())
	}
	assert.True(t, totals.Total.IsZero())
}

func TestStatusAfterPayment(t *testing.T) {
	total := dec("100.00")

	assert.Equal(t, domain.InvoiceStatusPending, domain.StatusAfterPayment(domain.InvoiceStatusPending, total, decimal.Zero))
	assert.Equal(t, domain.InvoiceStatusPartial, domain.StatusAfterPayment(domain.InvoiceStatusPending, total, dec("40")))
	assert.Equal(t, domain.InvoiceStatusPaid, domain.StatusAfterPayment(domain.InvoiceStatusPartial, total, dec("100")))
	assert.Equal(t, domain.InvoiceStatusPaid, domain.StatusAfterPayment(domain.InvoiceStatusOverdue, total, dec("120")))
}
