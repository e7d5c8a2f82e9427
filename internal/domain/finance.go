package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineTotal is quantity × unit price, unrounded. Ingested invoices store this
// value as the item total.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// Totals is the result of pricing a set of line items.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Items    LineItems
}

// ComputeTotals prices manually entered items: each item's base is
// quantity × unit price less discount, its tax is base × rate / 100, and its
// total is base plus tax rounded to cents. Invoice totals are summed from
// unrounded values.
func ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	out := make(LineItems, 0, len(items))

	for _, it := range items {
		base := LineTotal(it.Quantity, it.UnitPrice).Sub(it.Discount)
		if base.IsNegative() {
			base = decimal.Zero
		}
		itemTax := base.Mul(it.TaxRate).Div(hundred)

		subtotal = subtotal.Add(base)
		tax = tax.Add(itemTax)

		it.Total = base.Add(itemTax).Round(2)
		out = append(out, it)
	}

	return Totals{
		Subtotal: subtotal.Round(2),
		Tax:      tax.Round(2),
		Total:    subtotal.Add(tax).Round(2),
		Items:    out,
	}
}

// StatusAfterPayment derives the invoice status from the amount paid so far.
// It returns the current status unchanged when nothing has been paid.
func StatusAfterPayment(current InvoiceStatus, total, paid decimal.Decimal) InvoiceStatus {
	switch {
	case paid.GreaterThanOrEqual(total) && total.IsPositive():
		return InvoiceStatusPaid
	case paid.IsPositive():
		return InvoiceStatusPartial
	default:
		return current
	}
}
