package extraction

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"facturaia/internal/domain"
)

// ItemSumTolerance is how far the item sum may drift from the total before
// the invoice is flagged for review.
var ItemSumTolerance = decimal.NewFromInt(1)

// Review runs the non-fatal checks on a parsed payload and returns one
// message per issue. taxRate is the percentage the total may include on top
// of the item sum.
func Review(p *Payload, taxRate decimal.Decimal) []string {
	var warnings []string

	if strings.TrimSpace(p.Numero) == "" {
		warnings = append(warnings, "missing invoice number")
	}
	if _, ok := ParseDate(p.Fecha); !ok {
		warnings = append(warnings, fmt.Sprintf("unrecognized date %q", p.Fecha))
	}
	if !p.Total.IsPositive() {
		warnings = append(warnings, "total is missing or not positive")
	}
	if cur := strings.TrimSpace(p.Moneda); cur != "" {
		if _, ok := ParseCurrency(cur); !ok {
			warnings = append(warnings, fmt.Sprintf("unrecognized currency %q, using company default", cur))
		}
	}
	if cat := strings.TrimSpace(p.Categoria); cat != "" {
		if _, ok := domain.ParseCategory(cat); !ok {
			warnings = append(warnings, fmt.Sprintf("unknown category %q", cat))
		}
	}

	if len(p.Items) > 0 {
		sum := decimal.Zero
		for _, it := range p.LineItems() {
			sum = sum.Add(it.Total)
		}
		withTax := sum.Mul(decimal.NewFromInt(100).Add(taxRate)).Div(decimal.NewFromInt(100))
		if !within(sum, p.Total.Decimal) && !within(withTax, p.Total.Decimal) {
			warnings = append(warnings, fmt.Sprintf("item sum %s does not match total %s",
				sum.StringFixed(2), p.Total.StringFixed(2)))
		}
	}
	return warnings
}

func within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(ItemSumTolerance)
}
