package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DuplicateTolerance is the largest total difference (exclusive) at which two
// invoices with the same issuer and date are considered the same document.
var DuplicateTolerance = decimal.New(1, -2)

// DuplicateKey is the subset of invoice fields the duplicate heuristic reads.
type DuplicateKey struct {
	Number     string
	IssuerName string
	IssueDate  time.Time
	Total      decimal.Decimal
}

// KeyOf extracts the duplicate key of an invoice.
func KeyOf(inv *Invoice) DuplicateKey {
	return DuplicateKey{
		Number:     inv.Number,
		IssuerName: inv.IssuerName,
		IssueDate:  inv.IssueDate,
		Total:      inv.Total,
	}
}

// NormalizeIssuer lowercases, strips asterisks and trims surrounding space.
func NormalizeIssuer(name string) string {
	return strings.TrimSpace(strings.ToLower(strings.ReplaceAll(name, "*", "")))
}

// IsDuplicate reports whether a and b describe the same invoice. This is a
// heuristic meant to absorb transcription noise, not a uniqueness key:
//
//   - equal non-empty document numbers match, or
//   - equal non-empty normalized issuer names on the same calendar day whose
//     totals differ by strictly less than DuplicateTolerance match.
func IsDuplicate(a, b DuplicateKey) bool {
	na, nb := strings.TrimSpace(a.Number), strings.TrimSpace(b.Number)
	if na != "" && na == nb {
		return true
	}

	ia, ib := NormalizeIssuer(a.IssuerName), NormalizeIssuer(b.IssuerName)
	if ia == "" || ia != ib {
		return false
	}
	if !SameDay(a.IssueDate, b.IssueDate) {
		return false
	}
	return a.Total.Sub(b.Total).Abs().LessThan(DuplicateTolerance)
}

// FindDuplicate returns the first candidate matching key, or nil.
func FindDuplicate(key DuplicateKey, candidates []Invoice) *Invoice {
	for i := range candidates {
		if IsDuplicate(key, KeyOf(&candidates[i])) {
			return &candidates[i]
		}
	}
	return nil
}

// SameDay compares calendar dates, ignoring time of day and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
