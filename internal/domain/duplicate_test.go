package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"facturaia/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalizeIssuer(t *testing.T) {
	assert.Equal(t, "acme corp", domain.NormalizeIssuer("  **ACME Corp*  "))
	assert.Equal(t, "", domain.NormalizeIssuer(" * "))
}

func TestIsDuplicate(t *testing.T) {
	base := domain.DuplicateKey{
		Number:     "A-100",
		IssuerName: "Proveedora del Norte SA",
		IssueDate:  day("2024-03-15"),
		Total:      dec("1160.00"),
	}

	tests := []struct {
		name     string
		other    domain.DuplicateKey
		expected bool
	}{
		{
			name:     "same number, everything else different",
			other:    domain.DuplicateKey{Number: "A-100", IssuerName: "Otro", IssueDate: day("2020-01-01"), Total: dec("1")},
			expected: true,
		},
		{
			name:     "same number with surrounding spaces",
			other:    domain.DuplicateKey{Number: " A-100 "},
			expected: true,
		},
		{
			name:     "fuzzy match ignoring case, asterisks and spaces",
			other:    domain.DuplicateKey{Number: "X-1", IssuerName: " *PROVEEDORA DEL NORTE SA* ", IssueDate: day("2024-03-15"), Total: dec("1160.00")},
			expected: true,
		},
		{
			name:     "total differs by 0.009 matches",
			other:    domain.DuplicateKey{IssuerName: "Proveedora del Norte SA", IssueDate: day("2024-03-15"), Total: dec("1160.009")},
			expected: true,
		},
		{
			name:     "total differs by exactly 0.01 does not match",
			other:    domain.DuplicateKey{IssuerName: "Proveedora del Norte SA", IssueDate: day("2024-03-15"), Total: dec("1160.01")},
			expected: false,
		},
		{
			name:     "total differs by 0.01 below does not match",
			other:    domain.DuplicateKey{IssuerName: "Proveedora del Norte SA", IssueDate: day("2024-03-15"), Total: dec("1159.99")},
			expected: false,
		},
		{
			name:     "different day",
			other:    domain.DuplicateKey{IssuerName: "Proveedora del Norte SA", IssueDate: day("2024-03-16"), Total: dec("1160.00")},
			expected: false,
		},
		{
			name:     "different issuer",
			other:    domain.DuplicateKey{IssuerName: "Proveedora del Sur SA", IssueDate: day("2024-03-15"), Total: dec("1160.00")},
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.IsDuplicate(base, tt.other))
			assert.Equal(t, tt.expected, domain.IsDuplicate(tt.other, base), "heuristic is symmetric")
		})
	}
}

func TestIsDuplicate_EmptyFieldsNeverMatch(t *testing.T) {
	a := domain.DuplicateKey{IssueDate: day("2024-01-01"), Total: dec("10")}
	b := domain.DuplicateKey{IssueDate: day("2024-01-01"), Total: dec("10")}

	assert.False(t, domain.IsDuplicate(a, b), "blank numbers and blank issuers are not evidence of sameness")
}

func TestIsDuplicate_DateIgnoresTimeOfDay(t *testing.T) {
	a := domain.DuplicateKey{IssuerName: "x", IssueDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Total: dec("1")}
	b := domain.DuplicateKey{IssuerName: "X", IssueDate: time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC), Total: dec("1")}

	assert.True(t, domain.IsDuplicate(a, b))
}

func TestFindDuplicate(t *testing.T) {
	first := domain.Invoice{ID: uuid.New(), Number: "B-1", IssuerName: "Uno", IssueDate: day("2024-01-01"), Total: dec("5")}
	second := domain.Invoice{ID: uuid.New(), Number: "B-2", IssuerName: "Dos", IssueDate: day("2024-01-02"), Total: dec("7")}

	got := domain.FindDuplicate(domain.DuplicateKey{Number: "B-2"}, []domain.Invoice{first, second})
	if assert.NotNil(t, got) {
		assert.Equal(t, second.ID, got.ID)
	}

	assert.Nil(t, domain.FindDuplicate(domain.DuplicateKey{Number: "B-3"}, []domain.Invoice{first, second}))
}
