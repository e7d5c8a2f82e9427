package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		want     bool
	}{
		{InvoiceStatusDraft, InvoiceStatusPending, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, false},
		{InvoiceStatusPending, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},
		{InvoiceStatusPaid, InvoiceStatusPending, true},
		{InvoiceStatusPaid, InvoiceStatusOverdue, false},
		{InvoiceStatusCancelled, InvoiceStatusPending, false},
		{InvoiceStatusPending, InvoiceStatusPending, false},
		{InvoiceStatusPending, InvoiceStatus("archived"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}
