package domain

// statusTransitions lists the manual status changes allowed from each state.
// Cancelled is terminal.
var statusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusPending, InvoiceStatusCancelled},
	InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusPartial, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusPartial: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusPartial, InvoiceStatusPending, InvoiceStatusCancelled},
	InvoiceStatusPaid:    {InvoiceStatusPending, InvoiceStatusCancelled},
}

// CanTransition reports whether an invoice may move from one status to another.
func CanTransition(from, to InvoiceStatus) bool {
	if !ValidInvoiceStatuses[to] {
		return false
	}
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
