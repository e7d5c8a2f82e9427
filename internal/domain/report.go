package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportSummary aggregates invoice totals by status.
type ReportSummary struct {
	TotalBilled decimal.Decimal `db:"total_billed" json:"total_billed"`
	Pending     decimal.Decimal `db:"pending" json:"pending"`
	Overdue     decimal.Decimal `db:"overdue" json:"overdue"`
	Paid        decimal.Decimal `db:"paid" json:"paid"`
	Count       int             `db:"count" json:"count"`
}

// MonthlyTotal is one month bucket, keyed "2006-01".
type MonthlyTotal struct {
	Month string          `db:"month" json:"month"`
	Total decimal.Decimal `db:"total" json:"total"`
	Count int             `db:"count" json:"count"`
}

// ContactTotal ranks contacts by billed amount.
type ContactTotal struct {
	ContactID uuid.UUID       `db:"contact_id" json:"contact_id"`
	Name      string          `db:"name" json:"name"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Count     int             `db:"count" json:"count"`
}
