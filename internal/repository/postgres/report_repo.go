package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

type reportRepo struct {
	db *sqlx.DB
}

// NewReportRepo creates a new PostgreSQL-backed ReportRepository.
func NewReportRepo(db *sqlx.DB) port.ReportRepository {
	return &reportRepo{db: db}
}

// Cancelled invoices are excluded from every aggregate.

func (r *reportRepo) Summary(ctx context.Context, scope *uuid.UUID) (*domain.ReportSummary, error) {
	query := `SELECT
		COALESCE(SUM(total), 0) AS total_billed,
		COALESCE(SUM(total) FILTER (WHERE status IN ('pending', 'partial')), 0) AS pending,
		COALESCE(SUM(total) FILTER (WHERE status = 'overdue'), 0) AS overdue,
		COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0) AS paid,
		COUNT(*) AS count
		FROM invoices
		WHERE ($1::uuid IS NULL OR company_id = $1) AND status <> 'cancelled'`

	var s domain.ReportSummary
	if err := r.db.GetContext(ctx, &s, query, scope); err != nil {
		return nil, fmt.Errorf("reportRepo.Summary: %w", err)
	}
	return &s, nil
}

func (r *reportRepo) Monthly(ctx context.Context, scope *uuid.UUID, from time.Time) ([]domain.MonthlyTotal, error) {
	query := `SELECT to_char(date_trunc('month', issue_date), 'YYYY-MM') AS month,
		COALESCE(SUM(total), 0) AS total,
		COUNT(*) AS count
		FROM invoices
		WHERE ($1::uuid IS NULL OR company_id = $1) AND status <> 'cancelled'
		AND issue_date >= $2::date
		GROUP BY 1
		ORDER BY 1`

	var rows []domain.MonthlyTotal
	if err := r.db.SelectContext(ctx, &rows, query, scope, from); err != nil {
		return nil, fmt.Errorf("reportRepo.Monthly: %w", err)
	}
	return rows, nil
}

func (r *reportRepo) TopContacts(ctx context.Context, companyID uuid.UUID, limit int) ([]domain.ContactTotal, error) {
	query := `SELECT c.id AS contact_id, c.name,
		COALESCE(SUM(i.total), 0) AS total,
		COUNT(i.id) AS count
		FROM contacts c
		LEFT JOIN invoices i ON i.contact_id = c.id AND i.status <> 'cancelled'
		WHERE c.company_id = $1 AND c.is_active
		GROUP BY c.id, c.name
		ORDER BY total DESC, c.name ASC
		LIMIT $2`

	var rows []domain.ContactTotal
	if err := r.db.SelectContext(ctx, &rows, query, companyID, limit); err != nil {
		return nil, fmt.Errorf("reportRepo.TopContacts: %w", err)
	}
	return rows, nil
}
