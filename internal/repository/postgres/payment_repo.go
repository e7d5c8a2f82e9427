package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

type paymentRepo struct {
	db *sqlx.DB
}

// NewPaymentRepo creates a new PostgreSQL-backed PaymentRepository.
func NewPaymentRepo(db *sqlx.DB) port.PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Record(ctx context.Context, scope *uuid.UUID, p *domain.Payment) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &inv,
			`SELECT * FROM invoices WHERE id = $1 AND ($2::uuid IS NULL OR company_id = $2) FOR UPDATE`,
			p.InvoiceID, scope)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("paymentRepo.Record lock: %w", err)
		}
		if inv.Status == domain.InvoiceStatusCancelled {
			return domain.ErrInvoiceCancelled
		}

		p.ID = uuid.New()
		p.CompanyID = inv.CompanyID
		p.CreatedAt = time.Now().UTC()
		if p.PaidAt.IsZero() {
			p.PaidAt = p.CreatedAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payments (id, invoice_id, company_id, amount, paid_at, method, reference, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, p.InvoiceID, p.CompanyID, p.Amount, p.PaidAt, p.Method, p.Reference, p.CreatedBy, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("paymentRepo.Record insert: %w", err)
		}

		var paid decimal.Decimal
		err = tx.GetContext(ctx, &paid,
			"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1", p.InvoiceID)
		if err != nil {
			return fmt.Errorf("paymentRepo.Record sum: %w", err)
		}

		status := domain.StatusAfterPayment(inv.Status, inv.Total, paid)
		if status == domain.InvoiceStatusPaid && inv.PaidAt == nil {
			paidAt := p.PaidAt
			inv.PaidAt = &paidAt
		}
		inv.Status = status
		inv.UpdatedAt = p.CreatedAt

		_, err = tx.ExecContext(ctx,
			"UPDATE invoices SET status = $1, paid_at = $2, updated_at = $3 WHERE id = $4",
			inv.Status, inv.PaidAt, inv.UpdatedAt, inv.ID)
		if err != nil {
			return fmt.Errorf("paymentRepo.Record status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *paymentRepo) ListByInvoice(ctx context.Context, scope *uuid.UUID, invoiceID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.SelectContext(ctx, &payments,
		`SELECT * FROM payments WHERE invoice_id = $1 AND ($2::uuid IS NULL OR company_id = $2)
		ORDER BY paid_at ASC`, invoiceID, scope)
	if err != nil {
		return nil, fmt.Errorf("paymentRepo.ListByInvoice: %w", err)
	}
	return payments, nil
}
