package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceInsert = `INSERT INTO invoices (id, company_id, contact_id, number, series, folio,
	issuer_name, issue_date, due_date, paid_at, status, type, category, payment_method,
	subtotal, tax, total, currency, notes, items, source_file, storage_key, extracted_by,
	extraction_warnings, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
	$19, $20, $21, $22, $23, $24, $25, $26, $27)`

const invoiceSelect = `SELECT i.*, c.name AS contact_name
	FROM invoices i LEFT JOIN contacts c ON c.id = i.contact_id`

func insertInvoice(ctx context.Context, ext sqlx.ExecerContext, inv *domain.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Items == nil {
		inv.Items = domain.LineItems{}
	}
	if inv.ExtractionWarnings == nil {
		inv.ExtractionWarnings = domain.StringList{}
	}

	_, err := ext.ExecContext(ctx, invoiceInsert,
		inv.ID, inv.CompanyID, inv.ContactID, inv.Number, inv.Series, inv.Folio,
		inv.IssuerName, inv.IssueDate, inv.DueDate, inv.PaidAt, inv.Status, inv.Type,
		inv.Category, inv.PaymentMethod, inv.Subtotal, inv.Tax, inv.Total, inv.Currency,
		inv.Notes, inv.Items, inv.SourceFile, inv.StorageKey, inv.ExtractedBy,
		inv.ExtractionWarnings, inv.CreatedBy, inv.CreatedAt, inv.UpdatedAt)
	return err
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	if err := insertInvoice(ctx, r.db, inv); err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

// CreateWithFolio holds the company row lock from the counter bump until
// commit, so concurrent creators for one company serialize on it.
func (r *invoiceRepo) CreateWithFolio(ctx context.Context, inv *domain.Invoice) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var next struct {
			Folio  int64  `db:"folio_counter"`
			Prefix string `db:"invoice_prefix"`
		}
		err := tx.GetContext(ctx, &next,
			`UPDATE companies SET folio_counter = folio_counter + 1, updated_at = NOW()
			WHERE id = $1 RETURNING folio_counter, invoice_prefix`, inv.CompanyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("invoiceRepo.CreateWithFolio counter: %w", err)
		}

		folio := next.Folio
		inv.Folio = &folio
		inv.Series = next.Prefix
		inv.Number = fmt.Sprintf("%s-%d", next.Prefix, folio)

		if err := insertInvoice(ctx, tx, inv); err != nil {
			return fmt.Errorf("invoiceRepo.CreateWithFolio insert: %w", err)
		}
		return nil
	})
}

func (r *invoiceRepo) GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		invoiceSelect+" WHERE i.id = $1 AND ($2::uuid IS NULL OR i.company_id = $2)", id, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, scope *uuid.UUID, f port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR i.company_id = $1)
		AND ($2::text IS NULL OR i.status = $2)
		AND ($3::text IS NULL OR i.type = $3)
		AND ($4::uuid IS NULL OR i.contact_id = $4)
		AND ($5::date IS NULL OR i.issue_date >= $5)
		AND ($6::date IS NULL OR i.issue_date <= $6)`
	args := []any{scope, f.Status, f.Type, f.ContactID, f.From, f.To}

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices i"+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	var invoices []domain.Invoice
	err = r.db.SelectContext(ctx, &invoices,
		invoiceSelect+where+" ORDER BY i.issue_date DESC, i.created_at DESC LIMIT $7 OFFSET $8",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, scope *uuid.UUID, id uuid.UUID, status domain.InvoiceStatus) error {
	query := `UPDATE invoices SET status = $1::text,
		paid_at = CASE WHEN $1::text = 'paid' THEN COALESCE(paid_at, NOW()) ELSE paid_at END,
		updated_at = NOW()
		WHERE id = $2 AND ($3::uuid IS NULL OR company_id = $3)`
	result, err := r.db.ExecContext(ctx, query, status, id, scope)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindDuplicateCandidates includes cancelled invoices: a deleted invoice still
// owns its document, so re-uploading it is a duplicate.
func (r *invoiceRepo) FindDuplicateCandidates(ctx context.Context, companyID uuid.UUID, number string, issueDate time.Time) ([]domain.Invoice, error) {
	query := `SELECT * FROM invoices
		WHERE company_id = $1
		AND ((number <> '' AND number = $2) OR issue_date = $3::date)
		ORDER BY created_at ASC`

	var candidates []domain.Invoice
	if err := r.db.SelectContext(ctx, &candidates, query, companyID, number, issueDate); err != nil {
		return nil, fmt.Errorf("invoiceRepo.FindDuplicateCandidates: %w", err)
	}
	return candidates, nil
}

func (r *invoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status = 'overdue', updated_at = NOW()
		WHERE status IN ('pending', 'partial') AND due_date IS NOT NULL AND due_date < $1::date`, asOf)
	if err != nil {
		return 0, fmt.Errorf("invoiceRepo.MarkOverdue: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
