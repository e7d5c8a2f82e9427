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

type companyRepo struct {
	db *sqlx.DB
}

// NewCompanyRepo creates a new PostgreSQL-backed CompanyRepository.
func NewCompanyRepo(db *sqlx.DB) port.CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, c *domain.Company) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO companies (id, name, tax_id, address, phone, email, default_currency,
		default_tax_rate, invoice_prefix, folio_counter, ai_config, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.TaxID, c.Address, c.Phone, c.Email, c.DefaultCurrency,
		c.DefaultTaxRate, c.InvoicePrefix, c.FolioCounter, c.AIConfig, c.IsActive,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_companies_tax_id") {
			return domain.ErrDuplicateTaxID
		}
		return fmt.Errorf("companyRepo.Create: %w", err)
	}
	return nil
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var c domain.Company
	err := r.db.GetContext(ctx, &c, "SELECT * FROM companies WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("companyRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *companyRepo) First(ctx context.Context) (*domain.Company, error) {
	var c domain.Company
	err := r.db.GetContext(ctx, &c,
		"SELECT * FROM companies WHERE is_active ORDER BY created_at ASC, id ASC LIMIT 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("companyRepo.First: %w", err)
	}
	return &c, nil
}

func (r *companyRepo) List(ctx context.Context, scope *uuid.UUID, offset, limit int) ([]domain.Company, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM companies WHERE ($1::uuid IS NULL OR id = $1)", scope)
	if err != nil {
		return nil, 0, fmt.Errorf("companyRepo.List count: %w", err)
	}

	var companies []domain.Company
	err = r.db.SelectContext(ctx, &companies,
		`SELECT * FROM companies WHERE ($1::uuid IS NULL OR id = $1)
		ORDER BY created_at ASC LIMIT $2 OFFSET $3`, scope, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("companyRepo.List: %w", err)
	}
	return companies, total, nil
}

// Update writes profile and configuration fields. folio_counter is owned by
// invoiceRepo.CreateWithFolio and never written here.
func (r *companyRepo) Update(ctx context.Context, c *domain.Company) error {
	c.UpdatedAt = time.Now().UTC()
	query := `UPDATE companies SET name = $1, tax_id = $2, address = $3, phone = $4, email = $5,
		default_currency = $6, default_tax_rate = $7, invoice_prefix = $8, ai_config = $9,
		is_active = $10, updated_at = $11
		WHERE id = $12`
	result, err := r.db.ExecContext(ctx, query,
		c.Name, c.TaxID, c.Address, c.Phone, c.Email, c.DefaultCurrency, c.DefaultTaxRate,
		c.InvoicePrefix, c.AIConfig, c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		if isUniqueViolation(err, "uq_companies_tax_id") {
			return domain.ErrDuplicateTaxID
		}
		return fmt.Errorf("companyRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
