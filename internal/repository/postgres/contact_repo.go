package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

type contactRepo struct {
	db *sqlx.DB
}

// NewContactRepo creates a new PostgreSQL-backed ContactRepository.
func NewContactRepo(db *sqlx.DB) port.ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) Create(ctx context.Context, c *domain.Contact) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `INSERT INTO contacts (id, company_id, name, tax_id, type, address, phone, email,
		contact_person, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.CompanyID, c.Name, c.TaxID, c.Type, c.Address, c.Phone, c.Email,
		c.ContactPerson, c.Notes, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("contactRepo.Create: %w", err)
	}
	return nil
}

func (r *contactRepo) GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact
	err := r.db.GetContext(ctx, &c,
		"SELECT * FROM contacts WHERE id = $1 AND ($2::uuid IS NULL OR company_id = $2)", id, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("contactRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *contactRepo) List(ctx context.Context, scope *uuid.UUID, filter port.ContactFilter, offset, limit int) ([]domain.Contact, int, error) {
	var search *string
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		search = &pattern
	}

	where := `is_active
		AND ($1::uuid IS NULL OR company_id = $1)
		AND ($2::text IS NULL OR name ILIKE $2 ESCAPE '\' OR tax_id ILIKE $2 ESCAPE '\')
		AND ($3::text IS NULL OR type = $3)`

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM contacts WHERE "+where,
		scope, search, filter.Type)
	if err != nil {
		return nil, 0, fmt.Errorf("contactRepo.List count: %w", err)
	}

	var contacts []domain.Contact
	err = r.db.SelectContext(ctx, &contacts,
		"SELECT * FROM contacts WHERE "+where+" ORDER BY name ASC LIMIT $4 OFFSET $5",
		scope, search, filter.Type, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("contactRepo.List: %w", err)
	}
	return contacts, total, nil
}

func (r *contactRepo) Update(ctx context.Context, scope *uuid.UUID, c *domain.Contact) error {
	c.UpdatedAt = time.Now().UTC()
	query := `UPDATE contacts SET name = $1, tax_id = $2, type = $3, address = $4, phone = $5,
		email = $6, contact_person = $7, notes = $8, is_active = $9, updated_at = $10
		WHERE id = $11 AND ($12::uuid IS NULL OR company_id = $12)`
	result, err := r.db.ExecContext(ctx, query,
		c.Name, c.TaxID, c.Type, c.Address, c.Phone, c.Email, c.ContactPerson, c.Notes,
		c.IsActive, c.UpdatedAt, c.ID, scope)
	if err != nil {
		return fmt.Errorf("contactRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *contactRepo) Deactivate(ctx context.Context, scope *uuid.UUID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active AND ($2::uuid IS NULL OR company_id = $2)`, id, scope)
	if err != nil {
		return fmt.Errorf("contactRepo.Deactivate: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByNameFragment matches in both directions so "ACME" finds "Acme Corp"
// and "Acme Corporation SA de CV" finds "Acme Corporation". An exact
// case-insensitive match wins, then the oldest contact.
func (r *contactRepo) FindByNameFragment(ctx context.Context, companyID uuid.UUID, name string) (*domain.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT * FROM contacts
		WHERE company_id = $1 AND is_active AND name <> ''
		AND (
			name ILIKE '%' || $2::text || '%' ESCAPE '\'
			OR $3::text ILIKE '%' || replace(replace(replace(name, '\', '\\'), '%', '\%'), '_', '\_') || '%' ESCAPE '\'
		)
		ORDER BY (lower(name) = lower($3::text)) DESC, created_at ASC
		LIMIT 1`

	var c domain.Contact
	err := r.db.GetContext(ctx, &c, query, companyID, escapeLike(name), name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("contactRepo.FindByNameFragment: %w", err)
	}
	return &c, nil
}

func (r *contactRepo) Stats(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.ContactStats, error) {
	if _, err := r.GetByID(ctx, scope, id); err != nil {
		return nil, err
	}

	query := `SELECT $1::uuid AS contact_id,
		COUNT(*) AS invoice_count,
		COALESCE(SUM(total), 0) AS total_billed,
		COALESCE(SUM(total) FILTER (WHERE status IN ('pending', 'partial', 'overdue')), 0) AS pending_balance,
		COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0) AS paid_total
		FROM invoices
		WHERE contact_id = $1 AND status <> 'cancelled'`

	var stats domain.ContactStats
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		return nil, fmt.Errorf("contactRepo.Stats: %w", err)
	}
	return &stats, nil
}

func (r *contactRepo) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM contacts WHERE company_id = $1 AND is_active", companyID)
	if err != nil {
		return 0, fmt.Errorf("contactRepo.Count: %w", err)
	}
	return n, nil
}

// escapeLike escapes LIKE metacharacters so s matches literally under ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
