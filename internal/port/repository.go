package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"facturaia/internal/domain"
)

// A nil scope on any method below means "no company predicate" and is only
// ever passed for super admins. Callers resolve it with domain.Actor.Scope.

// CompanyRepository defines the contract for company persistence.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	// First returns the oldest company, used when ingestion has no caller company.
	First(ctx context.Context) (*domain.Company, error)
	List(ctx context.Context, scope *uuid.UUID, offset, limit int) ([]domain.Company, int, error)
	Update(ctx context.Context, company *domain.Company) error
}

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, scope *uuid.UUID, offset, limit int) ([]domain.User, int, error)
	Update(ctx context.Context, scope *uuid.UUID, user *domain.User) error
	Delete(ctx context.Context, scope *uuid.UUID, id uuid.UUID) error
}

// ContactFilter narrows contact listings.
type ContactFilter struct {
	Search string
	Type   *domain.ContactType
}

// ContactRepository defines the contract for contact persistence.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.Contact, error)
	List(ctx context.Context, scope *uuid.UUID, filter ContactFilter, offset, limit int) ([]domain.Contact, int, error)
	Update(ctx context.Context, scope *uuid.UUID, contact *domain.Contact) error
	Deactivate(ctx context.Context, scope *uuid.UUID, id uuid.UUID) error
	// FindByNameFragment returns an active contact of companyID whose name
	// contains name, or is contained in it, case-insensitively.
	FindByNameFragment(ctx context.Context, companyID uuid.UUID, name string) (*domain.Contact, error)
	Stats(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.ContactStats, error)
	Count(ctx context.Context, companyID uuid.UUID) (int, error)
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Status    *domain.InvoiceStatus
	Type      *domain.InvoiceType
	ContactID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// InvoiceRepository defines the contract for invoice persistence.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	// CreateWithFolio increments the company's folio counter and inserts the
	// invoice in one transaction, setting Folio, Series and Number.
	CreateWithFolio(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, scope *uuid.UUID, filter InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	UpdateStatus(ctx context.Context, scope *uuid.UUID, id uuid.UUID, status domain.InvoiceStatus) error
	// FindDuplicateCandidates returns invoices of companyID sharing the
	// document number or the issue date. Callers apply domain.FindDuplicate.
	FindDuplicateCandidates(ctx context.Context, companyID uuid.UUID, number string, issueDate time.Time) ([]domain.Invoice, error)
	// MarkOverdue flips pending and partial invoices due before asOf to overdue.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// PaymentRepository defines the contract for payment persistence.
type PaymentRepository interface {
	// Record inserts the payment and re-derives the invoice status from the
	// paid sum in one transaction. It returns the updated invoice.
	Record(ctx context.Context, scope *uuid.UUID, payment *domain.Payment) (*domain.Invoice, error)
	ListByInvoice(ctx context.Context, scope *uuid.UUID, invoiceID uuid.UUID) ([]domain.Payment, error)
}

// ReportRepository defines read-only aggregate queries.
type ReportRepository interface {
	Summary(ctx context.Context, scope *uuid.UUID) (*domain.ReportSummary, error)
	Monthly(ctx context.Context, scope *uuid.UUID, from time.Time) ([]domain.MonthlyTotal, error)
	TopContacts(ctx context.Context, companyID uuid.UUID, limit int) ([]domain.ContactTotal, error)
}
