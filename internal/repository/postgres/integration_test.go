package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

const testDSNEnv = "FACTURAIA_TEST_DATABASE_URL"

var migrateOnce sync.Once

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping postgres integration test", testDSNEnv)
	}

	migrateOnce.Do(func() {
		dir, err := filepath.Abs("../../../db/migrations")
		require.NoError(t, err)
		m, err := migrate.New("file://"+dir, dsn)
		require.NoError(t, err)
		defer m.Close()
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			require.NoError(t, err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			require.NoError(t, err)
		}
	})

	db, err := Open(dsn, 20, 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newCompany(t *testing.T, db *sqlx.DB, name string) *domain.Company {
	t.Helper()
	c := &domain.Company{
		Name:            name,
		TaxID:           uuid.NewString()[:13],
		DefaultCurrency: "MXN",
		DefaultTaxRate:  decimal.NewFromInt(16),
		InvoicePrefix:   "F",
		IsActive:        true,
	}
	require.NoError(t, NewCompanyRepo(db).Create(context.Background(), c))
	return c
}

func newInvoice(companyID uuid.UUID, number string) *domain.Invoice {
	return &domain.Invoice{
		CompanyID:  companyID,
		Number:     number,
		IssuerName: "Proveedor",
		IssueDate:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:     domain.InvoiceStatusPending,
		Type:       domain.InvoiceTypeExpense,
		Category:   domain.CategoryOther,
		Total:      decimal.RequireFromString("100.00"),
		Currency:   "MXN",
	}
}

func TestInvoiceRepo_TenantIsolation(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewInvoiceRepo(db)

	a := newCompany(t, db, "Empresa A")
	b := newCompany(t, db, "Empresa B")
	require.NoError(t, repo.Create(ctx, newInvoice(a.ID, "A-1")))
	require.NoError(t, repo.Create(ctx, newInvoice(a.ID, "A-2")))
	invB := newInvoice(b.ID, "B-1")
	require.NoError(t, repo.Create(ctx, invB))

	actorA := domain.Actor{UserID: uuid.New(), CompanyID: &a.ID, Role: domain.RoleUser}
	scope, err := actorA.Scope(&b.ID)
	require.NoError(t, err)

	invoices, total, err := repo.List(ctx, scope, port.InvoiceFilter{}, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, inv := range invoices {
		assert.Equal(t, a.ID, inv.CompanyID)
	}

	_, err = repo.GetByID(ctx, scope, invB.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.UpdateStatus(ctx, scope, invB.ID, domain.InvoiceStatusPaid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceRepo_CreateWithFolio_Concurrent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewInvoiceRepo(db)
	company := newCompany(t, db, "Folios")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.CreateWithFolio(ctx, newInvoice(company.ID, ""))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var folios []int64
	require.NoError(t, db.SelectContext(ctx, &folios,
		"SELECT folio FROM invoices WHERE company_id = $1 ORDER BY folio", company.ID))
	require.Len(t, folios, n)
	for i, f := range folios {
		assert.Equal(t, int64(i+1), f)
	}

	updated, err := NewCompanyRepo(db).GetByID(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), updated.FolioCounter)
}

func TestContactRepo_FindByNameFragment(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewContactRepo(db)
	company := newCompany(t, db, "Contactos")
	other := newCompany(t, db, "Otra")

	acme := &domain.Contact{CompanyID: company.ID, Name: "Acme Corp", TaxID: "AAA010101AAA", Type: domain.ContactTypeCustomer, IsActive: true}
	require.NoError(t, repo.Create(ctx, acme))
	require.NoError(t, repo.Create(ctx, &domain.Contact{CompanyID: other.ID, Name: "ACME", Type: domain.ContactTypeCustomer, IsActive: true}))

	found, err := repo.FindByNameFragment(ctx, company.ID, "ACME")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, found.ID)

	found, err = repo.FindByNameFragment(ctx, company.ID, "acme corp s.a. de c.v.")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, found.ID)

	_, err = repo.FindByNameFragment(ctx, company.ID, "100%")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindByNameFragment(ctx, company.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaymentRepo_Record(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	company := newCompany(t, db, "Pagos")
	inv := newInvoice(company.ID, "P-1")
	require.NoError(t, NewInvoiceRepo(db).Create(ctx, inv))
	repo := NewPaymentRepo(db)
	scope := &company.ID

	updated, err := repo.Record(ctx, scope, &domain.Payment{InvoiceID: inv.ID, Amount: decimal.NewFromInt(40), Method: domain.PaymentMethodTransfer})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPartial, updated.Status)

	updated, err = repo.Record(ctx, scope, &domain.Payment{InvoiceID: inv.ID, Amount: decimal.NewFromInt(60), Method: domain.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)
	assert.NotNil(t, updated.PaidAt)

	payments, err := repo.ListByInvoice(ctx, scope, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	otherCompany := uuid.New()
	_, err = repo.Record(ctx, &otherCompany, &domain.Payment{InvoiceID: inv.ID, Amount: decimal.NewFromInt(1), Method: domain.PaymentMethodCash})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceRepo_FindDuplicateCandidatesAndOverdue(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewInvoiceRepo(db)
	company := newCompany(t, db, "Duplicados")

	first := newInvoice(company.ID, "D-1")
	due := time.Now().UTC().AddDate(0, 0, -3)
	first.DueDate = &due
	require.NoError(t, repo.Create(ctx, first))

	candidates, err := repo.FindDuplicateCandidates(ctx, company.ID, "D-1", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	candidates, err = repo.FindDuplicateCandidates(ctx, company.ID, "", first.IssueDate)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.NotNil(t, domain.FindDuplicate(domain.DuplicateKey{IssuerName: "PROVEEDOR*", IssueDate: first.IssueDate, Total: decimal.RequireFromString("100.009")}, candidates))

	n, err := repo.MarkOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := repo.GetByID(ctx, nil, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusOverdue, got.Status)
}

func TestInvoiceRepo_FindDuplicateCandidates_IncludesCancelled(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewInvoiceRepo(db)
	company := newCompany(t, db, "Canceladas")

	inv := newInvoice(company.ID, "C-7")
	require.NoError(t, repo.Create(ctx, inv))
	require.NoError(t, repo.UpdateStatus(ctx, &company.ID, inv.ID, domain.InvoiceStatusCancelled))

	candidates, err := repo.FindDuplicateCandidates(ctx, company.ID, "C-7", inv.IssueDate)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, inv.ID, candidates[0].ID)
	assert.Equal(t, domain.InvoiceStatusCancelled, candidates[0].Status)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
	assert.Equal(t, "Acme", escapeLike("Acme"))
}
