package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/extraction"
	"facturaia/internal/llm"
	"facturaia/internal/port"
	"facturaia/internal/service"
	"facturaia/mocks"
)

const acmeReply = "Aquí está la factura:\n```json\n" + `{
  "numero": "A-100",
  "emisorNombre": "Proveedor SA",
  "clienteNombre": "ACME",
  "fecha": "2024-03-15",
  "total": 116,
  "moneda": "MXN",
  "categoria": "servicios",
  "items": [{"descripcion": "Soporte", "cantidad": 1, "precio": 100}]
}` + "\n```"

// memInvoices is an in-memory InvoiceRepository for the ingestion flow.
type memInvoices struct {
	port.InvoiceRepository
	stored  []domain.Invoice
	creates int
	fail    error
}

func (m *memInvoices) Create(_ context.Context, inv *domain.Invoice) error {
	m.creates++
	if m.fail != nil {
		return m.fail
	}
	m.stored = append(m.stored, *inv)
	return nil
}

func (m *memInvoices) FindDuplicateCandidates(_ context.Context, companyID uuid.UUID, number string, issueDate time.Time) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.stored {
		if inv.CompanyID != companyID {
			continue
		}
		if (number != "" && inv.Number == number) || domain.SameDay(inv.IssueDate, issueDate) {
			out = append(out, inv)
		}
	}
	return out, nil
}

type ingestHarness struct {
	extractor *mocks.MockTextExtractor
	llm       *mocks.MockLLMClient
	companies *mocks.MockCompanyRepo
	contacts  *mocks.MockContactRepo
	invoices  *memInvoices
	company   *domain.Company
}

func newIngestHarness() *ingestHarness {
	h := &ingestHarness{
		extractor: new(mocks.MockTextExtractor),
		llm:       new(mocks.MockLLMClient),
		companies: new(mocks.MockCompanyRepo),
		contacts:  new(mocks.MockContactRepo),
		invoices:  &memInvoices{},
		company: &domain.Company{
			ID:              uuid.New(),
			Name:            "Mi Empresa",
			DefaultCurrency: "MXN",
			DefaultTaxRate:  decimal.NewFromInt(16),
			AIConfig:        domain.AIConfig{SelectedProvider: "groq", GroqKey: "gsk-company"},
		},
	}
	return h
}

func (h *ingestHarness) service(storage port.ObjectStorage) service.IngestionService {
	return service.NewIngestionService(h.extractor, h.llm, h.companies, h.contacts, h.invoices,
		storage, &config.S3Config{Bucket: "test-bucket"})
}

func (h *ingestHarness) input() service.IngestInput {
	return service.IngestInput{Data: []byte("%PDF-1.4 fake"), Filename: "factura.pdf", CompanyID: &h.company.ID}
}

func (h *ingestHarness) expectHappyPath(reply string) {
	h.extractor.On("Extract", mock.Anything, mock.Anything, "factura.pdf").Return("FACTURA A-100 ACME", nil)
	h.companies.On("GetByID", mock.Anything, h.company.ID).Return(h.company, nil)
	h.llm.On("Chat", mock.Anything, mock.Anything).Return(&port.ChatResult{Text: reply, Provider: "groq (llama)"}, nil)
}

func TestIngest_PersistsNewInvoice(t *testing.T) {
	h := newIngestHarness()
	h.expectHappyPath(acmeReply)
	h.contacts.On("FindByNameFragment", mock.Anything, h.company.ID, "ACME").Return(nil, domain.ErrNotFound)
	h.contacts.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Contact) bool {
		return c.Name == "ACME" && c.TaxID == domain.PendingTaxID && c.Type == domain.ContactTypeCustomer
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Contact).ID = uuid.New()
	}).Return(nil)

	result, err := h.service(nil).Ingest(context.Background(), h.input())
	require.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	assert.Empty(t, result.Warnings)

	inv := result.Invoice
	assert.Equal(t, "A-100", inv.Number)
	assert.Equal(t, "Proveedor SA", inv.IssuerName)
	assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
	assert.Equal(t, domain.InvoiceTypeExpense, inv.Type)
	assert.Equal(t, domain.CategoryServices, inv.Category)
	assert.Equal(t, "MXN", inv.Currency)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(116)))
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, inv.Tax.Equal(decimal.NewFromInt(16)))
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Total.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, inv.ContactID)
	require.NotNil(t, inv.ExtractedBy)
	assert.Equal(t, "groq (llama)", *inv.ExtractedBy)
	require.NotNil(t, inv.SourceFile)
	assert.Equal(t, "factura.pdf", *inv.SourceFile)
	assert.Equal(t, 1, h.invoices.creates)

	h.llm.AssertCalled(t, "Chat", mock.Anything, mock.MatchedBy(func(req port.ChatRequest) bool {
		return req.Override != nil && req.Override.GroqKey == "gsk-company" &&
			req.Context == extraction.ExtractorContext
	}))
}

func TestIngest_DuplicateIsIdempotent(t *testing.T) {
	h := newIngestHarness()
	h.expectHappyPath(acmeReply)
	acme := &domain.Contact{ID: uuid.New(), CompanyID: h.company.ID, Name: "Acme Corp"}
	h.contacts.On("FindByNameFragment", mock.Anything, h.company.ID, "ACME").Return(acme, nil)

	svc := h.service(nil)
	first, err := svc.Ingest(context.Background(), h.input())
	require.NoError(t, err)
	require.False(t, first.IsDuplicate)

	second, err := svc.Ingest(context.Background(), h.input())
	require.NoError(t, err)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.Invoice.ID, second.Invoice.ID)
	assert.Equal(t, 1, h.invoices.creates)
	h.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngest_ReusesContactByNameFragment(t *testing.T) {
	h := newIngestHarness()
	h.expectHappyPath(acmeReply)
	acme := &domain.Contact{ID: uuid.New(), CompanyID: h.company.ID, Name: "Acme Corp"}
	h.contacts.On("FindByNameFragment", mock.Anything, h.company.ID, "ACME").Return(acme, nil)

	result, err := h.service(nil).Ingest(context.Background(), h.input())
	require.NoError(t, err)
	require.NotNil(t, result.Invoice.ContactID)
	assert.Equal(t, acme.ID, *result.Invoice.ContactID)
	h.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngest_MalformedResponsePersistsNothing(t *testing.T) {
	h := newIngestHarness()
	h.expectHappyPath("Lo siento, no puedo leer este documento.")

	_, err := h.service(nil).Ingest(context.Background(), h.input())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	var malformed *extraction.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Raw, "no puedo")

	assert.Zero(t, h.invoices.creates)
	h.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	h.contacts.AssertNotCalled(t, "FindByNameFragment", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_ExtractionFailure(t *testing.T) {
	h := newIngestHarness()
	h.extractor.On("Extract", mock.Anything, mock.Anything, "factura.pdf").Return("", errors.New("corrupt xref"))

	_, err := h.service(nil).Ingest(context.Background(), h.input())
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	h.llm.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestIngest_AllProvidersFailed(t *testing.T) {
	h := newIngestHarness()
	h.extractor.On("Extract", mock.Anything, mock.Anything, "factura.pdf").Return("texto", nil)
	h.companies.On("GetByID", mock.Anything, h.company.ID).Return(h.company, nil)
	chainErr := &llm.ChainError{Attempts: []llm.Attempt{{Provider: "groq", Err: errors.New("boom")}}}
	h.llm.On("Chat", mock.Anything, mock.Anything).Return(nil, chainErr)

	_, err := h.service(nil).Ingest(context.Background(), h.input())
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Zero(t, h.invoices.creates)
}

func TestIngest_NoCompany(t *testing.T) {
	h := newIngestHarness()
	h.extractor.On("Extract", mock.Anything, mock.Anything, "factura.pdf").Return("texto", nil)
	h.companies.On("First", mock.Anything).Return(nil, domain.ErrCompanyNotFound)
	h.llm.On("Chat", mock.Anything, mock.MatchedBy(func(req port.ChatRequest) bool {
		return req.Override == nil
	})).Return(&port.ChatResult{Text: acmeReply, Provider: "gemini (flash)"}, nil)

	input := h.input()
	input.CompanyID = nil
	_, err := h.service(nil).Ingest(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrCompanyNotFound)
	assert.Zero(t, h.invoices.creates)
}

func TestIngest_ActorPinsOwnCompany(t *testing.T) {
	h := newIngestHarness()
	h.expectHappyPath(acmeReply)
	h.contacts.On("FindByNameFragment", mock.Anything, h.company.ID, "ACME").
		Return(&domain.Contact{ID: uuid.New()}, nil)

	other := uuid.New()
	actor := domain.Actor{UserID: uuid.New(), CompanyID: &h.company.ID, Role: domain.RoleUser}
	input := h.input()
	input.CompanyID = &other
	input.Actor = &actor

	result, err := h.service(nil).Ingest(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, h.company.ID, result.Invoice.CompanyID)
	require.NotNil(t, result.Invoice.CreatedBy)
	assert.Equal(t, actor.UserID, *result.Invoice.CreatedBy)
}

func TestIngest_ReviewWarningsAndDefaults(t *testing.T) {
	reply := `{"numero": "", "emisorNombre": "Tienda", "clienteNombre": "", "fecha": "ayer",
		"total": "$1,000.00", "moneda": "", "categoria": "misc",
		"items": [{"descripcion": "x", "cantidad": 2, "precio": 10}]}`
	h := newIngestHarness()
	h.company.DefaultCurrency = "USD"
	h.expectHappyPath(reply)

	result, err := h.service(nil).Ingest(context.Background(), h.input())
	require.NoError(t, err)

	inv := result.Invoice
	assert.Nil(t, inv.ContactID)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, domain.CategoryOther, inv.Category)
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(1000)))
	assert.True(t, domain.SameDay(inv.IssueDate, time.Now().UTC()))
	assert.Len(t, inv.ExtractionWarnings, 4)
	h.contacts.AssertNotCalled(t, "FindByNameFragment", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_InvalidCurrencyFallsBackToCompanyDefault(t *testing.T) {
	tests := []struct {
		moneda  string
		want    string
		warning bool
	}{
		{"Pesos", "USD", true},
		{"MXN $", "MXN", false},
		{"", "USD", false},
	}
	for _, tt := range tests {
		t.Run(tt.moneda, func(t *testing.T) {
			reply := `{"numero": "F-9", "emisorNombre": "Tienda", "fecha": "2024-03-15",
				"total": 100, "moneda": "` + tt.moneda + `", "categoria": "servicios", "items": []}`
			h := newIngestHarness()
			h.company.DefaultCurrency = "USD"
			h.expectHappyPath(reply)

			result, err := h.service(nil).Ingest(context.Background(), h.input())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Invoice.Currency)
			warned := false
			for _, w := range result.Warnings {
				if strings.HasPrefix(w, "unrecognized currency") {
					warned = true
				}
			}
			assert.Equal(t, tt.warning, warned)
		})
	}
}

func TestIngest_StoresSourceFile(t *testing.T) {
	h := newIngestHarness()
	h.expectHappyPath(acmeReply)
	h.contacts.On("FindByNameFragment", mock.Anything, h.company.ID, "ACME").
		Return(&domain.Contact{ID: uuid.New()}, nil)
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "test-bucket" && in.ContentType == "application/pdf"
	})).Return(&port.UploadOutput{}, nil)

	result, err := h.service(storage).Ingest(context.Background(), h.input())
	require.NoError(t, err)
	require.NotNil(t, result.Invoice.StorageKey)
	assert.Equal(t,
		"invoices/"+h.company.ID.String()+"/"+result.Invoice.ID.String()+"/factura.pdf",
		*result.Invoice.StorageKey)
}

func TestIngest_StorageFailureIsNotFatal(t *testing.T) {
	h := newIngestHarness()
	h.expectHappyPath(acmeReply)
	h.contacts.On("FindByNameFragment", mock.Anything, h.company.ID, "ACME").
		Return(&domain.Contact{ID: uuid.New()}, nil)
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrStorageFailed)

	result, err := h.service(storage).Ingest(context.Background(), h.input())
	require.NoError(t, err)
	assert.Nil(t, result.Invoice.StorageKey)
	assert.Contains(t, result.Warnings, "source file could not be stored")
}

func TestIngest_InsertFailureRemovesStoredFile(t *testing.T) {
	h := newIngestHarness()
	h.invoices.fail = errors.New("connection reset")
	h.expectHappyPath(acmeReply)
	h.contacts.On("FindByNameFragment", mock.Anything, h.company.ID, "ACME").
		Return(&domain.Contact{ID: uuid.New()}, nil)
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	storage.On("Delete", mock.Anything, "test-bucket", mock.Anything).Return(nil)

	_, err := h.service(storage).Ingest(context.Background(), h.input())
	require.Error(t, err)
	storage.AssertCalled(t, "Delete", mock.Anything, "test-bucket", mock.Anything)
}
