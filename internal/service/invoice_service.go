package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/logger"
	"facturaia/internal/port"
)

const dateLayout = "2006-01-02"

// InvoiceItemInput is one manually entered line. A nil TaxRate takes the
// company's default rate.
type InvoiceItemInput struct {
	Description string           `json:"description" binding:"required"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"decimal_gte0"`
	UnitPrice   decimal.Decimal  `json:"unit_price" binding:"decimal_gte0"`
	Discount    decimal.Decimal  `json:"discount" binding:"decimal_gte0"`
	TaxRate     *decimal.Decimal `json:"tax_rate" binding:"omitempty,decimal_gte0"`
	Unit        string           `json:"unit"`
}

// CreateInvoiceInput is the DTO for manual invoice creation. Dates use
// YYYY-MM-DD.
type CreateInvoiceInput struct {
	CompanyID     *uuid.UUID            `json:"company_id"`
	ContactID     *uuid.UUID            `json:"contact_id"`
	IssuerName    string                `json:"issuer_name"`
	IssueDate     string                `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	DueDate       string                `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Status        domain.InvoiceStatus  `json:"status" binding:"omitempty,oneof=draft pending"`
	Type          domain.InvoiceType    `json:"type" binding:"omitempty,oneof=income expense"`
	Category      string                `json:"category"`
	PaymentMethod *domain.PaymentMethod `json:"payment_method"`
	Currency      string                `json:"currency" binding:"omitempty,currency"`
	Notes         string                `json:"notes"`
	Items         []InvoiceItemInput    `json:"items" binding:"required,min=1,dive"`
}

// UpdateStatusInput is the DTO for a manual status change.
type UpdateStatusInput struct {
	Status domain.InvoiceStatus `json:"status" binding:"required,invoice_status"`
}

// RecordPaymentInput is the DTO for registering a payment.
type RecordPaymentInput struct {
	Amount    decimal.Decimal      `json:"amount" binding:"decimal_gte0"`
	PaidAt    string               `json:"paid_at" binding:"omitempty,datetime=2006-01-02"`
	Method    domain.PaymentMethod `json:"method"`
	Reference string               `json:"reference"`
}

// InvoiceFile is a stored invoice document. Exactly one of URL and Data is set.
type InvoiceFile struct {
	Name        string
	ContentType string
	URL         string
	Data        []byte
}

// InvoiceService defines the invoice management contract.
type InvoiceService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateInvoiceInput) (*domain.Invoice, error)
	GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	RecordPayment(ctx context.Context, actor domain.Actor, id uuid.UUID, input RecordPaymentInput) (*domain.Invoice, error)
	ListPayments(ctx context.Context, actor domain.Actor, id uuid.UUID) ([]domain.Payment, error)
	File(ctx context.Context, actor domain.Actor, id uuid.UUID) (*InvoiceFile, error)
}

type invoiceService struct {
	invoiceRepo port.InvoiceRepository
	contactRepo port.ContactRepository
	companyRepo port.CompanyRepository
	paymentRepo port.PaymentRepository
	storage     port.ObjectStorage
	cfg         *config.S3Config
	log         zerolog.Logger
}

// NewInvoiceService creates a new InvoiceService implementation. storage may
// be nil, in which case file downloads report not found.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	contactRepo port.ContactRepository,
	companyRepo port.CompanyRepository,
	paymentRepo port.PaymentRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		contactRepo: contactRepo,
		companyRepo: companyRepo,
		paymentRepo: paymentRepo,
		storage:     storage,
		cfg:         cfg,
		log:         logger.WithComponent("invoices"),
	}
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return &t, nil
}

func (s *invoiceService) Create(ctx context.Context, actor domain.Actor, input CreateInvoiceInput) (*domain.Invoice, error) {
	if len(input.Items) == 0 {
		return nil, domain.ErrEmptyItems
	}
	companyID, err := actor.OwnCompany(input.CompanyID)
	if err != nil {
		return nil, err
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if input.ContactID != nil {
		if _, err := s.contactRepo.GetByID(ctx, &companyID, *input.ContactID); err != nil {
			return nil, err
		}
	}

	issueDate, err := parseDate(input.IssueDate)
	if err != nil {
		return nil, err
	}
	if issueDate == nil {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		issueDate = &today
	}
	dueDate, err := parseDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(input.Items))
	for _, it := range input.Items {
		rate := company.DefaultTaxRate
		if it.TaxRate != nil {
			rate = *it.TaxRate
		}
		items = append(items, domain.LineItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Discount:    it.Discount,
			TaxRate:     rate,
			Unit:        it.Unit,
		})
	}
	totals := domain.ComputeTotals(items)

	inv := &domain.Invoice{
		CompanyID:     companyID,
		ContactID:     input.ContactID,
		IssuerName:    input.IssuerName,
		IssueDate:     *issueDate,
		DueDate:       dueDate,
		Status:        input.Status,
		Type:          input.Type,
		PaymentMethod: input.PaymentMethod,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Currency:      input.Currency,
		Notes:         input.Notes,
		Items:         totals.Items,
		CreatedBy:     &actor.UserID,
	}
	inv.Category, _ = domain.ParseCategory(input.Category)
	if inv.Status == "" {
		inv.Status = domain.InvoiceStatusPending
	}
	if inv.Type == "" {
		inv.Type = domain.InvoiceTypeIncome
	}
	if inv.IssuerName == "" {
		inv.IssuerName = company.Name
	}
	if inv.Currency == "" {
		inv.Currency = company.DefaultCurrency
	}
	if inv.Currency == "" {
		inv.Currency = domain.DefaultCurrency
	}

	if err := s.invoiceRepo.CreateWithFolio(ctx, inv); err != nil {
		return nil, err
	}
	s.log.Info().Str("invoice_id", inv.ID.String()).Str("number", inv.Number).
		Str("company_id", companyID.String()).Msg("invoiceService.Create: invoice created")
	return inv, nil
}

func (s *invoiceService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Invoice, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, scope, id)
}

func (s *invoiceService) List(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	scope, err := actor.Scope(companyID)
	if err != nil {
		return nil, 0, err
	}
	return s.invoiceRepo.List(ctx, scope, filter, offset, limit)
}

func (s *invoiceService) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, status domain.InvoiceStatus) (*domain.Invoice, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoiceRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(inv.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, inv.Status, status)
	}
	if err := s.invoiceRepo.UpdateStatus(ctx, scope, id, status); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, scope, id)
}

// Delete cancels the invoice and removes its stored file. Cancelled invoices
// stay in the database for audit.
func (s *invoiceService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	scope, err := actor.Scope(nil)
	if err != nil {
		return err
	}
	inv, err := s.invoiceRepo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if inv.Status != domain.InvoiceStatusCancelled {
		if err := s.invoiceRepo.UpdateStatus(ctx, scope, id, domain.InvoiceStatusCancelled); err != nil {
			return err
		}
	}
	if s.storage != nil && inv.StorageKey != nil {
		if err := s.storage.Delete(ctx, s.cfg.Bucket, *inv.StorageKey); err != nil {
			s.log.Warn().Err(err).Str("invoice_id", id.String()).
				Msg("invoiceService.Delete: failed to delete stored file")
		}
	}
	s.log.Info().Str("invoice_id", id.String()).Msg("invoiceService.Delete: invoice cancelled")
	return nil
}

func (s *invoiceService) RecordPayment(ctx context.Context, actor domain.Actor, id uuid.UUID, input RecordPaymentInput) (*domain.Invoice, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	paidAt, err := parseDate(input.PaidAt)
	if err != nil {
		return nil, err
	}

	method := input.Method
	if !domain.ValidPaymentMethods[method] {
		method = domain.PaymentMethodTransfer
	}
	payment := &domain.Payment{
		InvoiceID: id,
		Amount:    input.Amount,
		Method:    method,
		Reference: input.Reference,
		CreatedBy: &actor.UserID,
	}
	if paidAt != nil {
		payment.PaidAt = *paidAt
	}

	inv, err := s.paymentRepo.Record(ctx, scope, payment)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("invoice_id", id.String()).Str("amount", input.Amount.String()).
		Str("status", string(inv.Status)).Msg("invoiceService.RecordPayment: payment recorded")
	return inv, nil
}

func (s *invoiceService) ListPayments(ctx context.Context, actor domain.Actor, id uuid.UUID) ([]domain.Payment, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	if _, err := s.invoiceRepo.GetByID(ctx, scope, id); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByInvoice(ctx, scope, id)
}

// File returns a presigned link when the storage can sign one, and the raw
// bytes otherwise.
func (s *invoiceService) File(ctx context.Context, actor domain.Actor, id uuid.UUID) (*InvoiceFile, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoiceRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if s.storage == nil || inv.StorageKey == nil {
		return nil, domain.ErrNotFound
	}

	name := path.Base(*inv.StorageKey)
	if inv.SourceFile != nil && *inv.SourceFile != "" {
		name = *inv.SourceFile
	}
	file := &InvoiceFile{Name: name, ContentType: "application/pdf"}

	if signer, ok := s.storage.(port.URLSigner); ok {
		expiry := time.Duration(s.cfg.PresignExpiry) * time.Second
		url, err := signer.PresignedURL(ctx, s.cfg.Bucket, *inv.StorageKey, expiry)
		if err != nil {
			return nil, err
		}
		file.URL = url
		return file, nil
	}

	data, err := s.storage.Download(ctx, s.cfg.Bucket, *inv.StorageKey)
	if err != nil {
		return nil, err
	}
	file.Data = data
	return file, nil
}

// storeFile uploads a processed document and returns its key.
func storeFile(ctx context.Context, storage port.ObjectStorage, bucket string, companyID, invoiceID uuid.UUID, filename string, data []byte) (string, error) {
	key := fmt.Sprintf("invoices/%s/%s/%s", companyID, invoiceID, path.Base(filename))
	_, err := storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: "application/pdf",
		Size:        int64(len(data)),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}
