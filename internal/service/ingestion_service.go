package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/extraction"
	"facturaia/internal/logger"
	"facturaia/internal/port"
)

// IngestInput is one PDF to turn into an invoice. CompanyID is the requested
// company; Actor, when present, constrains it. With neither, the oldest
// company receives the invoice.
type IngestInput struct {
	Data      []byte
	Filename  string
	CompanyID *uuid.UUID
	Actor     *domain.Actor
}

// IngestResult is the outcome of a successful ingestion. When IsDuplicate is
// set, Invoice is the existing row and nothing was written.
type IngestResult struct {
	Invoice     *domain.Invoice `json:"invoice"`
	IsDuplicate bool            `json:"is_duplicate"`
	Warnings    []string        `json:"warnings,omitempty"`
	Provider    string          `json:"provider,omitempty"`
}

// IngestionService turns PDF documents into persisted invoices.
type IngestionService interface {
	Ingest(ctx context.Context, input IngestInput) (*IngestResult, error)
}

type ingestionService struct {
	extractor   port.TextExtractor
	llm         port.LLMClient
	companyRepo port.CompanyRepository
	contactRepo port.ContactRepository
	invoiceRepo port.InvoiceRepository
	storage     port.ObjectStorage
	cfg         *config.S3Config
	log         zerolog.Logger
}

// NewIngestionService creates a new IngestionService. storage may be nil,
// in which case source files are not kept.
func NewIngestionService(
	extractor port.TextExtractor,
	llm port.LLMClient,
	companyRepo port.CompanyRepository,
	contactRepo port.ContactRepository,
	invoiceRepo port.InvoiceRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
) IngestionService {
	return &ingestionService{
		extractor:   extractor,
		llm:         llm,
		companyRepo: companyRepo,
		contactRepo: contactRepo,
		invoiceRepo: invoiceRepo,
		storage:     storage,
		cfg:         cfg,
		log:         logger.WithComponent("ingestion"),
	}
}

func (s *ingestionService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	filename := filepath.Base(input.Filename)
	log := s.log.With().Str("file", filename).Logger()
	log.Info().Int("bytes", len(input.Data)).Msg("ingestionService.Ingest: received")

	text, err := s.extractor.Extract(ctx, input.Data, filename)
	if err != nil {
		log.Error().Err(err).Msg("ingestionService.Ingest: text extraction failed")
		if errors.Is(err, domain.ErrExtractionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	log.Debug().Int("chars", len(text)).Msg("ingestionService.Ingest: text extracted")

	// The company is looked up early only to pick up its provider override;
	// a missing company is reported after the response is parsed.
	company, companyErr := s.resolveCompany(ctx, input)
	var override *domain.AIConfig
	if companyErr == nil {
		cfg := company.AIConfig
		override = &cfg
	}

	reply, err := s.llm.Chat(ctx, port.ChatRequest{
		Prompt:   extraction.BuildPrompt(text),
		Context:  extraction.ExtractorContext,
		Override: override,
	})
	if err != nil {
		log.Error().Err(err).Msg("ingestionService.Ingest: llm call failed")
		return nil, err
	}
	log.Debug().Str("provider", reply.Provider).Msg("ingestionService.Ingest: prompted")

	payload, err := extraction.ParsePayload(reply.Text)
	if err != nil {
		log.Error().Err(err).Str("provider", reply.Provider).Msg("ingestionService.Ingest: malformed llm response")
		return nil, err
	}
	log.Debug().Str("numero", payload.Numero).Msg("ingestionService.Ingest: json parsed")

	if companyErr != nil {
		log.Error().Err(companyErr).Msg("ingestionService.Ingest: company not resolved")
		return nil, companyErr
	}

	warnings := extraction.Review(payload, company.DefaultTaxRate)

	contactID, err := s.resolveContact(ctx, company.ID, payload.ClienteNombre)
	if err != nil {
		return nil, err
	}

	issueDate, ok := extraction.ParseDate(payload.Fecha)
	if !ok {
		now := time.Now().UTC()
		issueDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	key := domain.DuplicateKey{
		Number:     strings.TrimSpace(payload.Numero),
		IssuerName: strings.TrimSpace(payload.EmisorNombre),
		IssueDate:  issueDate,
		Total:      payload.Total.Decimal,
	}

	candidates, err := s.invoiceRepo.FindDuplicateCandidates(ctx, company.ID, key.Number, key.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("checking duplicates: %w", err)
	}
	if dup := domain.FindDuplicate(key, candidates); dup != nil {
		log.Info().Str("invoice_id", dup.ID.String()).Msg("ingestionService.Ingest: duplicate found")
		return &IngestResult{Invoice: dup, IsDuplicate: true, Warnings: warnings, Provider: reply.Provider}, nil
	}

	inv := s.buildInvoice(company, payload, key, contactID, reply.Provider, filename)
	inv.ExtractionWarnings = append(domain.StringList{}, warnings...)
	if input.Actor != nil {
		createdBy := input.Actor.UserID
		inv.CreatedBy = &createdBy
	}

	if s.storage != nil {
		storageKey, err := storeFile(ctx, s.storage, s.cfg.Bucket, company.ID, inv.ID, filename, input.Data)
		if err != nil {
			log.Warn().Err(err).Msg("ingestionService.Ingest: storing source file failed")
			inv.ExtractionWarnings = append(inv.ExtractionWarnings, "source file could not be stored")
		} else {
			inv.StorageKey = &storageKey
		}
	}

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		if inv.StorageKey != nil {
			if delErr := s.storage.Delete(ctx, s.cfg.Bucket, *inv.StorageKey); delErr != nil {
				log.Warn().Err(delErr).Msg("ingestionService.Ingest: cleanup of stored file failed")
			}
		}
		log.Error().Err(err).Msg("ingestionService.Ingest: persisting invoice failed")
		return nil, fmt.Errorf("persisting invoice: %w", err)
	}

	log.Info().Str("invoice_id", inv.ID.String()).Str("provider", reply.Provider).
		Int("warnings", len(inv.ExtractionWarnings)).Msg("ingestionService.Ingest: persisted")
	return &IngestResult{Invoice: inv, Warnings: inv.ExtractionWarnings, Provider: reply.Provider}, nil
}

func (s *ingestionService) resolveCompany(ctx context.Context, input IngestInput) (*domain.Company, error) {
	requested := input.CompanyID
	if input.Actor != nil {
		scope, err := input.Actor.Scope(input.CompanyID)
		if err != nil {
			return nil, err
		}
		requested = scope
		if requested == nil {
			requested = input.Actor.CompanyID
		}
	}

	if requested == nil {
		return s.companyRepo.First(ctx)
	}
	company, err := s.companyRepo.GetByID(ctx, *requested)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrCompanyNotFound
	}
	return company, err
}

// resolveContact reuses a contact whose name overlaps the customer name or
// creates a placeholder one. An empty name yields no contact.
func (s *ingestionService) resolveContact(ctx context.Context, companyID uuid.UUID, name string) (*uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	existing, err := s.contactRepo.FindByNameFragment(ctx, companyID, name)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolving contact: %w", err)
	}

	contact := &domain.Contact{
		CompanyID: companyID,
		Name:      name,
		TaxID:     domain.PendingTaxID,
		Type:      domain.ContactTypeCustomer,
		IsActive:  true,
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}
	s.log.Info().Str("contact_id", contact.ID.String()).Str("name", name).
		Msg("ingestionService.resolveContact: contact created")
	return &contact.ID, nil
}

func (s *ingestionService) buildInvoice(
	company *domain.Company,
	payload *extraction.Payload,
	key domain.DuplicateKey,
	contactID *uuid.UUID,
	provider, filename string,
) *domain.Invoice {
	items := payload.LineItems()
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}
	total := key.Total
	if len(items) == 0 {
		subtotal = total
	}
	tax := total.Sub(subtotal)
	if tax.IsNegative() {
		tax = decimal.Zero
	}

	currency, ok := extraction.ParseCurrency(payload.Moneda)
	if !ok {
		currency = company.DefaultCurrency
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	category, _ := domain.ParseCategory(payload.Categoria)

	source := filename
	extractedBy := provider
	return &domain.Invoice{
		ID:          uuid.New(),
		CompanyID:   company.ID,
		ContactID:   contactID,
		Number:      key.Number,
		IssuerName:  key.IssuerName,
		IssueDate:   key.IssueDate,
		Status:      domain.InvoiceStatusPending,
		Type:        domain.InvoiceTypeExpense,
		Category:    category,
		Subtotal:    subtotal.Round(2),
		Tax:         tax.Round(2),
		Total:       total,
		Currency:    currency,
		Items:       items,
		SourceFile:  &source,
		ExtractedBy: &extractedBy,
	}
}
