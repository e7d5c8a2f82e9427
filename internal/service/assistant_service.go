package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"facturaia/internal/domain"
	"facturaia/internal/logger"
	"facturaia/internal/port"
)

const (
	contextTopContacts    = 5
	contextRecentInvoices = 5
)

// ChatInput is the DTO for an assistant question. Provider, when set, pins
// one provider for this call.
type ChatInput struct {
	Message   string     `json:"message" binding:"required"`
	Provider  string     `json:"provider"`
	CompanyID *uuid.UUID `json:"company_id"`
}

// ChatReply is the assistant answer and the provider that produced it.
type ChatReply struct {
	Response string `json:"response"`
	Provider string `json:"provider"`
}

// AssistantService answers questions about a company's invoices.
type AssistantService interface {
	Chat(ctx context.Context, actor domain.Actor, input ChatInput) (*ChatReply, error)
	Status(ctx context.Context, actor domain.Actor) ([]port.ProviderStatus, error)
}

type assistantService struct {
	llm         port.LLMClient
	companyRepo port.CompanyRepository
	contactRepo port.ContactRepository
	invoiceRepo port.InvoiceRepository
	reportRepo  port.ReportRepository
	log         zerolog.Logger
}

// NewAssistantService creates a new AssistantService implementation.
func NewAssistantService(
	llm port.LLMClient,
	companyRepo port.CompanyRepository,
	contactRepo port.ContactRepository,
	invoiceRepo port.InvoiceRepository,
	reportRepo port.ReportRepository,
) AssistantService {
	return &assistantService{
		llm:         llm,
		companyRepo: companyRepo,
		contactRepo: contactRepo,
		invoiceRepo: invoiceRepo,
		reportRepo:  reportRepo,
		log:         logger.WithComponent("assistant"),
	}
}

func (s *assistantService) Chat(ctx context.Context, actor domain.Actor, input ChatInput) (*ChatReply, error) {
	scope, err := actor.Scope(input.CompanyID)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		scope = actor.CompanyID
	}

	override, err := s.override(ctx, scope)
	if err != nil {
		return nil, err
	}
	if p := strings.TrimSpace(input.Provider); p != "" {
		if override == nil {
			override = &domain.AIConfig{}
		}
		override.SelectedProvider = p
	}

	companyContext, err := s.buildContext(ctx, scope)
	if err != nil {
		return nil, err
	}

	result, err := s.llm.Chat(ctx, port.ChatRequest{
		Prompt:   input.Message,
		Context:  companyContext,
		Override: override,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("assistantService.Chat: llm call failed")
		return nil, err
	}
	return &ChatReply{Response: result.Text, Provider: result.Provider}, nil
}

func (s *assistantService) Status(ctx context.Context, actor domain.Actor) ([]port.ProviderStatus, error) {
	override, err := s.override(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	return s.llm.Status(ctx, override), nil
}

func (s *assistantService) override(ctx context.Context, companyID *uuid.UUID) (*domain.AIConfig, error) {
	if companyID == nil {
		return nil, nil
	}
	company, err := s.companyRepo.GetByID(ctx, *companyID)
	if err != nil {
		return nil, err
	}
	cfg := company.AIConfig
	return &cfg, nil
}

// buildContext summarizes the company's books for the system prompt. A nil
// scope summarizes every company.
func (s *assistantService) buildContext(ctx context.Context, scope *uuid.UUID) (string, error) {
	summary, err := s.reportRepo.Summary(ctx, scope)
	if err != nil {
		return "", err
	}
	recent, _, err := s.invoiceRepo.List(ctx, scope, port.InvoiceFilter{}, 0, contextRecentInvoices)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("INFORMACIÓN DE LA EMPRESA:\n")
	fmt.Fprintf(&b, "- Total facturado: %s\n", summary.TotalBilled.StringFixed(2))
	fmt.Fprintf(&b, "- Saldo pendiente de cobro: %s\n", summary.Pending.StringFixed(2))
	fmt.Fprintf(&b, "- Saldo vencido: %s\n", summary.Overdue.StringFixed(2))
	fmt.Fprintf(&b, "- Total pagado: %s\n", summary.Paid.StringFixed(2))
	fmt.Fprintf(&b, "- Número de facturas: %d\n", summary.Count)

	if scope != nil {
		count, err := s.contactRepo.Count(ctx, *scope)
		if err != nil {
			return "", err
		}
		top, err := s.reportRepo.TopContacts(ctx, *scope, contextTopContacts)
		if err != nil {
			return "", err
		}
		names := make([]string, 0, len(top))
		for _, c := range top {
			names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Total.StringFixed(2)))
		}
		fmt.Fprintf(&b, "- Total de clientes: %d\n", count)
		fmt.Fprintf(&b, "- Clientes principales: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\nÚLTIMAS FACTURAS:\n")
	for _, inv := range recent {
		contact := "Desconocido"
		if inv.ContactName != nil && *inv.ContactName != "" {
			contact = *inv.ContactName
		}
		fmt.Fprintf(&b, "- Factura %s para %s por %s %s (%s)\n",
			inv.Number, contact, inv.Total.StringFixed(2), inv.Currency, inv.Status)
	}
	return b.String(), nil
}
