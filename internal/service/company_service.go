package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"facturaia/internal/config"
	"facturaia/internal/domain"
	"facturaia/internal/port"
)

// CreateCompanyInput is the DTO for creating a company.
type CreateCompanyInput struct {
	Name            string           `json:"name" binding:"required"`
	TaxID           string           `json:"tax_id" binding:"required,max=13"`
	Address         string           `json:"address"`
	Phone           string           `json:"phone"`
	Email           string           `json:"email" binding:"omitempty,email"`
	DefaultCurrency string           `json:"default_currency" binding:"omitempty,currency"`
	DefaultTaxRate  *decimal.Decimal `json:"default_tax_rate" binding:"omitempty,decimal_gte0"`
	InvoicePrefix   string           `json:"invoice_prefix" binding:"omitempty,max=10"`
}

// UpdateCompanyInput is the DTO for updating a company profile.
type UpdateCompanyInput struct {
	Name            *string          `json:"name"`
	TaxID           *string          `json:"tax_id" binding:"omitempty,max=13"`
	Address         *string          `json:"address"`
	Phone           *string          `json:"phone"`
	Email           *string          `json:"email" binding:"omitempty,email"`
	DefaultCurrency *string          `json:"default_currency" binding:"omitempty,currency"`
	DefaultTaxRate  *decimal.Decimal `json:"default_tax_rate" binding:"omitempty,decimal_gte0"`
	InvoicePrefix   *string          `json:"invoice_prefix" binding:"omitempty,max=10"`
	IsActive        *bool            `json:"is_active"`
}

// UpdateConfigInput is the DTO for the AI override block. A nil field keeps
// the stored value, an empty string clears it, and a masked value echoed
// back by a client ("****1234") is ignored.
type UpdateConfigInput struct {
	SelectedProvider *string `json:"selected_provider"`
	GroqKey          *string `json:"groq_key"`
	GeminiKey        *string `json:"gemini_key"`
	OpenRouterKey    *string `json:"openrouter_key"`
	MinimaxKey       *string `json:"minimax_key"`
	OpenAIKey        *string `json:"openai_key"`
}

// CompanyService defines the company management contract. Every company it
// returns has its provider keys masked.
type CompanyService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateCompanyInput) (*domain.Company, error)
	List(ctx context.Context, actor domain.Actor, offset, limit int) ([]domain.Company, int, error)
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Company, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateCompanyInput) (*domain.Company, error)
	UpdateConfig(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateConfigInput) (*domain.Company, error)
}

type companyService struct {
	repo port.CompanyRepository
}

// NewCompanyService creates a new CompanyService implementation.
func NewCompanyService(repo port.CompanyRepository) CompanyService {
	return &companyService{repo: repo}
}

func redacted(c *domain.Company) *domain.Company {
	r := c.Redacted()
	return &r
}

func (s *companyService) Create(ctx context.Context, actor domain.Actor, input CreateCompanyInput) (*domain.Company, error) {
	if !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}

	company := &domain.Company{
		Name:            strings.TrimSpace(input.Name),
		TaxID:           strings.ToUpper(strings.TrimSpace(input.TaxID)),
		Address:         input.Address,
		Phone:           input.Phone,
		Email:           input.Email,
		DefaultCurrency: input.DefaultCurrency,
		DefaultTaxRate:  decimal.NewFromInt(16),
		InvoicePrefix:   input.InvoicePrefix,
		IsActive:        true,
	}
	if company.DefaultCurrency == "" {
		company.DefaultCurrency = domain.DefaultCurrency
	}
	if input.DefaultTaxRate != nil {
		company.DefaultTaxRate = *input.DefaultTaxRate
	}
	if company.InvoicePrefix == "" {
		company.InvoicePrefix = "F"
	}

	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return redacted(company), nil
}

func (s *companyService) List(ctx context.Context, actor domain.Actor, offset, limit int) ([]domain.Company, int, error) {
	scope, err := actor.Scope(nil)
	if err != nil {
		return nil, 0, err
	}
	companies, total, err := s.repo.List(ctx, scope, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range companies {
		companies[i] = companies[i].Redacted()
	}
	return companies, total, nil
}

// load fetches a company the actor may see. Other companies look missing.
func (s *companyService) load(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Company, error) {
	if !actor.IsSuperAdmin() && (actor.CompanyID == nil || *actor.CompanyID != id) {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *companyService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Company, error) {
	company, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return redacted(company), nil
}

func (s *companyService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateCompanyInput) (*domain.Company, error) {
	if !actor.CanManage() {
		return nil, domain.ErrForbidden
	}
	company, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		company.Name = strings.TrimSpace(*input.Name)
	}
	if input.TaxID != nil {
		company.TaxID = strings.ToUpper(strings.TrimSpace(*input.TaxID))
	}
	if input.Address != nil {
		company.Address = *input.Address
	}
	if input.Phone != nil {
		company.Phone = *input.Phone
	}
	if input.Email != nil {
		company.Email = *input.Email
	}
	if input.DefaultCurrency != nil {
		company.DefaultCurrency = *input.DefaultCurrency
	}
	if input.DefaultTaxRate != nil {
		company.DefaultTaxRate = *input.DefaultTaxRate
	}
	if input.InvoicePrefix != nil && *input.InvoicePrefix != "" {
		company.InvoicePrefix = *input.InvoicePrefix
	}
	if input.IsActive != nil {
		if !actor.IsSuperAdmin() {
			return nil, domain.ErrForbidden
		}
		company.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return redacted(company), nil
}

func (s *companyService) UpdateConfig(ctx context.Context, actor domain.Actor, id uuid.UUID, input UpdateConfigInput) (*domain.Company, error) {
	if !actor.CanManage() {
		return nil, domain.ErrForbidden
	}
	company, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	cfg := company.AIConfig
	if input.SelectedProvider != nil {
		p := strings.TrimSpace(*input.SelectedProvider)
		if p != "" && p != domain.ProviderAuto && !slices.Contains(config.ProviderNames, p) {
			return nil, domain.ErrUnknownProvider
		}
		cfg.SelectedProvider = p
	}
	applyKey(&cfg.GroqKey, input.GroqKey)
	applyKey(&cfg.GeminiKey, input.GeminiKey)
	applyKey(&cfg.OpenRouterKey, input.OpenRouterKey)
	applyKey(&cfg.MinimaxKey, input.MinimaxKey)
	applyKey(&cfg.OpenAIKey, input.OpenAIKey)
	company.AIConfig = cfg

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return redacted(company), nil
}

func applyKey(dst *string, in *string) {
	if in == nil {
		return
	}
	v := strings.TrimSpace(*in)
	if strings.HasPrefix(v, "****") {
		return
	}
	*dst = v
}
