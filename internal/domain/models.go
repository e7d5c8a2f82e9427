package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company is a tenant. All contacts, invoices, payments and non-super-admin
// users belong to exactly one company.
type Company struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	TaxID           string          `db:"tax_id" json:"tax_id"`
	Address         string          `db:"address" json:"address"`
	Phone           string          `db:"phone" json:"phone"`
	Email           string          `db:"email" json:"email"`
	DefaultCurrency string          `db:"default_currency" json:"default_currency"`
	DefaultTaxRate  decimal.Decimal `db:"default_tax_rate" json:"default_tax_rate"`
	InvoicePrefix   string          `db:"invoice_prefix" json:"invoice_prefix"`
	FolioCounter    int64           `db:"folio_counter" json:"folio_counter"`
	AIConfig        AIConfig        `db:"ai_config" json:"ai_config"`
	IsActive        bool            `db:"is_active" json:"is_active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Redacted returns a copy safe to serialize: provider keys are masked.
func (c Company) Redacted() Company {
	c.AIConfig = c.AIConfig.Masked()
	return c
}

// AIConfig is the per-company LLM override block stored as JSONB.
type AIConfig struct {
	SelectedProvider string `json:"selected_provider,omitempty"`
	GroqKey          string `json:"groq_key,omitempty"`
	GeminiKey        string `json:"gemini_key,omitempty"`
	OpenRouterKey    string `json:"openrouter_key,omitempty"`
	MinimaxKey       string `json:"minimax_key,omitempty"`
	OpenAIKey        string `json:"openai_key,omitempty"`
}

// Keys returns the non-empty override keys by provider name.
func (a AIConfig) Keys() map[string]string {
	keys := map[string]string{}
	for name, k := range map[string]string{
		"groq":       a.GroqKey,
		"gemini":     a.GeminiKey,
		"openrouter": a.OpenRouterKey,
		"minimax":    a.MinimaxKey,
		"openai":     a.OpenAIKey,
	} {
		if k != "" {
			keys[name] = k
		}
	}
	return keys
}

// Masked hides everything but the last four characters of each key.
func (a AIConfig) Masked() AIConfig {
	a.GroqKey = maskKey(a.GroqKey)
	a.GeminiKey = maskKey(a.GeminiKey)
	a.OpenRouterKey = maskKey(a.OpenRouterKey)
	a.MinimaxKey = maskKey(a.MinimaxKey)
	a.OpenAIKey = maskKey(a.OpenAIKey)
	return a
}

func maskKey(k string) string {
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return "****"
	}
	return "****" + k[len(k)-4:]
}

// Value implements driver.Valuer.
func (a AIConfig) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *AIConfig) Scan(src any) error {
	return scanJSON(src, a)
}

// User represents an authenticated user. CompanyID is nil only for super admins.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	CompanyID    *uuid.UUID `db:"company_id" json:"company_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         UserRole   `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Contact is a customer or supplier of a company.
type Contact struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	CompanyID     uuid.UUID   `db:"company_id" json:"company_id"`
	Name          string      `db:"name" json:"name"`
	TaxID         string      `db:"tax_id" json:"tax_id"`
	Type          ContactType `db:"type" json:"type"`
	Address       string      `db:"address" json:"address"`
	Phone         string      `db:"phone" json:"phone"`
	Email         string      `db:"email" json:"email"`
	ContactPerson string      `db:"contact_person" json:"contact_person"`
	Notes         string      `db:"notes" json:"notes"`
	IsActive      bool        `db:"is_active" json:"is_active"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// ContactStats aggregates a contact's invoices.
type ContactStats struct {
	ContactID      uuid.UUID       `db:"contact_id" json:"contact_id"`
	InvoiceCount   int             `db:"invoice_count" json:"invoice_count"`
	TotalBilled    decimal.Decimal `db:"total_billed" json:"total_billed"`
	PendingBalance decimal.Decimal `db:"pending_balance" json:"pending_balance"`
	PaidTotal      decimal.Decimal `db:"paid_total" json:"paid_total"`
}

// Invoice is an issued or received invoice. Invoices are never hard-deleted;
// deletion cancels them and removes the stored file.
type Invoice struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	CompanyID          uuid.UUID       `db:"company_id" json:"company_id"`
	ContactID          *uuid.UUID      `db:"contact_id" json:"contact_id"`
	ContactName        *string         `db:"contact_name" json:"contact_name,omitempty"`
	Number             string          `db:"number" json:"number"`
	Series             string          `db:"series" json:"series"`
	Folio              *int64          `db:"folio" json:"folio"`
	IssuerName         string          `db:"issuer_name" json:"issuer_name"`
	IssueDate          time.Time       `db:"issue_date" json:"issue_date"`
	DueDate            *time.Time      `db:"due_date" json:"due_date"`
	PaidAt             *time.Time      `db:"paid_at" json:"paid_at"`
	Status             InvoiceStatus   `db:"status" json:"status"`
	Type               InvoiceType     `db:"type" json:"type"`
	Category           Category        `db:"category" json:"category"`
	PaymentMethod      *PaymentMethod  `db:"payment_method" json:"payment_method"`
	Subtotal           decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax                decimal.Decimal `db:"tax" json:"tax"`
	Total              decimal.Decimal `db:"total" json:"total"`
	Currency           string          `db:"currency" json:"currency"`
	Notes              string          `db:"notes" json:"notes"`
	Items              LineItems       `db:"items" json:"items"`
	SourceFile         *string         `db:"source_file" json:"source_file"`
	StorageKey         *string         `db:"storage_key" json:"-"`
	ExtractedBy        *string         `db:"extracted_by" json:"extracted_by"`
	ExtractionWarnings StringList      `db:"extraction_warnings" json:"extraction_warnings"`
	CreatedBy          *uuid.UUID      `db:"created_by" json:"created_by"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// LineItem is one row of an invoice. Total is derived, never trusted from input.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Unit        string          `json:"unit,omitempty"`
	Total       decimal.Decimal `json:"total"`
}

// LineItems is stored as a JSONB array.
type LineItems []LineItem

// Value implements driver.Valuer.
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *LineItems) Scan(src any) error {
	return scanJSON(src, l)
}

// StringList is a JSONB array of strings.
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(src any) error {
	return scanJSON(src, s)
}

// Payment is a (possibly partial) settlement of an invoice.
type Payment struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	InvoiceID uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	CompanyID uuid.UUID       `db:"company_id" json:"company_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	PaidAt    time.Time       `db:"paid_at" json:"paid_at"`
	Method    PaymentMethod   `db:"method" json:"method"`
	Reference string          `db:"reference" json:"reference"`
	CreatedBy *uuid.UUID      `db:"created_by" json:"created_by"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("domain: cannot scan %T into %T", src, dst)
	}
}
