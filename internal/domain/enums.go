package domain

import "strings"

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf": FileTypePDF,
}

// UserRole defines the role hierarchy. super_admin spans all companies;
// every other role is bound to exactly one company.
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleAdmin      UserRole = "admin"
	RoleAccountant UserRole = "accountant"
	RoleUser       UserRole = "user"
)

// ValidRoles is the set accepted on user creation.
var ValidRoles = map[UserRole]bool{
	RoleSuperAdmin: true,
	RoleAdmin:      true,
	RoleAccountant: true,
	RoleUser:       true,
}

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusPartial   InvoiceStatus = "partial"
)

// ValidInvoiceStatuses is the full status set.
var ValidInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusDraft:     true,
	InvoiceStatusPending:   true,
	InvoiceStatusPaid:      true,
	InvoiceStatusOverdue:   true,
	InvoiceStatusCancelled: true,
	InvoiceStatusPartial:   true,
}

// InvoiceType distinguishes issued invoices from received ones.
type InvoiceType string

const (
	InvoiceTypeIncome  InvoiceType = "income"
	InvoiceTypeExpense InvoiceType = "expense"
)

// ContactType classifies a contact relative to the owning company.
type ContactType string

const (
	ContactTypeCustomer ContactType = "customer"
	ContactTypeSupplier ContactType = "supplier"
)

// Category is the expense/income classification the extractor assigns.
// Values are the literal strings the extraction prompt asks for.
type Category string

const (
	CategoryServices Category = "servicios"
	CategoryProducts Category = "productos"
	CategoryFees     Category = "honorarios"
	CategoryRent     Category = "arrendamiento"
	CategoryTravel   Category = "viaticos"
	CategoryOther    Category = "otros"
)

// Categories lists every category in prompt order.
var Categories = []Category{
	CategoryServices, CategoryProducts, CategoryFees, CategoryRent, CategoryTravel, CategoryOther,
}

// ParseCategory maps a raw category to a known one, defaulting to otros.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.ReplaceAll(raw, "á", "a")
	for _, c := range Categories {
		if string(c) == raw {
			return c, true
		}
	}
	return CategoryOther, false
}

// PaymentMethod is how an invoice was (or will be) settled.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodCheck    PaymentMethod = "check"
)

// ValidPaymentMethods is the accepted payment method set.
var ValidPaymentMethods = map[PaymentMethod]bool{
	PaymentMethodCash:     true,
	PaymentMethodTransfer: true,
	PaymentMethodCard:     true,
	PaymentMethodCheck:    true,
}

// ProviderAuto selects the full provider fallback chain.
const ProviderAuto = "auto"

// PendingTaxID marks contacts created by ingestion before a human fills in the tax id.
const PendingTaxID = "PENDIENTE"

// DefaultCurrency applies when neither the document nor the company names one.
const DefaultCurrency = "MXN"
