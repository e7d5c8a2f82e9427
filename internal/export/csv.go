package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"facturaia/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by the CSV and XLSX exports.
var columns = []string{
	"Number",
	"Series",
	"Folio",
	"Issue Date",
	"Due Date",
	"Issuer",
	"Contact",
	"Type",
	"Category",
	"Status",
	"Subtotal",
	"Tax",
	"Total",
	"Currency",
	"Paid At",
	"Extracted By",
	"Source File",
	"Item Count",
	"Warnings",
	"Created At",
}

// money columns hold numeric cells in the XLSX export.
const (
	colSubtotal = 10
	colTax      = 11
	colTotal    = 12
)

// CSVWriter wraps csv.Writer for exporting invoices.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteInvoices writes one row per invoice.
func (w *CSVWriter) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		if err := w.csv.Write(invoiceToRow(&invoices[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a BOM, the header and every invoice to w.
func WriteCSV(w io.Writer, invoices []domain.Invoice) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	cw := NewCSVWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	if err := cw.WriteInvoices(invoices); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	return nil
}

func invoiceToRow(inv *domain.Invoice) []string {
	row := make([]string, len(columns))
	row[0] = inv.Number
	row[1] = inv.Series
	if inv.Folio != nil {
		row[2] = strconv.FormatInt(*inv.Folio, 10)
	}
	row[3] = inv.IssueDate.Format("2006-01-02")
	row[4] = formatDate(inv.DueDate)
	row[5] = inv.IssuerName
	if inv.ContactName != nil {
		row[6] = *inv.ContactName
	}
	row[7] = string(inv.Type)
	row[8] = string(inv.Category)
	row[9] = string(inv.Status)
	row[colSubtotal] = formatMoney(inv.Subtotal)
	row[colTax] = formatMoney(inv.Tax)
	row[colTotal] = formatMoney(inv.Total)
	row[13] = inv.Currency
	row[14] = formatTime(inv.PaidAt)
	if inv.ExtractedBy != nil {
		row[15] = *inv.ExtractedBy
	}
	if inv.SourceFile != nil {
		row[16] = *inv.SourceFile
	}
	row[17] = strconv.Itoa(len(inv.Items))
	row[18] = strings.Join(inv.ExtractionWarnings, "; ")
	row[19] = inv.CreatedAt.Format(time.RFC3339)
	return row
}

func formatMoney(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition and caps it
// at 100 characters.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "facturas"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{ext}.
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
