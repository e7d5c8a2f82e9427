package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"facturaia/internal/domain"
)

func sampleInvoices() []domain.Invoice {
	folio := int64(7)
	contact := "Acme Corp"
	provider := "groq (llama-3.3-70b-versatile)"
	due := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	first := domain.Invoice{
		ID:          uuid.New(),
		Number:      "F-7",
		Series:      "F",
		Folio:       &folio,
		IssuerName:  "Mi Empresa",
		ContactName: &contact,
		IssueDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		DueDate:     &due,
		Type:        domain.InvoiceTypeIncome,
		Category:    domain.CategoryServices,
		Status:      domain.InvoiceStatusPending,
		Subtotal:    decimal.RequireFromString("250.01"),
		Tax:         decimal.RequireFromString("32"),
		Total:       decimal.RequireFromString("282.01"),
		Currency:    "MXN",
		ExtractedBy: &provider,
		Items:       domain.LineItems{{Description: "a"}, {Description: "b"}},
		CreatedAt:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	first.ExtractionWarnings = domain.StringList{"missing invoice number", "unknown category"}

	return []domain.Invoice{
		first,
		{
			Number:    "X-1",
			IssueDate: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
			Status:    domain.InvoiceStatusPaid,
			Total:     decimal.NewFromInt(1000),
			Currency:  "USD",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleInvoices()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, BOM))

	rows, err := csv.NewReader(bytes.NewReader(raw[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, columns, rows[0])

	first := rows[1]
	assert.Equal(t, "F-7", first[0])
	assert.Equal(t, "7", first[2])
	assert.Equal(t, "2024-03-15", first[3])
	assert.Equal(t, "2024-04-15", first[4])
	assert.Equal(t, "Acme Corp", first[6])
	assert.Equal(t, "250.01", first[colSubtotal])
	assert.Equal(t, "32.00", first[colTax])
	assert.Equal(t, "282.01", first[colTotal])
	assert.Equal(t, "2", first[17])
	assert.Equal(t, "missing invoice number; unknown category", first[18])

	second := rows[2]
	assert.Equal(t, "", second[2])
	assert.Equal(t, "", second[4])
	assert.Equal(t, "1000.00", second[colTotal])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleInvoices()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Number", rows[0][0])
	assert.Equal(t, "F-7", rows[1][0])
	assert.Equal(t, "282.01", rows[1][colTotal])
	assert.Equal(t, "1000", rows[2][colTotal])
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))
	assert.NotZero(t, buf.Len())
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mi_Empresa_S_A_2024-05-01.csv", BuildFilename("Mi Empresa, S.A.", "csv", now))
	assert.Equal(t, "facturas_2024-05-01.xlsx", BuildFilename("***", "xlsx", now))
}
