package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"facturaia/internal/domain"
	"facturaia/internal/export"
	"facturaia/internal/port"
)

const (
	monthlyWindow  = 6
	exportPageSize = 500

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportFile is a rendered invoice export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService provides financial reporting over invoices.
type ReportService interface {
	Summary(ctx context.Context, actor domain.Actor, companyID *uuid.UUID) (*domain.ReportSummary, error)
	Monthly(ctx context.Context, actor domain.Actor, companyID *uuid.UUID) ([]domain.MonthlyTotal, error)
	Export(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, format string, filter port.InvoiceFilter) (*ExportFile, error)
}

type reportService struct {
	reportRepo  port.ReportRepository
	invoiceRepo port.InvoiceRepository
	companyRepo port.CompanyRepository
	now         func() time.Time
}

// NewReportService creates a new ReportService implementation.
func NewReportService(
	reportRepo port.ReportRepository,
	invoiceRepo port.InvoiceRepository,
	companyRepo port.CompanyRepository,
) ReportService {
	return &reportService{
		reportRepo:  reportRepo,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		now:         time.Now,
	}
}

func (s *reportService) Summary(ctx context.Context, actor domain.Actor, companyID *uuid.UUID) (*domain.ReportSummary, error) {
	scope, err := actor.Scope(companyID)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.Summary(ctx, scope)
}

// Monthly returns the current month and the five before it, oldest first.
// Months without invoices are present with zero totals.
func (s *reportService) Monthly(ctx context.Context, actor domain.Actor, companyID *uuid.UUID) ([]domain.MonthlyTotal, error) {
	scope, err := actor.Scope(companyID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthlyWindow - 1), 0)

	rows, err := s.reportRepo.Monthly(ctx, scope, first)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]domain.MonthlyTotal, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	out := make([]domain.MonthlyTotal, 0, monthlyWindow)
	for i := 0; i < monthlyWindow; i++ {
		month := first.AddDate(0, i, 0).Format("2006-01")
		row, ok := byMonth[month]
		if !ok {
			row = domain.MonthlyTotal{Month: month, Total: decimal.Zero}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *reportService) Export(ctx context.Context, actor domain.Actor, companyID *uuid.UUID, format string, filter port.InvoiceFilter) (*ExportFile, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, domain.ErrInvalidExportType
	}
	scope, err := actor.Scope(companyID)
	if err != nil {
		return nil, err
	}

	var invoices []domain.Invoice
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.invoiceRepo.List(ctx, scope, filter, offset, exportPageSize)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, page...)
		if len(page) == 0 || len(invoices) >= total {
			break
		}
	}

	name := "facturas"
	if scope != nil {
		if company, err := s.companyRepo.GetByID(ctx, *scope); err == nil {
			name = "facturas_" + company.Name
		}
	}

	var buf bytes.Buffer
	file := &ExportFile{Filename: export.BuildFilename(name, format, s.now())}
	switch format {
	case FormatXLSX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, invoices)
	default:
		file.ContentType = "text/csv; charset=utf-8"
		err = export.WriteCSV(&buf, invoices)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering %s export: %w", format, err)
	}
	file.Data = buf.Bytes()
	return file, nil
}
