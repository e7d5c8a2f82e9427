package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"facturaia/internal/domain"
)

// SheetName is the worksheet the XLSX export writes to.
const SheetName = "Facturas"

// WriteXLSX writes the invoices as a single-sheet workbook. Money columns are
// numeric cells so spreadsheets can sum them.
func WriteXLSX(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("export.WriteXLSX header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export.WriteXLSX style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("export.WriteXLSX style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("export.WriteXLSX style: %w", err)
	}

	for i := range invoices {
		inv := &invoices[i]
		rowNum := i + 2
		strRow := invoiceToRow(inv)
		row := make([]interface{}, len(strRow))
		for j, v := range strRow {
			row[j] = v
		}
		row[colSubtotal] = inv.Subtotal.InexactFloat64()
		row[colTax] = inv.Tax.InexactFloat64()
		row[colTotal] = inv.Total.InexactFloat64()

		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return fmt.Errorf("export.WriteXLSX: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("export.WriteXLSX row %d: %w", rowNum, err)
		}
	}

	if len(invoices) > 0 {
		from, _ := excelize.CoordinatesToCellName(colSubtotal+1, 2)
		to, _ := excelize.CoordinatesToCellName(colTotal+1, len(invoices)+1)
		if err := f.SetCellStyle(SheetName, from, to, money); err != nil {
			return fmt.Errorf("export.WriteXLSX style: %w", err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetColWidth(SheetName, "A", last, 16); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export.WriteXLSX write: %w", err)
	}
	return nil
}
