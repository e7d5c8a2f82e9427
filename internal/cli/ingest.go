package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"facturaia/internal/app"
	"facturaia/internal/service"
)

var ingestCompany string

var ingestCmd = &cobra.Command{
	Use:   "ingest [pdf-file...]",
	Short: "Run the ingestion pipeline on PDF files",
	Long: `Extracts, classifies and stores each PDF exactly as an upload or a
dropped file would. Without --company the invoices land in the first company.`,
	Example: `  facturactl ingest factura-001.pdf factura-002.pdf
  facturactl ingest --company 2b6f0c1e-... recibo.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var companyID *uuid.UUID
		if ingestCompany != "" {
			id, err := uuid.Parse(ingestCompany)
			if err != nil {
				return fmt.Errorf("invalid --company: %w", err)
			}
			companyID = &id
		}

		a, err := app.New(cmd.Context(), loaded)
		if err != nil {
			return err
		}
		defer a.Close()
		return ingestFiles(cmd.Context(), a.Services.Ingestion, companyID, args, cmd.OutOrStdout())
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCompany, "company", "", "target company id")
}

// ingestLine is one line of the JSON output, one per file.
type ingestLine struct {
	File      string   `json:"file"`
	Status    string   `json:"status"`
	InvoiceID string   `json:"invoice_id,omitempty"`
	Number    string   `json:"number,omitempty"`
	Provider  string   `json:"provider,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ingestFiles processes every path even when some fail and reports the
// number of failures at the end.
func ingestFiles(ctx context.Context, svc service.IngestionService, companyID *uuid.UUID, paths []string, out io.Writer) error {
	enc := json.NewEncoder(out)
	failed := 0
	for _, path := range paths {
		line := ingestLine{File: path}

		data, err := os.ReadFile(path)
		if err == nil {
			var result *service.IngestResult
			result, err = svc.Ingest(ctx, service.IngestInput{
				Data:      data,
				Filename:  filepath.Base(path),
				CompanyID: companyID,
			})
			if err == nil {
				line.Status = "processed"
				if result.IsDuplicate {
					line.Status = "duplicate"
				}
				line.InvoiceID = result.Invoice.ID.String()
				line.Number = result.Invoice.Number
				line.Provider = result.Provider
				line.Warnings = result.Warnings
			}
		}
		if err != nil {
			failed++
			line.Status = "error"
			line.Error = err.Error()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}
