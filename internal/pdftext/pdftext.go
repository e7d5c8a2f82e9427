// Package pdftext pulls the embedded text layer out of PDF files.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"facturaia/internal/domain"
)

// Extractor implements port.TextExtractor with ledongthuc/pdf. Scanned PDFs
// without a text layer yield empty text.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrExtractionFailed, filename)
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filename, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filename, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filename, err)
	}
	return strings.TrimSpace(string(raw)), nil
}
