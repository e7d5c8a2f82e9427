package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"facturaia/internal/domain"
	"facturaia/internal/port"
	"facturaia/internal/service"
)

const (
	uploadProcessed = "processed"
	uploadDuplicate = "duplicate"
)

// UploadResponse is returned by the PDF upload endpoint.
type UploadResponse struct {
	Message     string          `json:"message"`
	Invoice     *domain.Invoice `json:"invoice"`
	IsDuplicate bool            `json:"is_duplicate"`
	Warnings    []string        `json:"warnings,omitempty"`
	Provider    string          `json:"provider,omitempty"`
}

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService   service.InvoiceService
	ingestionService service.IngestionService
	maxUploadSize    int64
}

// NewInvoiceHandler creates a new InvoiceHandler. maxUploadSize is in bytes.
func NewInvoiceHandler(invoiceService service.InvoiceService, ingestionService service.IngestionService, maxUploadSize int64) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:   invoiceService,
		ingestionService: ingestionService,
		maxUploadSize:    maxUploadSize,
	}
}

// Create handles POST /api/v1/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	var input service.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}
	if input.CompanyID == nil {
		if input.CompanyID, ok = companyQuery(c); !ok {
			return
		}
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), actor, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, invoice)
}

// Upload handles POST /api/v1/invoices/upload (multipart field "file").
// A new invoice answers 201, a re-upload of a known invoice 200.
func (h *InvoiceHandler) Upload(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	companyID, ok := companyQuery(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		HandleError(c, domain.ErrUnsupportedFileType)
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return
	}

	result, err := h.ingestionService.Ingest(c.Request.Context(), service.IngestInput{
		Data:      data,
		Filename:  filepath.Base(header.Filename),
		CompanyID: companyID,
		Actor:     &actor,
	})
	if err != nil {
		HandlePipelineError(c, err)
		return
	}

	if result.IsDuplicate {
		RespondOK(c, UploadResponse{Message: uploadDuplicate, Invoice: result.Invoice, IsDuplicate: true})
		return
	}
	RespondCreated(c, UploadResponse{
		Message:  uploadProcessed,
		Invoice:  result.Invoice,
		Warnings: result.Warnings,
		Provider: result.Provider,
	})
}

// List handles GET /api/v1/invoices?status=&contact_id=&type=&company_id=&from=&to=&page=&page_size=
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	companyID, ok := companyQuery(c)
	if !ok {
		return
	}
	filter, ok := parseInvoiceFilter(c)
	if !ok {
		return
	}
	offset, limit := parsePage(c)

	invoices, total, err := h.invoiceService.List(c.Request.Context(), actor, companyID, filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, invoice)
}

// UpdateStatus handles PATCH /api/v1/invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), actor, id, input.Status)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, invoice)
}

// Delete handles DELETE /api/v1/invoices/:id. The invoice is cancelled.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), actor, id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "invoice cancelled"})
}

// RecordPayment handles POST /api/v1/invoices/:id/payments
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.RecordPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), actor, id, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, invoice)
}

// ListPayments handles GET /api/v1/invoices/:id/payments
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.invoiceService.ListPayments(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, payments)
}

// File handles GET /api/v1/invoices/:id/file. Signed storage redirects,
// otherwise the bytes are streamed.
func (h *InvoiceHandler) File(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := h.invoiceService.File(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	if file.URL != "" {
		c.Redirect(http.StatusFound, file.URL)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func parseInvoiceFilter(c *gin.Context) (port.InvoiceFilter, bool) {
	var filter port.InvoiceFilter

	if raw := c.Query("status"); raw != "" {
		s := domain.InvoiceStatus(raw)
		if !domain.ValidInvoiceStatuses[s] {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid status")
			return filter, false
		}
		filter.Status = &s
	}
	if raw := c.Query("type"); raw != "" {
		t := domain.InvoiceType(raw)
		if t != domain.InvoiceTypeIncome && t != domain.InvoiceTypeExpense {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "type must be income or expense")
			return filter, false
		}
		filter.Type = &t
	}
	contactID, ok := optionalUUIDQuery(c, "contact_id")
	if !ok {
		return filter, false
	}
	filter.ContactID = contactID

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("invalid '%s' date: must be YYYY-MM-DD", name))
			return filter, false
		}
		*dst = &t
	}
	return filter, true
}
