package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"facturaia/internal/service"
)

// ReportHandler handles report endpoints.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Summary handles GET /api/v1/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	companyID, ok := companyQuery(c)
	if !ok {
		return
	}

	summary, err := h.reportService.Summary(c.Request.Context(), actor, companyID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, summary)
}

// Monthly handles GET /api/v1/reports/monthly
func (h *ReportHandler) Monthly(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	companyID, ok := companyQuery(c)
	if !ok {
		return
	}

	months, err := h.reportService.Monthly(c.Request.Context(), actor, companyID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, months)
}

// Export handles GET /api/v1/reports/invoices/export?format=csv|xlsx
func (h *ReportHandler) Export(c *gin.Context) {
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

	file, err := h.reportService.Export(c.Request.Context(), actor, companyID, c.Query("format"), filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
