package handler

import (
	"github.com/gin-gonic/gin"

	"facturaia/internal/service"
)

// CompanyHandler handles company (tenant) endpoints.
type CompanyHandler struct {
	companyService service.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Create handles POST /api/v1/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	var input service.CreateCompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	company, err := h.companyService.Create(c.Request.Context(), actor, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, company)
}

// List handles GET /api/v1/companies. Super admins see every company,
// everyone else only their own.
func (h *CompanyHandler) List(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	offset, limit := parsePagination(c)

	companies, total, err := h.companyService.List(c.Request.Context(), actor, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, companies, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/companies/:id
func (h *CompanyHandler) GetByID(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	company, err := h.companyService.Get(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, company)
}

// Update handles PUT /api/v1/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.UpdateCompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	company, err := h.companyService.Update(c.Request.Context(), actor, id, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, company)
}

// UpdateConfig handles PUT /api/v1/companies/:id/config
func (h *CompanyHandler) UpdateConfig(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.UpdateConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	company, err := h.companyService.UpdateConfig(c.Request.Context(), actor, id, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, company)
}
