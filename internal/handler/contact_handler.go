package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facturaia/internal/domain"
	"facturaia/internal/port"
	"facturaia/internal/service"
)

// ContactHandler handles customer and supplier endpoints.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Create handles POST /api/v1/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	var input service.CreateContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}
	if input.CompanyID == nil {
		if input.CompanyID, ok = companyQuery(c); !ok {
			return
		}
	}

	contact, err := h.contactService.Create(c.Request.Context(), actor, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, contact)
}

// List handles GET /api/v1/contacts?search=&type=&company_id=
func (h *ContactHandler) List(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	companyID, ok := companyQuery(c)
	if !ok {
		return
	}

	filter := port.ContactFilter{Search: c.Query("search")}
	if raw := c.Query("type"); raw != "" {
		t := domain.ContactType(raw)
		if t != domain.ContactTypeCustomer && t != domain.ContactTypeSupplier {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "type must be customer or supplier")
			return
		}
		filter.Type = &t
	}
	offset, limit := parsePagination(c)

	contacts, total, err := h.contactService.List(c.Request.Context(), actor, companyID, filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, contacts, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/contacts/:id
func (h *ContactHandler) GetByID(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	contact, err := h.contactService.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, contact)
}

// Update handles PUT /api/v1/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input service.UpdateContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	contact, err := h.contactService.Update(c.Request.Context(), actor, id, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, contact)
}

// Delete handles DELETE /api/v1/contacts/:id. Contacts are deactivated, not removed.
func (h *ContactHandler) Delete(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), actor, id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "contact deactivated"})
}

// Stats handles GET /api/v1/contacts/:id/stats
func (h *ContactHandler) Stats(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.contactService.Stats(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stats)
}
