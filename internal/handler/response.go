package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"facturaia/internal/domain"
	"facturaia/internal/logger"
	"facturaia/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

const (
	defaultLimit = 20
	maxLimit     = 200

	defaultInvoicePageSize = 50
)

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrCompanyNotFound):
		return http.StatusNotFound, "COMPANY_NOT_FOUND", "no company available for invoice"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrNoCompany):
		return http.StatusForbidden, "NO_COMPANY", "user is not assigned to a company"
	case errors.Is(err, domain.ErrCompanyInactive):
		return http.StatusForbidden, "COMPANY_INACTIVE", "company is inactive"
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusForbidden, "USER_INACTIVE", "user is inactive"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "DUPLICATE_EMAIL", "email already exists"
	case errors.Is(err, domain.ErrDuplicateTaxID):
		return http.StatusConflict, "DUPLICATE_TAX_ID", "company tax id already exists"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest, "INVALID_TRANSITION", "invalid invoice status transition"
	case errors.Is(err, domain.ErrInvoiceCancelled):
		return http.StatusBadRequest, "INVOICE_CANCELLED", "invoice is cancelled"
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT", "amount must be greater than zero"
	case errors.Is(err, domain.ErrEmptyItems):
		return http.StatusBadRequest, "EMPTY_ITEMS", "invoice requires at least one item"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "INVALID_ROLE", "invalid role"
	case errors.Is(err, domain.ErrSelfDelete):
		return http.StatusBadRequest, "SELF_DELETE", "users cannot delete themselves"
	case errors.Is(err, domain.ErrInvalidExportType):
		return http.StatusBadRequest, "INVALID_EXPORT_TYPE", "export format must be csv or xlsx"
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "UNKNOWN_PROVIDER", "unknown llm provider"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, "EXTRACTION_FAILED", "could not read text from the pdf"
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusUnprocessableEntity, "MALFORMED_RESPONSE", "could not parse invoice data from the model response"
	case errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusBadGateway, "LLM_UNAVAILABLE", "no llm provider is available"
	case errors.Is(err, domain.ErrStorageFailed):
		return http.StatusInternalServerError, "STORAGE_FAILED", "file storage operation failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log := logger.WithRequestID(c.GetString(middleware.ContextKeyRequestID))
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("handler: internal error")
	}
	RespondError(c, status, code, msg)
}

// HandlePipelineError is HandleError for ingestion failures: the code stays
// fixed and the message carries the underlying error so operators can see
// which stage or provider failed.
func HandlePipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrExtractionFailed),
		errors.Is(err, domain.ErrMalformedResponse),
		errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrCompanyNotFound):
		status, code, _ := MapDomainError(err)
		log := logger.WithRequestID(c.GetString(middleware.ContextKeyRequestID))
		log.Warn().Err(err).Str("code", code).Msg("handler: ingestion failed")
		RespondError(c, status, code, err.Error())
	default:
		HandleError(c, err)
	}
}

// RespondValidation sends a 400 for a binding failure.
func RespondValidation(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
}

// extractActor returns the authenticated caller. Returns false if the actor
// is missing (error response already written).
func extractActor(c *gin.Context) (domain.Actor, bool) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return domain.Actor{}, false
	}
	return actor, true
}

// parseIDParam parses the :id path parameter.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// companyQuery reads the requested company filter from company_id or its
// alias empresaId. Services only honor it for super admins.
func companyQuery(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("company_id")
	if raw == "" {
		raw = c.Query("empresaId")
	}
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid company_id")
		return nil, false
	}
	return &id, true
}

// optionalUUIDQuery parses an optional uuid query parameter.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
		return nil, false
	}
	return &id, true
}

// parsePagination reads offset and limit query parameters.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

// parsePage reads page and page_size (1-based) and converts them to an
// offset and limit. Without page the offset/limit parameters are used.
func parsePage(c *gin.Context) (offset, limit int) {
	if c.Query("page") == "" && c.Query("page_size") == "" {
		if c.Query("limit") != "" || c.Query("offset") != "" {
			return parsePagination(c)
		}
		return 0, defaultInvoicePageSize
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultInvoicePageSize)))
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultInvoicePageSize
	}
	if size > maxLimit {
		size = maxLimit
	}
	return (page - 1) * size, size
}
