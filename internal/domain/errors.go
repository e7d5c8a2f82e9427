package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrCompanyInactive    = errors.New("company is inactive")
	ErrNoCompany          = errors.New("user is not assigned to a company")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicateTaxID     = errors.New("company tax id already exists")
	ErrCompanyNotFound    = errors.New("no company available for invoice")
	ErrInvalidTransition  = errors.New("invalid invoice status transition")
	ErrInvoiceCancelled   = errors.New("invoice is cancelled")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrEmptyItems         = errors.New("invoice requires at least one item")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSelfDelete         = errors.New("users cannot delete themselves")
	ErrInvalidExportType  = errors.New("export format must be csv or xlsx")

	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrStorageFailed       = errors.New("object storage operation failed")

	// Ingestion failure taxonomy. Each is terminal for the file being processed.
	ErrExtractionFailed  = errors.New("pdf text extraction failed")
	ErrLLMUnavailable    = errors.New("no llm provider produced a response")
	ErrMalformedResponse = errors.New("llm response did not contain a valid invoice json object")
	ErrUnknownProvider   = errors.New("unknown llm provider")
)
