package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeInvalidConfiguration = "INVALID_CONFIGURATION"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeFileTooLarge         = "FILE_TOO_LARGE"
	ErrCodeUnsupportedFileType  = "UNSUPPORTED_FILE_TYPE"
	ErrCodeExtractionFailed     = "EXTRACTION_FAILED"
	ErrCodeProviderUnavailable  = "PROVIDER_UNAVAILABLE"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeDimensionMismatch    = "DIMENSION_MISMATCH"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeTimeout              = "TIMEOUT"
	ErrCodeNoContent            = "NO_CONTENT"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Configuration and validation errors
var (
	ErrInvalidChunkConfig   = NewDomainError(ErrCodeInvalidConfiguration, "chunk size must be positive and overlap must be in [0, size)")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidStatusChange  = NewDomainError(ErrCodeValidation, "illegal document status transition")
)

// Ingestion validation errors, surfaced before any document record exists
var (
	ErrFileTooLarge        = NewDomainError(ErrCodeFileTooLarge, "file exceeds the configured size limit")
	ErrUnsupportedFileType = NewDomainError(ErrCodeUnsupportedFileType, "declared file type is not in the allow-list")
)

// Pipeline errors, recorded on the failed document
var (
	ErrExtractionFailed    = NewDomainError(ErrCodeExtractionFailed, "text extraction failed")
	ErrProviderUnavailable = NewDomainError(ErrCodeProviderUnavailable, "embedding provider unavailable")
	ErrRateLimited         = NewDomainError(ErrCodeRateLimited, "embedding provider throttled the request")
	ErrEmptyEmbedInput     = NewDomainError(ErrCodeValidation, "embedding input is empty")
	ErrDimensionMismatch   = NewDomainError(ErrCodeDimensionMismatch, "embedding dimension does not match the store")
	ErrTimeout             = NewDomainError(ErrCodeTimeout, "external call exceeded its deadline")
)

// Not found errors
var (
	ErrDocumentNotFound  = NewDomainError(ErrCodeNotFound, "document not found")
	ErrTemplateNotFound  = NewDomainError(ErrCodeNotFound, "template not found")
	ErrUploadNotArchived = NewDomainError(ErrCodeNotFound, "no archived upload for document")
)

// Suggestion errors
var (
	ErrNoContent = NewDomainError(ErrCodeNoContent, "document has no stored chunks")
)
