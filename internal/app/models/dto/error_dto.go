package dto

import "time"

// ErrorCode is the stable machine-readable code of an API error
type ErrorCode string

const (
	// Authentication
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeUnauthorized       ErrorCode = "AUTH_008"

	// Resources
	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"
	ErrorCodeConflict              ErrorCode = "RES_004"
	ErrorCodeForbidden             ErrorCode = "RES_005"

	// Input
	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	ErrorCodeBadRequest       ErrorCode = "VAL_002"
	// The token is valid but the identity has no profile yet
	ErrorCodeProfileRequired ErrorCode = "VAL_003"

	// Server
	ErrorCodeInternalServer  ErrorCode = "SRV_001"
	ErrorCodeTooManyRequests ErrorCode = "SRV_004"
)

// ErrorSeverity is kept on the wire for clients that still branch on it
type ErrorSeverity string

const ErrorSeverityError ErrorSeverity = "ERROR"

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code     ErrorCode     `json:"code" example:"VAL_001"`
	Message  string        `json:"message" example:"content is required"`
	Field    string        `json:"field,omitempty" example:"content"`
	Severity ErrorSeverity `json:"severity" example:"ERROR"`
	Details  interface{}   `json:"details,omitempty"`
}

// ErrorResponse is the envelope of every failed request
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewErrorDetail creates a new error detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{Code: code, Message: message, Severity: ErrorSeverityError}
}

// WithField names the offending input field
func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

// WithDetails attaches extra context
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(errorDetail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{Error: errorDetail, Timestamp: time.Now()}
}

// FieldError is one failed rule of a request body or query
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors lists every failed rule, in struct field order
type FieldErrors struct {
	Errors []FieldError `json:"errors"`
}

// Add appends a failed rule
func (f *FieldErrors) Add(field, message string) {
	f.Errors = append(f.Errors, FieldError{Field: field, Message: message})
}
