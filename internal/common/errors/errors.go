// Package errors provides standardized error handling for lead integration and BPMN workflows.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Lead core errors
const (
	ErrCodeSchemaUnavailable         ErrorCode = "SCHEMA_UNAVAILABLE"
	ErrCodeMissingProviderCode       ErrorCode = "MISSING_PROVIDER_CODE"
	ErrCodeUnsupportedOutputFormat   ErrorCode = "UNSUPPORTED_OUTPUT_FORMAT"
	ErrCodeMalformedResponseDocument ErrorCode = "MALFORMED_RESPONSE_DOCUMENT"
	ErrCodeTransportFailure          ErrorCode = "TRANSPORT_FAILURE"
)

// Worker errors
const (
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeLeadRejected       ErrorCode = "LEAD_REJECTED"
	ErrCodeJournalWriteFailed ErrorCode = "JOURNAL_WRITE_FAILED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether err, or any error it wraps, is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first StandardError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewSchemaUnavailableError reports a schema that could not be fetched or parsed.
func NewSchemaUnavailableError(providerCode string, cause error) *StandardError {
	details := fmt.Sprintf("providerCode: %s", providerCode)
	if cause != nil {
		details = fmt.Sprintf("%s, error: %s", details, cause.Error())
	}
	return &StandardError{
		Code:      ErrCodeSchemaUnavailable,
		Message:   "Lead schema unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewMissingProviderCodeError is returned when neither the call nor the session carries a provider code.
func NewMissingProviderCodeError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingProviderCode,
		Message:   "Missing required provider code",
		Details:   "set a provider code on the session or pass one with the call",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedOutputFormatError creates a non-retryable output format error.
func NewUnsupportedOutputFormatError(format, operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedOutputFormat,
		Message:   "Unsupported output format",
		Details:   fmt.Sprintf("format: %q, operation: %s", format, operation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError creates a non-retryable response parsing error.
func NewMalformedResponseError(cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeMalformedResponseDocument,
		Message:   "Malformed response document",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewTransportFailureError creates a retryable error for a failed remote call.
func NewTransportFailureError(operation string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailure,
		Message:   fmt.Sprintf("Remote call '%s' failed", operation),
		Details:   cause.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewInputParsingFailedError creates a non-retryable job variable parsing error.
func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLeadRejectedError is raised when the remote service answered but did not create the lead.
func NewLeadRejectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLeadRejected,
		Message:   "Lead was not accepted by the remote service",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJournalWriteFailedError creates a retryable journal persistence error.
func NewJournalWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeJournalWriteFailed,
		Message:   "Failed to write lead submission journal",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSchemaUnavailable:         "LEAD_SCHEMA_UNAVAILABLE",
	ErrCodeMissingProviderCode:       "LEAD_PROVIDER_CODE_MISSING",
	ErrCodeUnsupportedOutputFormat:   "LEAD_OUTPUT_FORMAT_UNSUPPORTED",
	ErrCodeMalformedResponseDocument: "LEAD_RESPONSE_MALFORMED",
	ErrCodeTransportFailure:          "LEAD_SERVICE_UNAVAILABLE",
	ErrCodeInputParsingFailed:        "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:          "VALIDATION_FAILED",
	ErrCodeLeadRejected:              "LEAD_REJECTED",
	ErrCodeJournalWriteFailed:        "JOURNAL_WRITE_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransportFailure,
		ErrCodeJournalWriteFailed:
		return 3

	case ErrCodeSchemaUnavailable:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda. Metadata is
// passed on as error variables.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := make(map[string]interface{}, len(stdErr.Metadata)+2)
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}
	vars["originalErrorCode"] = string(stdErr.Code)
	vars["timestamp"] = stdErr.Timestamp.Format(time.RFC3339)

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SCHEMA"):
		return "SCHEMA"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "RESPONSE"):
		return "REMOTE"
	case strings.Contains(codeStr, "JOURNAL"):
		return "DATABASE"
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "FORMAT") ||
		strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "LEAD"):
		return "BUSINESS"
	default:
		return "OTHER"
	}
}

// Normalize returns err as a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}
