// cmd/facttrace/error.go
package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeDataset    ErrorType = "dataset"
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeParse      ErrorType = "parse"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes
const (
	ErrConfigMissingKey = "CONFIG_001"
	ErrConfigInvalid    = "CONFIG_002"

	ErrDatasetLoad   = "DATASET_001"
	ErrDatasetHeader = "DATASET_002"

	ErrFetchAttempt   = "FETCH_001"
	ErrFetchExhausted = "FETCH_002"

	ErrExtractEmpty = "EXTRACT_001"

	ErrParseModelOutput = "PARSE_001"

	ErrValidationRequest = "VALIDATION_001"
	ErrValidationSource  = "VALIDATION_002"

	ErrUpstreamSearch = "UPSTREAM_001"
	ErrUpstreamModel  = "UPSTREAM_002"
)

// FactTraceError is the custom error type for the application
type FactTraceError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Inner   error     `json:"-"`
}

func (e *FactTraceError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("[%s-%s] %s: %v", e.Type, e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("[%s-%s] %s", e.Type, e.Code, e.Message)
}

func (e *FactTraceError) Unwrap() error {
	return e.Inner
}

// NewError creates a new FactTraceError
func NewError(errType ErrorType, code string, message string, inner error) *FactTraceError {
	return &FactTraceError{
		Type:    errType,
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

// Common error constructors
func NewConfigError(code string, message string, inner error) *FactTraceError {
	return NewError(ErrorTypeConfig, code, message, inner)
}

func NewDatasetError(code string, message string, inner error) *FactTraceError {
	return NewError(ErrorTypeDataset, code, message, inner)
}

func NewFetchError(code string, message string, inner error) *FactTraceError {
	return NewError(ErrorTypeFetch, code, message, inner)
}

func NewParseError(code string, message string, inner error) *FactTraceError {
	return NewError(ErrorTypeParse, code, message, inner)
}

func NewValidationError(code string, message string) *FactTraceError {
	return NewError(ErrorTypeValidation, code, message, nil)
}

func NewExtractionError(code string, message string, inner error) *FactTraceError {
	return NewError(ErrorTypeExtraction, code, message, inner)
}

func NewUpstreamError(code string, message string, inner error) *FactTraceError {
	return NewError(ErrorTypeUpstream, code, message, inner)
}

// IsErrorType reports whether err, or anything it wraps, is a FactTraceError of the given type
func IsErrorType(err error, errType ErrorType) bool {
	var fe *FactTraceError
	if errors.As(err, &fe) {
		return fe.Type == errType
	}
	return false
}

// StatusFor maps an error to the HTTP status a handler should answer with
func StatusFor(err error) int {
	var fe *FactTraceError
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError
	}

	switch fe.Type {
	case ErrorTypeValidation:
		if fe.Code == ErrValidationSource {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case ErrorTypeFetch, ErrorTypeExtraction:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage returns the message safe to hand back to an API caller.
// Upstream and parse failures carry the inner message, everything else
// only its own description.
func ClientMessage(err error) string {
	var fe *FactTraceError
	if !errors.As(err, &fe) {
		return ErrMsgInternal
	}

	switch fe.Type {
	case ErrorTypeUpstream, ErrorTypeParse, ErrorTypeFetch:
		if fe.Inner != nil {
			return fmt.Sprintf("%s: %v", fe.Message, fe.Inner)
		}
	}
	return fe.Message
}
