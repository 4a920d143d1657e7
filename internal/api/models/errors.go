package models

import (
	"errors"
	"net/http"

	"github.com/BenjaminJRies/examen-bentoml/internal/auth"
	"github.com/BenjaminJRies/examen-bentoml/internal/prediction"
	"github.com/BenjaminJRies/examen-bentoml/internal/validation"
)

// Error codes
const (
	// Authentication errors
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeMissingToken       = "MISSING_TOKEN"
	ErrCodeInvalidSignature   = "INVALID_SIGNATURE"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"

	// Request errors
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"

	// Server errors
	ErrCodeModelUnavailable = "MODEL_UNAVAILABLE"
	ErrCodeAuditUnavailable = "AUDIT_UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// APIError represents a structured API error
type APIError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Fields     []FieldDetail `json:"fields,omitempty"`
	StatusCode int           `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithField adds a field error
func (e *APIError) WithField(field, reason string) *APIError {
	e.Fields = append(e.Fields, FieldDetail{Field: field, Reason: reason})
	return e
}

// Info converts the error into the envelope payload
func (e *APIError) Info() *ErrorInfo {
	return &ErrorInfo{Code: e.Code, Message: e.Message, Fields: e.Fields}
}

var (
	ErrModelUnavailable = NewAPIError(ErrCodeModelUnavailable, "Prediction model is not available", http.StatusServiceUnavailable)
	ErrAuditUnavailable = NewAPIError(ErrCodeAuditUnavailable, "Prediction audit is not enabled", http.StatusServiceUnavailable)
	ErrInternal         = NewAPIError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError)
	ErrRateLimited      = NewAPIError(ErrCodeRateLimited, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
	ErrPayloadTooLarge  = NewAPIError(ErrCodePayloadTooLarge, "Request body too large", http.StatusRequestEntityTooLarge)
)

// FromAuthError maps auth sentinel errors to 400/401 responses. Unknown
// errors become INTERNAL_ERROR so their text never reaches the caller.
func FromAuthError(err error) *APIError {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return NewAPIError(ErrCodeMissingCredentials, "Username and password are required", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewAPIError(ErrCodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrMissingToken):
		return NewAPIError(ErrCodeMissingToken, "Authorization token required", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrExpiredToken):
		return NewAPIError(ErrCodeTokenExpired, "Token has expired", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidSignature):
		return NewAPIError(ErrCodeInvalidSignature, "Invalid token", http.StatusUnauthorized)
	default:
		return ErrInternal
	}
}

// FromValidationError maps single-record and batch validation failures to 422
// responses listing every offending field.
func FromValidationError(err error) *APIError {
	apiErr := NewAPIError(ErrCodeValidationFailed, "Input validation failed", http.StatusUnprocessableEntity)

	var verr *validation.ValidationError
	var berr *prediction.BatchValidationError
	switch {
	case errors.As(err, &berr):
		for _, rec := range berr.Records {
			for _, f := range rec.Fields {
				idx := rec.Index
				apiErr.Fields = append(apiErr.Fields, FieldDetail{Field: f.Field, Reason: f.Reason, Index: &idx})
			}
		}
	case errors.As(err, &verr):
		for _, f := range verr.Fields {
			apiErr.Fields = append(apiErr.Fields, FieldDetail{Field: f.Field, Reason: f.Reason})
		}
	default:
		return ErrInternal
	}

	return apiErr
}
