package types

import (
	"fmt"
	"net/http"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and services MUST use these constants
// instead of hardcoded strings.
//
// Only the two validation codes and the partial-data code carry a dedicated
// HTTP status; every other code collapses to a generic 500 at the API
// boundary. This narrow taxonomy is a compatibility requirement for the
// public error surface.
const (
	// Validation (400)
	ErrCodeFootprintValidation       ErrorCode = "footprint_validation"
	ErrCodeRecommendationsValidation ErrorCode = "recommendations_validation"

	// Partial data (416)
	ErrCodePartialData ErrorCode = "partial_data"

	// Internal/Upstream (500)
	ErrCodeInternalDB          ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected  ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Unrecognized codes return 500 as a safe default.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeFootprintValidation, ErrCodeRecommendationsValidation:
		return http.StatusBadRequest // 400
	case ErrCodePartialData:
		return http.StatusRequestedRangeNotSatisfiable // 416
	default:
		return http.StatusInternalServerError // 500
	}
}

// IsClientVisible reports whether the error's message may be surfaced
// verbatim to the caller. Validation and partial-data messages are written
// to the response body; everything else is masked behind a fixed generic
// message to avoid leaking internals.
func (c ErrorCode) IsClientVisible() bool {
	switch c {
	case ErrCodeFootprintValidation, ErrCodeRecommendationsValidation, ErrCodePartialData:
		return true
	default:
		return false
	}
}

// AppError is the standard application error type used throughout the
// platform. All domain and handler errors are expressed as AppError so the
// API layer can dispatch on the error kind with errors.As instead of
// inspecting dynamic type identity.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error. This is the standard constructor for domain
// errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewFootprintValidationError creates the validation error kind raised while
// validating a raw footprint request. The message is surfaced verbatim in
// the 400 response body.
func NewFootprintValidationError(message string) *AppError {
	return NewAppError(ErrCodeFootprintValidation, message, nil)
}

// NewRecommendationsValidationError creates the validation error kind raised
// while validating a raw recommendations request.
func NewRecommendationsValidationError(message string) *AppError {
	return NewAppError(ErrCodeRecommendationsValidation, message, nil)
}

// NewPartialDataError creates the error kind indicating an estimate could be
// computed only from incomplete source data. Mapped to 416 at the API
// boundary.
func NewPartialDataError(message string) *AppError {
	return NewAppError(ErrCodePartialData, message, nil)
}
