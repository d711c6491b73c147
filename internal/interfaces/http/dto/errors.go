package dto

import "net/http"

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Authentication error codes
const (
	ErrCodeUnauthorized     = "ERR_UNAUTHORIZED"
	ErrCodeForbidden        = "ERR_FORBIDDEN"
	ErrCodeNotAuthenticated = "ERR_NOT_AUTHENTICATED"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Business rule error codes
const (
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeTenantMismatch    = "ERR_TENANT_MISMATCH"
	ErrCodeEmptyCart         = "ERR_EMPTY_CART"
)

// Input error codes
const (
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput  = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON   = "ERR_INVALID_JSON"
	ErrCodeInvalidTenant = "ERR_INVALID_TENANT"
)

// Remote storefront API error codes
const (
	// ErrCodeUpstreamRejected is a 4xx answer from the storefront API
	ErrCodeUpstreamRejected = "ERR_UPSTREAM_REJECTED"
	// ErrCodeUpstreamUnavailable is a 5xx answer or no answer at all
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeNotAuthenticated: http.StatusUnauthorized,

	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeTenantMismatch:    http.StatusConflict,
	ErrCodeEmptyCart:         http.StatusUnprocessableEntity,

	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeInvalidTenant: http.StatusBadRequest,

	ErrCodeUpstreamRejected:    http.StatusUnprocessableEntity,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps domain error codes to API error codes
var domainErrorCodes = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"INVALID_INPUT":      ErrCodeInvalidInput,
	"INVALID_STATE":      ErrCodeInvalidState,
	"UNAUTHORIZED":       ErrCodeUnauthorized,
	"FORBIDDEN":          ErrCodeForbidden,
	"INSUFFICIENT_STOCK": ErrCodeInsufficientStock,
	"NOT_AUTHENTICATED":  ErrCodeNotAuthenticated,
	"INVALID_TENANT":     ErrCodeInvalidTenant,
	"TENANT_MISMATCH":    ErrCodeTenantMismatch,
	"EMPTY_CART":         ErrCodeEmptyCart,
}

// NormalizeErrorCode converts a domain error code to an API error code.
// Codes already in API form pass through unchanged.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainErrorCodes[code]; ok {
		return mapped
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeUnknown
}
