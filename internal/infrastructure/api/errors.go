package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abarrotes/storefront/internal/domain/shared"
)

var (
	// ErrUnavailable indicates the request never produced an HTTP response
	ErrUnavailable = errors.New("storefront api: service unavailable")

	// ErrInvalidResponse indicates a 2xx response whose body could not be decoded
	ErrInvalidResponse = errors.New("storefront api: invalid response")
)

// APIError is a non-2xx response from the storefront services
type APIError struct {
	Status   int
	Message  string
	Endpoint string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.Status)
	}
	return e.Message
}

// Unwrap lets callers match authentication failures with errors.Is
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrUnauthorized
	default:
		return nil
	}
}

// IsRemote reports whether err came from the storefront services rather
// than from a local business rule
func IsRemote(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInvalidResponse)
}
