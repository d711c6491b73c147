package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeNotAuthenticated, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeTenantMismatch, http.StatusConflict},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodeInvalidTenant, http.StatusBadRequest},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeTenantMismatch, NormalizeErrorCode("TENANT_MISMATCH"))
	assert.Equal(t, ErrCodeEmptyCart, NormalizeErrorCode("EMPTY_CART"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, ErrCodeUnknown, NormalizeErrorCode("WHATEVER"))
}

func TestResponses(t *testing.T) {
	ok := NewSuccessResponseWithMeta([]string{"a"}, 1, true)
	assert.True(t, ok.Success)
	assert.Equal(t, &Meta{Count: 1, HasMore: true}, ok.Meta)

	failed := NewErrorResponseWithRequestID(ErrCodeEmptyCart, "The cart is empty", "req-1")
	assert.False(t, failed.Success)
	assert.Equal(t, "req-1", failed.Error.RequestID)
}
