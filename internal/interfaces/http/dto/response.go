package dto

import "github.com/abarrotes/storefront/internal/application/notify"

// Response represents a standard API response
type Response struct {
	Success bool            `json:"success"`
	Data    any             `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
	Meta    *Meta           `json:"meta,omitempty"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Meta describes a cursor-paged list
type Meta struct {
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewSuccessResponseWithMeta creates a success response for a paged list
func NewSuccessResponseWithMeta(data any, count int, hasMore bool) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Count: count, HasMore: hasMore},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response carrying the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}
