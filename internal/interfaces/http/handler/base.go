// Package handler holds the view server's gin handlers.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/api"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/interfaces/http/dto"
	"github.com/abarrotes/storefront/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// respond writes a response with the notices collected for the request
func (h *BaseHandler) respond(c *gin.Context, status int, resp dto.Response) {
	resp.Notices = middleware.CollectedNotices(c)
	c.JSON(status, resp)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response for a cursor-paged list
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, count int, hasMore bool) {
	h.respond(c, http.StatusOK, dto.NewSuccessResponseWithMeta(data, count, hasMore))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, dto.NewSuccessResponse(data))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	h.respond(c, dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, message, c.GetString(middleware.RequestIDKey)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeBadRequest, message)
}

// InvalidJSON reports a body that could not be bound
func (h *BaseHandler) InvalidJSON(c *gin.Context, err error) {
	_ = c.Error(err)
	h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, "Invalid request body")
}

// HandleError converts service errors to HTTP responses. Business rule
// rejections keep their code; failures of the storefront services become
// upstream errors.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		h.ErrorWithCode(c, upstreamCode(apiErr.Status), apiErr.Error())
		return
	}
	if errors.Is(err, api.ErrUnavailable) || errors.Is(err, api.ErrInvalidResponse) {
		h.ErrorWithCode(c, dto.ErrCodeUpstreamUnavailable, "The store service is unavailable, try again later")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	h.ErrorWithCode(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

func upstreamCode(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return dto.ErrCodeUnauthorized
	case status == http.StatusNotFound:
		return dto.ErrCodeNotFound
	case status >= http.StatusInternalServerError:
		return dto.ErrCodeUpstreamUnavailable
	default:
		return dto.ErrCodeUpstreamRejected
	}
}

// queryBool reads a boolean query flag; a bare "?more" counts as true
func queryBool(c *gin.Context, key string) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return false
	}
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
