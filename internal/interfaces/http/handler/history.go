package handler

import (
	"github.com/gin-gonic/gin"

	apphistory "github.com/abarrotes/storefront/internal/application/history"
	"github.com/abarrotes/storefront/internal/interfaces/http/dto"
)

// HistoryHandler serves the purchase history page
type HistoryHandler struct {
	BaseHandler
	history *apphistory.Service
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(service *apphistory.Service) *HistoryHandler {
	return &HistoryHandler{history: service}
}

// RegisterRoutes registers the history routes
func (h *HistoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/history", h.List)
}

// List returns the first page of purchases, or appends the next with ?more
func (h *HistoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var err error
	if queryBool(c, "more") {
		err = h.history.LoadMore(ctx)
	} else {
		err = h.history.Load(ctx)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	records := h.history.Records()
	h.SuccessWithMeta(c, dto.ToPurchaseViews(records), len(records), h.history.HasMore())
}
