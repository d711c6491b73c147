package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/abarrotes/storefront/internal/application/checkout"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/interfaces/http/dto"
)

// CheckoutHandler serves the confirmation page
type CheckoutHandler struct {
	BaseHandler
	checkout *checkout.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(service *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: service}
}

// RegisterRoutes registers the checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout", h.Confirm)
	rg.GET("/checkout/receipt", h.LastReceipt)
}

// Confirm godoc
// @Summary      Complete the purchase of the cart
// @Tags         checkout
// @Success      200 {object} dto.Response{data=dto.ReceiptView}
// @Failure      422 {object} dto.Response "Empty cart"
// @Router       /checkout [post]
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	receipt, err := h.checkout.Confirm(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToReceiptView(receipt))
}

// LastReceipt returns the receipt of the last purchase made in this process
func (h *CheckoutHandler) LastReceipt(c *gin.Context) {
	receipt := h.checkout.LastReceipt()
	if receipt == nil {
		h.HandleError(c, shared.ErrNotFound.WithMessage("No purchase has been made yet"))
		return
	}
	h.Success(c, dto.ToReceiptView(receipt))
}
