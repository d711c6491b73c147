package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/abarrotes/storefront/internal/application/cart"
	appcatalog "github.com/abarrotes/storefront/internal/application/catalog"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/interfaces/http/dto"
)

// CartHandler serves the cart page
type CartHandler struct {
	BaseHandler
	cart    *appcart.Reconciler
	catalog *appcatalog.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(reconciler *appcart.Reconciler, catalogService *appcatalog.Service) *CartHandler {
	return &CartHandler{cart: reconciler, catalog: catalogService}
}

// RegisterRoutes registers the cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	cart.GET("", h.Get)
	cart.DELETE("", h.Clear)
	cart.POST("/items", h.AddItem)
	cart.PUT("/items/:id", h.UpdateItem)
	cart.DELETE("/items/:id", h.RemoveItem)
	cart.POST("/verify", h.Verify)
}

// AddItemRequest names a product of the loaded shop page
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// UpdateItemRequest sets a line quantity; zero or less removes the line
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// VerifyView is the stock sweep result with the resulting cart
type VerifyView struct {
	Report *appcart.StockReport `json:"report"`
	Cart   dto.CartView         `json:"cart"`
}

// Get returns the cart
func (h *CartHandler) Get(c *gin.Context) {
	h.Success(c, dto.ToCartView(h.cart.Snapshot()))
}

// AddItem godoc
// @Summary      Put one unit of a product in the cart
// @Description  The product must belong to the store page currently loaded.
// @Tags         cart
// @Param        request body AddItemRequest true "Product"
// @Success      200 {object} dto.Response{data=dto.CartView}
// @Failure      409 {object} dto.Response "Cart belongs to another store"
// @Failure      422 {object} dto.Response "Insufficient stock"
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidJSON(c, err)
		return
	}
	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		h.HandleError(c, catalog.ErrProductNotFound)
		return
	}
	if _, err := h.cart.Add(c.Request.Context(), product); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCartView(h.cart.Snapshot()))
}

// UpdateItem sets the quantity of a cart line
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidJSON(c, err)
		return
	}
	if _, err := h.cart.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCartView(h.cart.Snapshot()))
}

// RemoveItem drops a cart line
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.cart.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCartView(h.cart.Snapshot()))
}

// Clear empties the local cart
func (h *CartHandler) Clear(c *gin.Context) {
	h.cart.Clear(c.Request.Context())
	h.Success(c, dto.ToCartView(h.cart.Snapshot()))
}

// Verify checks every line against live stock
func (h *CartHandler) Verify(c *gin.Context) {
	report, err := h.cart.VerifyStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, VerifyView{Report: report, Cart: dto.ToCartView(h.cart.Snapshot())})
}
