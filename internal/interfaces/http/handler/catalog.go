package handler

import (
	"github.com/gin-gonic/gin"

	appcatalog "github.com/abarrotes/storefront/internal/application/catalog"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/interfaces/http/dto"
)

// CatalogHandler serves the store selector, the shop pages and the
// administrator product forms
type CatalogHandler struct {
	BaseHandler
	catalog  *appcatalog.Service
	reserved dto.Reservations
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *appcatalog.Service, reserved dto.Reservations) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService, reserved: reserved}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shops := rg.Group("/shops")
	shops.GET("", h.ListShops)
	shops.GET("/:tenant/products", h.ListProducts)
	shops.POST("/:tenant/products", h.CreateProduct)
	shops.DELETE("/:tenant/products", h.DeleteProduct)
	shops.DELETE("/:tenant/products/:id", h.DeleteProduct)
	shops.PUT("/:tenant/products/:id/stock", h.UpdateStock)
}

// ListShops returns the supported stores
func (h *CatalogHandler) ListShops(c *gin.Context) {
	h.Success(c, dto.ToShopViews(catalog.Tenants()))
}

// ListProducts godoc
// @Summary      List a store's products
// @Description  Loads the first page, or the next page with ?more. ?q filters the loaded products.
// @Tags         catalog
// @Param        tenant path string true "Store" Enums(tottus, plazavea, wong)
// @Param        more query bool false "Append the next page"
// @Param        q query string false "Search text"
// @Success      200 {object} dto.Response{data=[]dto.ProductView}
// @Router       /shops/{tenant}/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	tenant, err := catalog.ParseTenant(c.Param("tenant"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	if queryBool(c, "more") && h.catalog.Tenant() == tenant {
		err = h.catalog.LoadMore(ctx)
	} else {
		err = h.catalog.Load(ctx, tenant)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	products := h.catalog.Products()
	if q := c.Query("q"); q != "" {
		products = h.catalog.Search(q)
	}
	h.SuccessWithMeta(c, dto.ToProductViews(products, h.catalog, h.reserved), len(products), h.catalog.HasMore())
}

// CreateProduct godoc
// @Summary      Add a product to the administrator's store
// @Tags         catalog
// @Param        tenant path string true "Store"
// @Param        request body appcatalog.CreateProductInput true "Product"
// @Success      201 {object} dto.Response{data=[]dto.ProductView}
// @Router       /shops/{tenant}/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	tenant, err := catalog.ParseTenant(c.Param("tenant"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var input appcatalog.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.InvalidJSON(c, err)
		return
	}
	if err := h.catalog.CreateProduct(c.Request.Context(), tenant, input); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, h.productViews())
}

type deleteProductRequest struct {
	ProductID string `json:"producto_id"`
}

// DeleteProduct removes a product. The id comes from the path or from a
// {"producto_id"} body.
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	tenant, err := catalog.ParseTenant(c.Param("tenant"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	productID := c.Param("id")
	if productID == "" {
		var req deleteProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.InvalidJSON(c, err)
			return
		}
		productID = req.ProductID
	}
	if productID == "" {
		h.BadRequest(c, "producto_id is required")
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), tenant, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.productViews())
}

type updateStockRequest struct {
	Stock *int `json:"stock"`
}

// UpdateStock sets the stock of a product
func (h *CatalogHandler) UpdateStock(c *gin.Context) {
	tenant, err := catalog.ParseTenant(c.Param("tenant"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var req updateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.InvalidJSON(c, err)
		return
	}
	if req.Stock == nil {
		h.BadRequest(c, "stock is required")
		return
	}
	input := appcatalog.UpdateStockInput{ProductID: c.Param("id"), Stock: *req.Stock}
	if err := h.catalog.UpdateStock(c.Request.Context(), tenant, input); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.productViews())
}

func (h *CatalogHandler) productViews() []dto.ProductView {
	return dto.ToProductViews(h.catalog.Products(), h.catalog, h.reserved)
}
