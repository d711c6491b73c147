package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

// ListProducts fetches one page with GET /productos/listar
func (c *Client) ListProducts(ctx context.Context, token string, tenant catalog.TenantID, cursor string) (shared.Page[catalog.Product], error) {
	q := url.Values{}
	q.Set("tenant_id", string(tenant))
	if cursor != "" {
		q.Set("nextToken", cursor)
	}

	body, err := c.do(ctx, request{
		method: http.MethodGet,
		base:   c.cfg.ProductsURL,
		path:   "/productos/listar",
		query:  q,
		token:  token,
		auth:   c.cfg.ProductsAuth,
	})
	if err != nil {
		return shared.Page[catalog.Product]{}, err
	}

	var dto productPageDTO
	if err := decode(body, &dto); err != nil {
		return shared.Page[catalog.Product]{}, err
	}

	page := shared.Page[catalog.Product]{
		Items: make([]catalog.Product, 0, len(dto.Items)),
		Next:  string(dto.NextToken),
	}
	for _, item := range dto.Items {
		page.Items = append(page.Items, item.toDomain(tenant))
	}
	return page, nil
}

// CreateProduct adds a catalog entry with POST /productos/crear
func (c *Client) CreateProduct(ctx context.Context, token string, p catalog.NewProduct) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		base:   c.cfg.ProductsAdminURL,
		path:   "/productos/crear",
		token:  token,
		auth:   c.cfg.ProductsAuth,
		body: createProductDTO{
			TenantID:    string(p.Tenant),
			Name:        p.Name,
			Price:       json.Number(p.Price.String()),
			Stock:       p.Stock,
			Description: p.Description,
			Category:    p.Category,
			Image:       p.Image,
		},
	})
	return err
}

// DeleteProduct removes a catalog entry with DELETE /productos/eliminar
func (c *Client) DeleteProduct(ctx context.Context, token string, tenant catalog.TenantID, productID string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		base:   c.cfg.ProductsAdminURL,
		path:   "/productos/eliminar",
		token:  token,
		auth:   c.cfg.ProductsAuth,
		body:   productRefDTO{TenantID: string(tenant), ProductID: productID},
	})
	return err
}

// UpdateStock sets a product's stock with PUT /productos/actualizar-stock
func (c *Client) UpdateStock(ctx context.Context, token string, tenant catalog.TenantID, productID string, stock int) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		base:   c.cfg.ProductsURL,
		path:   "/productos/actualizar-stock",
		token:  token,
		auth:   c.cfg.ProductsAuth,
		body:   stockUpdateDTO{TenantID: string(tenant), ProductID: productID, Stock: stock},
	})
	return err
}
