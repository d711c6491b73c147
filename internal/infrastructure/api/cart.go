package api

import (
	"context"
	"net/http"

	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
)

// AddCartItem creates a remote cart line with POST /cart/add
func (c *Client) AddCartItem(ctx context.Context, token string, line cart.LineRef) error {
	return c.cartCall(ctx, http.MethodPost, "/cart/add", token, cartItemDTO{
		TenantID:  string(line.Tenant),
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Amount:    line.Amount,
	})
}

// UpdateCartItem sets a remote line's amount with PUT /cart/update
func (c *Client) UpdateCartItem(ctx context.Context, token string, line cart.LineRef) error {
	return c.cartCall(ctx, http.MethodPut, "/cart/update", token, cartItemDTO{
		TenantID:  string(line.Tenant),
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Amount:    line.Amount,
	})
}

// DeleteCartItem removes a remote line with DELETE /cart/delete
func (c *Client) DeleteCartItem(ctx context.Context, token string, line cart.LineRef) error {
	return c.cartCall(ctx, http.MethodDelete, "/cart/delete", token, cartItemRefDTO{
		TenantID:  string(line.Tenant),
		UserID:    line.UserID,
		ProductID: line.ProductID,
	})
}

// CompleteCart purchases the remote cart with POST /cart/complete
func (c *Client) CompleteCart(ctx context.Context, token string, tenant catalog.TenantID, userID string) error {
	return c.cartCall(ctx, http.MethodPost, "/cart/complete", token, cartRefDTO{
		TenantID: string(tenant),
		UserID:   userID,
	})
}

func (c *Client) cartCall(ctx context.Context, method, path, token string, body any) error {
	_, err := c.do(ctx, request{
		method: method,
		base:   c.cfg.CartURL,
		path:   path,
		token:  token,
		auth:   c.cfg.CartAuth,
		body:   body,
	})
	return err
}
