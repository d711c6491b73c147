package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/abarrotes/storefront/internal/domain/shared"
)

// NewProduct is the admin input for creating a catalog entry
type NewProduct struct {
	Tenant      TenantID
	Name        string
	Price       decimal.Decimal
	Stock       int
	Description string
	Category    string
	Image       string
}

// ProductGateway is the remote products service
type ProductGateway interface {
	// ListProducts returns one page of a tenant's catalog. An empty cursor
	// requests the first page; an empty Next means the listing is exhausted.
	ListProducts(ctx context.Context, token string, tenant TenantID, cursor string) (shared.Page[Product], error)

	CreateProduct(ctx context.Context, token string, p NewProduct) error
	DeleteProduct(ctx context.Context, token string, tenant TenantID, productID string) error
	UpdateStock(ctx context.Context, token string, tenant TenantID, productID string, stock int) error
}
