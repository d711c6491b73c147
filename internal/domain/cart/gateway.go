package cart

import (
	"context"

	"github.com/abarrotes/storefront/internal/domain/catalog"
)

// LineRef addresses one line of the remote per-user cart
type LineRef struct {
	Tenant    catalog.TenantID
	UserID    string
	ProductID string
	Amount    int
}

// Gateway is the remote cart service. Every call is a single attempt.
type Gateway interface {
	AddCartItem(ctx context.Context, token string, line LineRef) error
	UpdateCartItem(ctx context.Context, token string, line LineRef) error
	DeleteCartItem(ctx context.Context, token string, line LineRef) error

	// CompleteCart turns the remote cart into a purchase
	CompleteCart(ctx context.Context, token string, tenant catalog.TenantID, userID string) error
}
