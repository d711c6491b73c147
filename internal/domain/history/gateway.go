package history

import (
	"context"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

// Gateway is the remote purchase history service
type Gateway interface {
	ListHistory(ctx context.Context, token string, tenant catalog.TenantID, limit int, cursor string) (shared.Page[Record], error)
}
