package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/application/validation"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
)

var errAdminOnly = shared.ErrForbidden.WithMessage("Only administrators can manage products")

// requireAdmin returns the session of an admin of tenant
func (s *Service) requireAdmin(ctx context.Context, tenant catalog.TenantID) (*identity.Session, error) {
	tenant, err := catalog.ParseTenant(string(tenant))
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !session.IsAdmin() {
		return nil, errAdminOnly
	}
	if session.TenantID != tenant {
		return nil, shared.ErrForbidden.WithMessage("Administrators can only manage their own store")
	}
	return session, nil
}

// CreateProduct adds a product to tenant's catalog and reloads the listing
func (s *Service) CreateProduct(ctx context.Context, tenant catalog.TenantID, input CreateProductInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return shared.ErrInvalidInput.WithMessage("precio: Must be greater than or equal to 0")
	}
	session, err := s.requireAdmin(ctx, tenant)
	if err != nil {
		return err
	}

	err = s.gateway.CreateProduct(ctx, session.Token, catalog.NewProduct{
		Tenant:      session.TenantID,
		Name:        input.Name,
		Price:       input.Price,
		Stock:       input.Stock,
		Description: input.Description,
		Category:    input.Category,
		Image:       input.Image,
	})
	if err != nil {
		notify.Error(ctx, "Could not create product: %v", err)
		return err
	}

	logger.L(ctx).Info("Product created", zap.String("name", input.Name))
	notify.Success(ctx, "Product %q created", input.Name)
	s.reload(ctx, session.TenantID)
	return nil
}

// DeleteProduct removes a product from tenant's catalog and reloads the listing
func (s *Service) DeleteProduct(ctx context.Context, tenant catalog.TenantID, productID string) error {
	if productID == "" {
		return shared.ErrInvalidInput.WithMessage("producto_id: This field is required")
	}
	session, err := s.requireAdmin(ctx, tenant)
	if err != nil {
		return err
	}

	if err := s.gateway.DeleteProduct(ctx, session.Token, session.TenantID, productID); err != nil {
		notify.Error(ctx, "Could not delete product: %v", err)
		return err
	}

	logger.L(ctx).Info("Product deleted", zap.String("product_id", productID))
	notify.Success(ctx, "Product deleted")
	s.reload(ctx, session.TenantID)
	return nil
}

// UpdateStock overwrites a product's stock and reloads the listing
func (s *Service) UpdateStock(ctx context.Context, tenant catalog.TenantID, input UpdateStockInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	session, err := s.requireAdmin(ctx, tenant)
	if err != nil {
		return err
	}

	if err := s.gateway.UpdateStock(ctx, session.Token, session.TenantID, input.ProductID, input.Stock); err != nil {
		notify.Error(ctx, "Could not update stock: %v", err)
		return err
	}

	logger.L(ctx).Info("Stock updated",
		zap.String("product_id", input.ProductID),
		zap.Int("stock", input.Stock))
	notify.Success(ctx, "Stock updated to %d", input.Stock)
	s.reload(ctx, session.TenantID)
	return nil
}

// reload refreshes the first page after an admin change. The change itself
// already succeeded, so a failed refresh is only logged.
func (s *Service) reload(ctx context.Context, tenant catalog.TenantID) {
	if err := s.Load(ctx, tenant); err != nil {
		logger.L(ctx).Warn("Failed to reload catalog after admin change", zap.Error(err))
	}
}
