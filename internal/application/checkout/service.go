// Package checkout finalizes the cart into a purchase.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/domain/shared/valueobject"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

// SessionSource yields the logged-in session
type SessionSource interface {
	Require(ctx context.Context) (*identity.Session, error)
}

// CartFinalizer runs a completion against the cart and clears it on success
type CartFinalizer interface {
	Finalize(ctx context.Context, complete func(ctx context.Context, snap cart.Snapshot) error) (cart.Snapshot, error)
}

// StockOverrides receives the post-purchase stock of bought products
type StockOverrides interface {
	ApplyStockOverride(productID string, stock int)
}

// ReceiptLine is one purchased product
type ReceiptLine struct {
	ProductID string            `json:"product_id"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	UnitPrice valueobject.Money `json:"-"`
	Subtotal  valueobject.Money `json:"-"`
}

// Receipt is the client-side record of a confirmed purchase
type Receipt struct {
	ID         string            `json:"id"`
	Tenant     catalog.TenantID  `json:"tenant"`
	ShopName   string            `json:"shop_name"`
	UserID     string            `json:"user_id"`
	Date       time.Time         `json:"date"`
	Lines      []ReceiptLine     `json:"lines"`
	TotalItems int               `json:"total_items"`
	Total      valueobject.Money `json:"-"`
}

// Service confirms purchases
type Service struct {
	gateway   cart.Gateway
	sessions  SessionSource
	cart      CartFinalizer
	overrides StockOverrides
	metrics   *telemetry.StorefrontMetrics
	now       func() time.Time

	mu   sync.RWMutex
	last *Receipt
}

// NewService creates a new checkout service. overrides and metrics may be nil.
func NewService(gateway cart.Gateway, sessions SessionSource, c CartFinalizer, overrides StockOverrides, metrics *telemetry.StorefrontMetrics) *Service {
	return &Service{
		gateway:   gateway,
		sessions:  sessions,
		cart:      c,
		overrides: overrides,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Confirm completes the purchase of the current cart. On failure the cart
// is left untouched.
func (s *Service) Confirm(ctx context.Context) (*Receipt, error) {
	session, err := s.sessions.Require(ctx)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "checkout.confirm",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, string(session.TenantID)),
		telemetry.WithAttribute(telemetry.SpanAttrUserID, session.UserID))
	defer span.End()
	log := logger.L(ctx).With(zap.String("tenant_id", string(session.TenantID)))

	snap, err := s.cart.Finalize(ctx, func(ctx context.Context, snap cart.Snapshot) error {
		if snap.Tenant != session.TenantID {
			return shared.ErrTenantMismatch.WithMessage("The cart belongs to another store")
		}
		return s.gateway.CompleteCart(ctx, session.Token, session.TenantID, session.UserID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordCheckout(ctx, string(session.TenantID), telemetry.OutcomeFailed)
		log.Warn("Checkout failed", zap.Error(err))
		notify.Error(ctx, "The purchase could not be completed: %v", err)
		return nil, err
	}

	receipt := s.receipt(session, snap)
	if s.overrides != nil {
		for _, item := range snap.Items {
			s.overrides.ApplyStockOverride(item.Product.ID, max(item.Product.Stock-item.Quantity, 0))
		}
	}

	s.mu.Lock()
	s.last = receipt
	s.mu.Unlock()

	telemetry.SetOK(span)
	s.metrics.RecordCheckout(ctx, string(session.TenantID), telemetry.OutcomeSucceeded)
	log.Info("Purchase completed",
		zap.String("receipt_id", receipt.ID),
		zap.Int("items", receipt.TotalItems),
		zap.String("total", receipt.Total.String()))
	notify.Success(ctx, "Purchase completed at %s: %s", receipt.ShopName, receipt.Total)
	return receipt, nil
}

// LastReceipt returns the receipt of the last purchase in this process
func (s *Service) LastReceipt() *Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Service) receipt(session *identity.Session, snap cart.Snapshot) *Receipt {
	r := &Receipt{
		ID:       uuid.NewString(),
		Tenant:   snap.Tenant,
		ShopName: snap.Tenant.DisplayName(),
		UserID:   session.UserID,
		Date:     s.now(),
		Total:    valueobject.Zero(valueobject.PEN),
	}
	for _, item := range snap.Items {
		if item.Quantity <= 0 {
			continue
		}
		unit := valueobject.NewMoneyPEN(item.Product.Price)
		line := ReceiptLine{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			Subtotal:  unit.MultiplyByInt(int64(item.Quantity)),
		}
		r.Lines = append(r.Lines, line)
		r.TotalItems += item.Quantity
		r.Total, _ = r.Total.Add(line.Subtotal)
	}
	return r
}
