package cart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

// AdjustmentKind says how the stock sweep changed a line
type AdjustmentKind string

const (
	// AdjustmentUnavailable means the product is sold out or gone
	AdjustmentUnavailable AdjustmentKind = "unavailable"
	// AdjustmentClamped means the quantity was lowered to the live stock
	AdjustmentClamped AdjustmentKind = "clamped"
)

// StockAdjustment is one line changed by VerifyStock
type StockAdjustment struct {
	ProductID string         `json:"product_id"`
	Name      string         `json:"name"`
	Kind      AdjustmentKind `json:"kind"`
	Previous  int            `json:"previous"`
	Current   int            `json:"current"`
	LiveStock int            `json:"live_stock"`
}

// Message describes the adjustment for the user
func (a StockAdjustment) Message() string {
	if a.Kind == AdjustmentUnavailable {
		return fmt.Sprintf("%s is no longer available", a.Name)
	}
	return fmt.Sprintf("%s: only %d available, quantity lowered from %d", a.Name, a.LiveStock, a.Previous)
}

// StockReport is the outcome of a stock sweep
type StockReport struct {
	Adjustments []StockAdjustment `json:"adjustments"`
	// SyncErrors lists adjustments the cart service did not accept
	SyncErrors  []string          `json:"sync_errors,omitempty"`
}

// Changed reports whether any line was adjusted
func (r *StockReport) Changed() bool {
	return r != nil && len(r.Adjustments) > 0
}

type liveLine struct {
	productID string
	stock     int
}

// VerifyStock checks every line against live stock. Sold-out or vanished
// products drop to quantity 0 and are flagged unavailable; quantities above
// the live stock are clamped. Nothing changes if any lookup fails.
func (r *Reconciler) VerifyStock(ctx context.Context) (*StockReport, error) {
	session, err := r.sessions.Require(ctx)
	if err != nil {
		return nil, err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.adopt(ctx, session.UserID)

	ctx, span := telemetry.StartSpan(ctx, "cart.verify",
		telemetry.WithAttribute(telemetry.SpanAttrOperation, OpVerify),
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, string(session.TenantID)))
	defer span.End()

	snap := r.Snapshot()
	report := &StockReport{}
	if len(snap.Items) == 0 {
		telemetry.SetOK(span)
		return report, nil
	}

	live := make([]liveLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		p, err := r.stock.LiveStock(ctx, snap.Tenant, item.Product.ID)
		switch {
		case err == nil:
			live = append(live, liveLine{productID: item.Product.ID, stock: p.Stock})
		case isGone(err):
			live = append(live, liveLine{productID: item.Product.ID, stock: 0})
		default:
			telemetry.RecordError(span, err)
			notify.Error(ctx, "Could not verify stock: %v", err)
			return nil, err
		}
	}

	r.mu.Lock()
	for _, l := range live {
		item, ok := r.cart.Find(l.productID)
		if !ok {
			continue
		}
		if l.stock == 0 {
			if item.Quantity == 0 && item.Unavailable {
				continue
			}
			r.cart.MarkUnavailable(l.productID)
			report.Adjustments = append(report.Adjustments, StockAdjustment{
				ProductID: l.productID,
				Name:      item.Product.Name,
				Kind:      AdjustmentUnavailable,
				Previous:  item.Quantity,
			})
			continue
		}
		prev, changed := r.cart.Clamp(l.productID, l.stock)
		if changed {
			report.Adjustments = append(report.Adjustments, StockAdjustment{
				ProductID: l.productID,
				Name:      item.Product.Name,
				Kind:      AdjustmentClamped,
				Previous:  prev,
				Current:   l.stock,
				LiveStock: l.stock,
			})
		}
	}
	r.mu.Unlock()
	r.persist(ctx)

	for _, adj := range report.Adjustments {
		r.metrics.RecordStockAdjustment(ctx, string(snap.Tenant), string(adj.Kind))
		if err := r.syncAdjustment(ctx, session.Token, session.UserID, snap.Tenant, adj); err != nil {
			logger.L(ctx).Warn("Stock adjustment not synced",
				zap.String("product_id", adj.ProductID), zap.Error(err))
			report.SyncErrors = append(report.SyncErrors, fmt.Sprintf("%s: %v", adj.Name, err))
		}
	}

	if report.Changed() {
		for _, adj := range report.Adjustments {
			notify.Warn(ctx, "%s", adj.Message())
		}
	} else {
		notify.Info(ctx, "All products in your cart are available")
	}
	telemetry.SetAttribute(span, "cart.adjustments", len(report.Adjustments))
	telemetry.SetOK(span)
	return report, nil
}

// syncAdjustment reports a sweep change to the cart service. The sweep
// reflects the server's own stock, so a failure here is never rolled back.
func (r *Reconciler) syncAdjustment(ctx context.Context, token, userID string, tenant catalog.TenantID, adj StockAdjustment) error {
	line := cart.LineRef{Tenant: tenant, UserID: userID, ProductID: adj.ProductID, Amount: adj.Current}
	if adj.Kind == AdjustmentUnavailable {
		return r.gateway.DeleteCartItem(ctx, token, line)
	}
	return r.gateway.UpdateCartItem(ctx, token, line)
}
