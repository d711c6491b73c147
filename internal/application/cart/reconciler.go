// Package cart reconciles the local cart with the remote cart service.
// Every mutation is applied locally first, confirmed remotely, and either
// committed or rolled back to the exact prior snapshot.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

// Cart operations, as recorded on spans and metrics
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpVerify = "verify"
	OpClear  = "clear"
)

// SessionSource yields the logged-in session
type SessionSource interface {
	Require(ctx context.Context) (*identity.Session, error)
}

// StockSource looks up a product's live stock
type StockSource interface {
	LiveStock(ctx context.Context, tenant catalog.TenantID, productID string) (catalog.Product, error)
}

// confirmFunc reports a local change to the cart service
type confirmFunc func(ctx context.Context, token string, line cart.LineRef) error

// Reconciler owns the local cart
type Reconciler struct {
	gateway  cart.Gateway
	sessions SessionSource
	stock    StockSource
	store    shared.KeyValueStore
	metrics  *telemetry.StorefrontMetrics

	// opMu allows one mutation cycle at a time
	opMu sync.Mutex

	mu   sync.RWMutex
	cart *cart.Cart
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithMetrics records cart mutations on m
func WithMetrics(m *telemetry.StorefrontMetrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// NewReconciler creates a reconciler with an empty cart. Call Load to
// pick up a persisted cart.
func NewReconciler(gateway cart.Gateway, sessions SessionSource, stock StockSource, store shared.KeyValueStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		gateway:  gateway,
		sessions: sessions,
		stock:    stock,
		store:    store,
		cart:     cart.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load restores the persisted cart, if any. A cart held for someone other
// than the logged-in user is discarded.
func (r *Reconciler) Load(ctx context.Context) error {
	raw, ok, err := r.store.Get(ctx, shared.StorageKeyCart)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}

	var snap cart.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		logger.L(ctx).Warn("Discarding unreadable persisted cart", zap.Error(err))
		return nil
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.mu.Lock()
	r.cart.Restore(snap)
	r.mu.Unlock()

	if session, err := r.sessions.Require(ctx); err == nil {
		r.adopt(ctx, session.UserID)
	}
	return nil
}

// Adopt binds the cart to userID, discarding lines held for another user.
// It reports whether a cart was discarded.
func (r *Reconciler) Adopt(ctx context.Context, userID string) bool {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return r.adopt(ctx, userID)
}

// adopt is Adopt for callers holding opMu
func (r *Reconciler) adopt(ctx context.Context, userID string) bool {
	r.mu.Lock()
	previous := r.cart.Owner()
	stale := !r.cart.HeldFor(userID)
	if stale {
		r.cart.Clear()
	}
	r.cart.SetOwner(userID)
	r.mu.Unlock()

	if stale {
		logger.L(ctx).Info("Discarded cart held for another user",
			zap.String("previous_user_id", previous), zap.String("user_id", userID))
		r.persist(ctx)
	}
	return stale
}

// Add puts one more unit of p in the cart. The product must belong to the
// session's store and to the store the cart already holds, and its known
// stock must exceed what the cart already reserves.
func (r *Reconciler) Add(ctx context.Context, p catalog.Product) (cart.Item, error) {
	session, err := r.sessions.Require(ctx)
	if err != nil {
		return cart.Item{}, err
	}
	if p.Tenant != session.TenantID {
		r.metrics.RecordCartMutation(ctx, OpAdd, telemetry.OutcomeRejected)
		return cart.Item{}, shared.ErrTenantMismatch
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.adopt(ctx, session.UserID)

	var (
		existing bool
		item     cart.Item
	)
	apply := func(c *cart.Cart) (cart.LineRef, error) {
		if err := c.CheckTenant(p.Tenant); err != nil {
			return cart.LineRef{}, err
		}
		current := c.Quantity(p.ID)
		if p.Stock <= current {
			return cart.LineRef{}, shared.ErrInsufficientStock.WithMessage(
				fmt.Sprintf("No more stock available for %s", p.Name))
		}
		// a zero-quantity line is gone from the cart service
		line, found := c.Find(p.ID)
		existing = found && line.Quantity > 0
		qty, err := c.Increment(p)
		if err != nil {
			return cart.LineRef{}, err
		}
		item, _ = c.Find(p.ID)
		return cart.LineRef{ProductID: p.ID, Amount: qty}, nil
	}
	confirm := func(ctx context.Context, token string, line cart.LineRef) error {
		if existing {
			return r.gateway.UpdateCartItem(ctx, token, line)
		}
		return r.gateway.AddCartItem(ctx, token, line)
	}

	if err := r.optimistic(ctx, OpAdd, session, p.ID, apply, confirm); err != nil {
		return cart.Item{}, err
	}
	return item, nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less
// removes the line.
func (r *Reconciler) UpdateQuantity(ctx context.Context, productID string, qty int) (cart.Item, error) {
	if qty <= 0 {
		return cart.Item{}, r.Remove(ctx, productID)
	}
	session, err := r.sessions.Require(ctx)
	if err != nil {
		return cart.Item{}, err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.adopt(ctx, session.UserID)

	var item cart.Item
	apply := func(c *cart.Cart) (cart.LineRef, error) {
		line, ok := c.Find(productID)
		if !ok {
			return cart.LineRef{}, shared.ErrNotFound.WithMessage("Product is not in the cart")
		}
		if line.Product.Tenant != session.TenantID {
			return cart.LineRef{}, shared.ErrTenantMismatch
		}
		if qty > line.Product.Stock {
			return cart.LineRef{}, shared.ErrInsufficientStock.WithMessage(
				fmt.Sprintf("Only %d units of %s available", line.Product.Stock, line.Product.Name))
		}
		if err := c.SetQuantity(productID, qty); err != nil {
			return cart.LineRef{}, err
		}
		item, _ = c.Find(productID)
		return cart.LineRef{ProductID: productID, Amount: qty}, nil
	}

	if err := r.optimistic(ctx, OpUpdate, session, productID, apply, r.gateway.UpdateCartItem); err != nil {
		return cart.Item{}, err
	}
	return item, nil
}

// Remove drops a line. The local removal always stands; a failed remote
// delete is reported but not rolled back.
func (r *Reconciler) Remove(ctx context.Context, productID string) error {
	session, err := r.sessions.Require(ctx)
	if err != nil {
		return err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.adopt(ctx, session.UserID)

	ctx, span := telemetry.StartSpan(ctx, "cart.remove",
		telemetry.WithAttribute(telemetry.SpanAttrOperation, OpRemove),
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID))
	defer span.End()

	r.mu.Lock()
	line, ok := r.cart.Find(productID)
	if ok {
		r.cart.Remove(productID)
	}
	r.mu.Unlock()
	if !ok {
		r.metrics.RecordCartMutation(ctx, OpRemove, telemetry.OutcomeRejected)
		return shared.ErrNotFound.WithMessage("Product is not in the cart")
	}
	r.persist(ctx)

	err = r.gateway.DeleteCartItem(ctx, session.Token, cart.LineRef{
		Tenant:    line.Product.Tenant,
		UserID:    session.UserID,
		ProductID: productID,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		r.metrics.RecordCartMutation(ctx, OpRemove, telemetry.OutcomeFailed)
		logger.L(ctx).Warn("Remote cart delete failed; kept local removal",
			zap.String("product_id", productID), zap.Error(err))
		notify.Warn(ctx, "%s was removed here but the store could not be updated: %v", line.Product.Name, err)
		return nil
	}

	telemetry.SetOK(span)
	r.metrics.RecordCartMutation(ctx, OpRemove, telemetry.OutcomeCommitted)
	return nil
}

// Clear empties the local cart
func (r *Reconciler) Clear(ctx context.Context) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	r.cart.Clear()
	r.mu.Unlock()
	r.persist(ctx)
	r.metrics.RecordCartMutation(ctx, OpClear, telemetry.OutcomeCommitted)
}

// Finalize runs complete on the current cart while holding off other
// mutations, and clears the cart when complete succeeds. An empty cart, or
// one held for another user, is rejected before complete is called.
func (r *Reconciler) Finalize(ctx context.Context, complete func(ctx context.Context, snap cart.Snapshot) error) (cart.Snapshot, error) {
	session, err := r.sessions.Require(ctx)
	if err != nil {
		return cart.Snapshot{}, err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.adopt(ctx, session.UserID)

	r.mu.RLock()
	snap := r.cart.Snapshot()
	total := r.cart.TotalItems()
	r.mu.RUnlock()
	if total == 0 {
		return snap, shared.ErrEmptyCart
	}

	if err := complete(ctx, snap); err != nil {
		return snap, err
	}

	r.mu.Lock()
	r.cart.Clear()
	r.mu.Unlock()
	r.persist(ctx)
	return snap, nil
}

// optimistic runs one snapshot, apply, confirm, commit-or-restore cycle.
// Callers hold opMu.
func (r *Reconciler) optimistic(ctx context.Context, op string, session *identity.Session, productID string,
	apply func(c *cart.Cart) (cart.LineRef, error), confirm confirmFunc) error {
	ctx, span := telemetry.StartSpan(ctx, "cart."+op,
		telemetry.WithAttribute(telemetry.SpanAttrOperation, op),
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, string(session.TenantID)),
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID))
	defer span.End()
	log := logger.L(ctx).With(zap.String("operation", op), zap.String("product_id", productID))

	r.mu.Lock()
	before := r.cart.Snapshot()
	line, err := apply(r.cart)
	if err != nil {
		r.cart.Restore(before)
		r.mu.Unlock()
		r.metrics.RecordCartMutation(ctx, op, telemetry.OutcomeRejected)
		log.Debug("Cart change rejected", zap.Error(err))
		return err
	}
	r.mu.Unlock()

	line.Tenant = session.TenantID
	line.UserID = session.UserID
	telemetry.SetAttribute(span, telemetry.SpanAttrQuantity, line.Amount)

	if err := confirm(ctx, session.Token, line); err != nil {
		r.mu.Lock()
		r.cart.Restore(before)
		r.mu.Unlock()

		telemetry.RecordError(span, err)
		r.metrics.RecordCartMutation(ctx, op, telemetry.OutcomeRolledBack)
		log.Warn("Cart change rolled back", zap.Error(err))
		notify.Error(ctx, "Could not update the cart: %v", err)
		return err
	}

	r.persist(ctx)
	telemetry.SetOK(span)
	r.metrics.RecordCartMutation(ctx, op, telemetry.OutcomeCommitted)
	log.Debug("Cart change committed", zap.Int("amount", line.Amount))
	return nil
}

// persist writes the committed cart. A failure leaves the in-memory cart
// authoritative for this process.
func (r *Reconciler) persist(ctx context.Context) {
	r.mu.RLock()
	snap := r.cart.Snapshot()
	r.mu.RUnlock()

	var err error
	if len(snap.Items) == 0 {
		err = r.store.Delete(ctx, shared.StorageKeyCart)
	} else {
		var raw []byte
		raw, err = json.Marshal(snap)
		if err == nil {
			err = r.store.Set(ctx, shared.StorageKeyCart, string(raw))
		}
	}
	if err != nil {
		logger.L(ctx).Error("Failed to persist cart", zap.Error(err))
		notify.Warn(ctx, "The cart could not be saved locally")
	}
}

// Items returns the cart lines
func (r *Reconciler) Items() []cart.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart.Items()
}

// Snapshot returns a deep copy of the cart
func (r *Reconciler) Snapshot() cart.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart.Snapshot()
}

// Tenant returns the store the cart is bound to, empty for an empty cart
func (r *Reconciler) Tenant() catalog.TenantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart.Tenant()
}

// TotalItems returns the number of units in the cart
func (r *Reconciler) TotalItems() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart.TotalItems()
}

// TotalPrice returns the sum of the line subtotals
func (r *Reconciler) TotalPrice() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart.TotalPrice()
}

// Reserved returns the quantity of productID in the cart
func (r *Reconciler) Reserved(productID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cart.Quantity(productID)
}

// isGone reports whether a live lookup found the product missing
func isGone(err error) bool {
	return errors.Is(err, catalog.ErrProductNotFound)
}
