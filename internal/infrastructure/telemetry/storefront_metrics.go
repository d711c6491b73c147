package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter
var ErrMeterNil = errors.New("meter cannot be nil")

// Metric attribute keys
const (
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
	AttrTenant    = attribute.Key("tenant_id")
	AttrEndpoint  = attribute.Key("endpoint")
	AttrStatus    = attribute.Key("status")
)

// Outcomes recorded on counters
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeRejected   = "rejected"
	OutcomeSucceeded  = "succeeded"
	OutcomeFailed     = "failed"
)

// StorefrontMetrics holds the client's business counters. A nil
// *StorefrontMetrics is valid and records nothing.
type StorefrontMetrics struct {
	cartMutations *Counter
	stockSweeps   *Counter
	checkouts     *Counter
	apiDuration   *Histogram
}

// NewStorefrontMetrics registers the storefront instruments on meter
func NewStorefrontMetrics(meter metric.Meter) (*StorefrontMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   StorefrontMetrics
		err error
	)
	if m.cartMutations, err = NewCounter(meter, "storefront.cart.mutations",
		"Cart mutations by operation and outcome", "{mutation}"); err != nil {
		return nil, err
	}
	if m.stockSweeps, err = NewCounter(meter, "storefront.cart.stock_adjustments",
		"Cart lines adjusted by stock verification", "{line}"); err != nil {
		return nil, err
	}
	if m.checkouts, err = NewCounter(meter, "storefront.checkouts",
		"Checkout attempts by tenant and outcome", "{checkout}"); err != nil {
		return nil, err
	}
	if m.apiDuration, err = NewHistogram(meter, "storefront.api.duration",
		"Remote storefront API call duration", "ms",
		25, 50, 100, 250, 500, 1000, 2500, 5000, 10000); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordCartMutation counts one optimistic cart cycle
func (m *StorefrontMetrics) RecordCartMutation(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.cartMutations.Inc(ctx, AttrOperation.String(op), AttrOutcome.String(outcome))
}

// RecordStockAdjustment counts a cart line clamped or zeroed by verification
func (m *StorefrontMetrics) RecordStockAdjustment(ctx context.Context, tenant, kind string) {
	if m == nil {
		return
	}
	m.stockSweeps.Inc(ctx, AttrTenant.String(tenant), AttrOperation.String(kind))
}

// RecordCheckout counts a checkout attempt
func (m *StorefrontMetrics) RecordCheckout(ctx context.Context, tenant, outcome string) {
	if m == nil {
		return
	}
	m.checkouts.Inc(ctx, AttrTenant.String(tenant), AttrOutcome.String(outcome))
}

// RecordAPICall records the duration of one remote call
func (m *StorefrontMetrics) RecordAPICall(ctx context.Context, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.apiDuration.Record(ctx, float64(d.Milliseconds()),
		AttrEndpoint.String(endpoint), AttrStatus.Int(status))
}
