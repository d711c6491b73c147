package history

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abarrotes/storefront/internal/domain/catalog"
)

// Line is one product within a completed purchase
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns unit price times quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Record is a past completed cart
type Record struct {
	ID     string           `json:"id"`
	Tenant catalog.TenantID `json:"tenant"`
	Shop   string           `json:"shop,omitempty"`
	UserID string           `json:"user_id"`
	Date   time.Time        `json:"date,omitzero"`
	Items  []Line           `json:"items"`
	Total  decimal.Decimal  `json:"total"`
}

// ComputedTotal sums the line subtotals
func (r Record) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Items {
		total = total.Add(l.Subtotal())
	}
	return total
}

// TotalOrComputed returns the server-reported total, falling back to the
// line sum when the server sent none
func (r Record) TotalOrComputed() decimal.Decimal {
	if !r.Total.IsZero() {
		return r.Total
	}
	return r.ComputedTotal()
}

// ShopName returns the store name recorded with the purchase, or the
// tenant's display name
func (r Record) ShopName() string {
	if r.Shop != "" {
		return r.Shop
	}
	return r.Tenant.DisplayName()
}

// ItemCount returns the number of units purchased
func (r Record) ItemCount() int {
	n := 0
	for _, l := range r.Items {
		n += l.Quantity
	}
	return n
}
