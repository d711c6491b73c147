package cart

import (
	"github.com/shopspring/decimal"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

// Item is one cart line: a product snapshot and the reserved quantity.
// A quantity of zero is logically equivalent to the line being absent.
type Item struct {
	Product     catalog.Product `json:"product"`
	Quantity    int             `json:"quantity"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

// Subtotal returns price times quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Snapshot is a deep copy of a cart's state. It is also the persisted form.
type Snapshot struct {
	UserID string           `json:"user_id,omitempty"`
	Tenant catalog.TenantID `json:"tenant,omitempty"`
	Items  []Item           `json:"items"`
}

// Cart is an ordered collection of lines constrained to a single tenant.
// The tenant is established by the first line and released when the cart
// becomes empty. Cart is not safe for concurrent use.
type Cart struct {
	owner  string
	tenant catalog.TenantID
	items  []Item
}

// New returns an empty cart
func New() *Cart {
	return &Cart{}
}

// Tenant returns the established tenant, empty when no line exists
func (c *Cart) Tenant() catalog.TenantID {
	return c.tenant
}

// Owner returns the user the cart is held for
func (c *Cart) Owner() string {
	return c.owner
}

// HeldFor reports whether the cart may be used by userID. An empty cart
// belongs to nobody.
func (c *Cart) HeldFor(userID string) bool {
	return len(c.items) == 0 || c.owner == userID
}

// SetOwner records the user the cart is held for
func (c *Cart) SetOwner(userID string) {
	c.owner = userID
}

// Items returns a copy of the cart lines
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the line for a product
func (c *Cart) Find(productID string) (Item, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.items[idx], true
	}
	return Item{}, false
}

// Quantity returns the reserved quantity for a product, zero if absent
func (c *Cart) Quantity(productID string) int {
	item, _ := c.Find(productID)
	return item.Quantity
}

// IsEmpty returns true if the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// CheckTenant rejects a tenant different from the established one
func (c *Cart) CheckTenant(tenant catalog.TenantID) error {
	if c.tenant != "" && c.tenant != tenant {
		return shared.ErrTenantMismatch
	}
	return nil
}

// Increment adds one unit of product. A new line is appended with
// quantity 1; an existing line gets a refreshed product snapshot, its
// quantity incremented and its unavailable flag cleared.
// Returns the resulting quantity.
func (c *Cart) Increment(p catalog.Product) (int, error) {
	if err := c.CheckTenant(p.Tenant); err != nil {
		return 0, err
	}
	c.tenant = p.Tenant

	if idx := c.indexOf(p.ID); idx >= 0 {
		c.items[idx].Product = p
		c.items[idx].Quantity++
		c.items[idx].Unavailable = false
		return c.items[idx].Quantity, nil
	}
	c.items = append(c.items, Item{Product: p, Quantity: 1})
	return 1, nil
}

// SetQuantity sets the quantity of an existing line; qty <= 0 removes it
func (c *Cart) SetQuantity(productID string, qty int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return shared.ErrNotFound.WithMessage("Product is not in the cart")
	}
	if qty <= 0 {
		c.removeAt(idx)
		return nil
	}
	c.items[idx].Quantity = qty
	c.items[idx].Unavailable = false
	return nil
}

// Remove deletes a line. Returns false if the product was not in the cart.
func (c *Cart) Remove(productID string) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	return true
}

// MarkUnavailable zeroes a line and flags it. The line is kept so the
// shopper can see what went away.
func (c *Cart) MarkUnavailable(productID string) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	c.items[idx].Quantity = 0
	c.items[idx].Unavailable = true
	c.items[idx].Product = c.items[idx].Product.WithStock(0)
	return true
}

// Clamp lowers a line's quantity to stock and records the new stock on the
// product snapshot. Returns the previous quantity and whether it changed.
func (c *Cart) Clamp(productID string, stock int) (int, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return 0, false
	}
	if stock < 0 {
		stock = 0
	}
	prev := c.items[idx].Quantity
	c.items[idx].Product = c.items[idx].Product.WithStock(stock)
	if prev <= stock {
		return prev, false
	}
	c.items[idx].Quantity = stock
	return prev, true
}

// Clear empties the cart and releases the tenant and owner
func (c *Cart) Clear() {
	c.items = nil
	c.tenant = ""
	c.owner = ""
}

// TotalItems returns the number of reserved units across all lines
func (c *Cart) TotalItems() int {
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

// TotalPrice returns the sum of line subtotals
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Snapshot returns a deep copy of the current state
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{UserID: c.owner, Tenant: c.tenant, Items: c.Items()}
}

// Restore replaces the cart state with a snapshot
func (c *Cart) Restore(s Snapshot) {
	c.owner = s.UserID
	c.tenant = s.Tenant
	c.items = make([]Item, len(s.Items))
	copy(c.items, s.Items)
	if len(c.items) == 0 {
		c.items = nil
		c.tenant = ""
	}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	if len(c.items) == 0 {
		c.items = nil
		c.tenant = ""
	}
}
