package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/abarrotes/storefront/internal/domain/shared"
)

// ErrProductNotFound is returned when a product is not present in a tenant's listing
var ErrProductNotFound = shared.ErrNotFound.WithMessage("Product not found")

// Product is a catalog entry as last fetched from the products service.
// Products are treated as values; Stock is the only field the client
// overrides locally after a purchase.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Tenant      TenantID        `json:"tenant"`
	Stock       int             `json:"stock"`
}

// InStock reports whether the product can currently be bought
func (p Product) InStock() bool {
	return p.Stock > 0
}

// WithStock returns a copy of the product with a different stock count.
// Negative values are floored at zero.
func (p Product) WithStock(stock int) Product {
	if stock < 0 {
		stock = 0
	}
	p.Stock = stock
	return p
}

// Matches reports whether the product matches a free-text query over its
// name, category and description
func (p Product) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Category), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// StockLevel buckets stock the way the shop pages badge it
type StockLevel string

const (
	StockLevelHigh StockLevel = "high" // more than 10 units
	StockLevelLow  StockLevel = "low"  // 1 to 10 units
	StockLevelOut  StockLevel = "out"
)

// Level returns the stock bucket for a displayed stock count
func Level(stock int) StockLevel {
	switch {
	case stock > 10:
		return StockLevelHigh
	case stock > 0:
		return StockLevelLow
	default:
		return StockLevelOut
	}
}

// Dedupe removes repeated product ids, keeping the first occurrence
func Dedupe(products []Product) []Product {
	seen := make(map[string]struct{}, len(products))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
