package catalog

import "github.com/shopspring/decimal"

// CreateProductInput is the admin form for a new product
type CreateProductInput struct {
	Name        string          `json:"nombre" validate:"required,max=120"`
	Price       decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Description string          `json:"descripcion" validate:"max=500"`
	Category    string          `json:"categoria" validate:"max=60"`
	Image       string          `json:"imagen" validate:"omitempty,url"`
}

// UpdateStockInput is the admin form for a stock correction
type UpdateStockInput struct {
	ProductID string `json:"producto_id" validate:"required"`
	Stock     int    `json:"stock" validate:"gte=0"`
}

// Config tunes the catalog loader
type Config struct {
	// MinSearchLength is the shortest query that filters the list
	MinSearchLength int
	// MaxStockPages bounds the page walk of a live stock lookup
	MaxStockPages int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{MinSearchLength: 2, MaxStockPages: 50}
}
