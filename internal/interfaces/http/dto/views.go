package dto

import (
	"time"

	"github.com/abarrotes/storefront/internal/application/checkout"
	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/history"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared/valueobject"
)

// SessionView is the current shopper
type SessionView struct {
	TenantID  string     `json:"tenant_id"`
	ShopName  string     `json:"shop_name"`
	UserID    string     `json:"user_id"`
	Role      string     `json:"role"`
	IsAdmin   bool       `json:"is_admin"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ShopView is one selectable store
type ShopView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductView is a catalog card
type ProductView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	PriceLabel   string `json:"price_label"`
	Image        string `json:"image,omitempty"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	Stock        int    `json:"stock"`
	DisplayStock int    `json:"display_stock"`
	StockLevel   string `json:"stock_level"`
	InCart       int    `json:"in_cart,omitempty"`
}

// CartItemView is one cart line
type CartItemView struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// CartView is the cart page
type CartView struct {
	Tenant     string         `json:"tenant,omitempty"`
	ShopName   string         `json:"shop_name,omitempty"`
	Items      []CartItemView `json:"items"`
	TotalItems int            `json:"total_items"`
	Total      string         `json:"total"`
}

// ReceiptLineView is one purchased product on the confirmation page
type ReceiptLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// ReceiptView is the confirmation page
type ReceiptView struct {
	ID         string            `json:"id"`
	Tenant     string            `json:"tenant"`
	ShopName   string            `json:"shop_name"`
	UserID     string            `json:"user_id"`
	Date       time.Time         `json:"date"`
	Lines      []ReceiptLineView `json:"lines"`
	TotalItems int               `json:"total_items"`
	Total      string            `json:"total"`
}

// PurchaseLineView is one product of a past purchase
type PurchaseLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// PurchaseView is one history entry
type PurchaseView struct {
	ID        string             `json:"id"`
	ShopName  string             `json:"shop_name"`
	Date      *time.Time         `json:"date,omitempty"`
	Items     []PurchaseLineView `json:"items"`
	ItemCount int                `json:"item_count"`
	Total     string             `json:"total"`
}

// StockSource reports the stock a shopper can still reserve
type StockSource interface {
	DisplayStock(productID string) int
}

// Reservations reports the quantity already in the cart
type Reservations interface {
	Reserved(productID string) int
}

// ToSessionView converts a session
func ToSessionView(s *identity.Session) SessionView {
	v := SessionView{
		TenantID: string(s.TenantID),
		ShopName: s.TenantID.DisplayName(),
		UserID:   s.UserID,
		Role:     string(s.Role),
		IsAdmin:  s.IsAdmin(),
	}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		v.ExpiresAt = &exp
	}
	return v
}

// ToShopViews lists the known stores
func ToShopViews(tenants []catalog.TenantID) []ShopView {
	out := make([]ShopView, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, ShopView{ID: string(t), Name: t.DisplayName()})
	}
	return out
}

// ToProductViews converts catalog products, using live display stock and
// cart reservations for the badges
func ToProductViews(products []catalog.Product, stock StockSource, reserved Reservations) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		display := stock.DisplayStock(p.ID)
		out = append(out, ProductView{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price.StringFixed(2),
			PriceLabel:   valueobject.NewMoneyPEN(p.Price).String(),
			Image:        p.Image,
			Description:  p.Description,
			Category:     p.Category,
			Stock:        p.Stock,
			DisplayStock: display,
			StockLevel:   string(catalog.Level(display)),
			InCart:       reserved.Reserved(p.ID),
		})
	}
	return out
}

// ToCartView converts a cart snapshot
func ToCartView(snap cart.Snapshot) CartView {
	v := CartView{
		Tenant: string(snap.Tenant),
		Items:  make([]CartItemView, 0, len(snap.Items)),
	}
	if snap.Tenant != "" {
		v.ShopName = snap.Tenant.DisplayName()
	}
	total := valueobject.Zero(valueobject.PEN)
	for _, item := range snap.Items {
		subtotal := valueobject.NewMoneyPEN(item.Subtotal())
		v.Items = append(v.Items, CartItemView{
			ProductID:   item.Product.ID,
			Name:        item.Product.Name,
			Price:       item.Product.Price.StringFixed(2),
			Quantity:    item.Quantity,
			Subtotal:    subtotal.Amount().StringFixed(2),
			Unavailable: item.Unavailable,
		})
		v.TotalItems += item.Quantity
		if sum, err := total.Add(subtotal); err == nil {
			total = sum
		}
	}
	v.Total = total.Amount().StringFixed(2)
	return v
}

// ToReceiptView converts a checkout receipt
func ToReceiptView(r *checkout.Receipt) ReceiptView {
	v := ReceiptView{
		ID:         r.ID,
		Tenant:     string(r.Tenant),
		ShopName:   r.ShopName,
		UserID:     r.UserID,
		Date:       r.Date,
		Lines:      make([]ReceiptLineView, 0, len(r.Lines)),
		TotalItems: r.TotalItems,
		Total:      r.Total.Amount().StringFixed(2),
	}
	for _, l := range r.Lines {
		v.Lines = append(v.Lines, ReceiptLineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.Amount().StringFixed(2),
			Subtotal:  l.Subtotal.Amount().StringFixed(2),
		})
	}
	return v
}

// ToPurchaseViews converts history records
func ToPurchaseViews(records []history.Record) []PurchaseView {
	out := make([]PurchaseView, 0, len(records))
	for _, r := range records {
		v := PurchaseView{
			ID:        r.ID,
			ShopName:  r.ShopName(),
			Items:     make([]PurchaseLineView, 0, len(r.Items)),
			ItemCount: r.ItemCount(),
			Total:     r.TotalOrComputed().StringFixed(2),
		}
		if !r.Date.IsZero() {
			d := r.Date
			v.Date = &d
		}
		for _, l := range r.Items {
			v.Items = append(v.Items, PurchaseLineView{
				ProductID: l.ProductID,
				Name:      l.Name,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice.StringFixed(2),
			})
		}
		out = append(out, v)
	}
	return out
}
