// Package catalog loads a store's product listing page by page and runs
// the admin product operations.
package catalog

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

// SessionSource yields the logged-in session
type SessionSource interface {
	Require(ctx context.Context) (*identity.Session, error)
}

// Reservations reports how many units of a product the cart holds
type Reservations interface {
	Reserved(productID string) int
}

// Service is the catalog loader. It keeps the products of one tenant and
// the cursor of the next page.
type Service struct {
	gateway  catalog.ProductGateway
	sessions SessionSource
	config   Config

	// loadMu serializes page fetches so appends land in order
	loadMu sync.Mutex

	mu           sync.RWMutex
	tenant       catalog.TenantID
	products     []catalog.Product
	cursor       string
	reservations Reservations
}

// NewService creates a new catalog loader
func NewService(gateway catalog.ProductGateway, sessions SessionSource, config Config) *Service {
	if config.MinSearchLength <= 0 {
		config.MinSearchLength = DefaultConfig().MinSearchLength
	}
	if config.MaxStockPages <= 0 {
		config.MaxStockPages = DefaultConfig().MaxStockPages
	}
	return &Service{
		gateway:  gateway,
		sessions: sessions,
		config:   config,
	}
}

// SetReservations wires the cart reservation source used by DisplayStock
func (s *Service) SetReservations(r Reservations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = r
}

// Load fetches the first page of tenant's listing and replaces the list
func (s *Service) Load(ctx context.Context, tenant catalog.TenantID) error {
	tenant, err := catalog.ParseTenant(string(tenant))
	if err != nil {
		return err
	}
	session, err := s.sessions.Require(ctx)
	if err != nil {
		return err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	page, err := s.fetch(ctx, session.Token, tenant, "")
	if err != nil {
		notify.Error(ctx, "Could not load products: %v", err)
		return err
	}

	s.mu.Lock()
	s.tenant = tenant
	s.products = catalog.Dedupe(page.Items)
	s.cursor = page.Next
	s.mu.Unlock()

	logger.L(ctx).Debug("Catalog loaded",
		zap.String("tenant_id", string(tenant)),
		zap.Int("products", len(page.Items)),
		zap.Bool("has_more", page.HasMore()))
	return nil
}

// LoadMore appends the next page. Without a cursor it does nothing and
// never goes back to the first page.
func (s *Service) LoadMore(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.RLock()
	tenant, cursor := s.tenant, s.cursor
	s.mu.RUnlock()
	if cursor == "" {
		return nil
	}

	session, err := s.sessions.Require(ctx)
	if err != nil {
		return err
	}

	page, err := s.fetch(ctx, session.Token, tenant, cursor)
	if err != nil {
		notify.Error(ctx, "Could not load more products: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenant != tenant {
		// the list was reloaded for another store while we were fetching
		return nil
	}
	s.products = catalog.Dedupe(append(s.products, page.Items...))
	s.cursor = page.Next
	return nil
}

func (s *Service) fetch(ctx context.Context, token string, tenant catalog.TenantID, cursor string) (shared.Page[catalog.Product], error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.page",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, string(tenant)),
		telemetry.WithAttribute(telemetry.SpanAttrCursor, cursor != ""))
	defer span.End()

	page, err := s.gateway.ListProducts(ctx, token, tenant, cursor)
	if err != nil {
		telemetry.RecordError(span, err)
		return page, err
	}
	telemetry.SetOK(span)
	return page, nil
}

// HasMore reports whether another page can be loaded
func (s *Service) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor != ""
}

// Tenant returns the tenant whose listing is loaded
func (s *Service) Tenant() catalog.TenantID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tenant
}

// Products returns the loaded products in listing order
func (s *Service) Products() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Product looks up a loaded product
func (s *Service) Product(productID string) (catalog.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(productID); i >= 0 {
		return s.products[i], true
	}
	return catalog.Product{}, false
}

// Search filters the loaded products. Queries shorter than the configured
// minimum return the whole list.
func (s *Service) Search(query string) []catalog.Product {
	query = strings.TrimSpace(query)
	all := s.Products()
	if utf8.RuneCountInString(query) < s.config.MinSearchLength {
		return all
	}
	out := make([]catalog.Product, 0, len(all))
	for _, p := range all {
		if p.Matches(query) {
			out = append(out, p)
		}
	}
	return out
}

// LiveStock walks tenant's listing from the first page until productID
// shows up and returns it with its current stock
func (s *Service) LiveStock(ctx context.Context, tenant catalog.TenantID, productID string) (catalog.Product, error) {
	session, err := s.sessions.Require(ctx)
	if err != nil {
		return catalog.Product{}, err
	}

	ctx, span := telemetry.StartSpan(ctx, "catalog.live_stock",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, string(tenant)),
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID))
	defer span.End()

	cursor := ""
	for range s.config.MaxStockPages {
		page, err := s.gateway.ListProducts(ctx, session.Token, tenant, cursor)
		if err != nil {
			telemetry.RecordError(span, err)
			return catalog.Product{}, err
		}
		for _, p := range page.Items {
			if p.ID == productID {
				s.rememberStock(tenant, productID, p.Stock)
				telemetry.SetOK(span)
				return p, nil
			}
		}
		if !page.HasMore() {
			break
		}
		cursor = page.Next
	}

	logger.L(ctx).Debug("Product missing from live listing",
		zap.String("tenant_id", string(tenant)),
		zap.String("product_id", productID))
	return catalog.Product{}, catalog.ErrProductNotFound
}

func (s *Service) rememberStock(tenant catalog.TenantID, productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenant != tenant {
		return
	}
	if i := s.indexOf(productID); i >= 0 {
		s.products[i] = s.products[i].WithStock(stock)
	}
}

// DisplayStock is the last known stock minus what the cart holds
func (s *Service) DisplayStock(productID string) int {
	s.mu.RLock()
	i := s.indexOf(productID)
	if i < 0 {
		s.mu.RUnlock()
		return 0
	}
	stock := s.products[i].Stock
	reservations := s.reservations
	s.mu.RUnlock()

	if reservations != nil {
		stock -= reservations.Reserved(productID)
	}
	return max(stock, 0)
}

// ApplyStockOverride sets the locally known stock of a loaded product, as
// after a purchase
func (s *Service) ApplyStockOverride(productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(productID); i >= 0 {
		s.products[i] = s.products[i].WithStock(stock)
	}
}

func (s *Service) indexOf(productID string) int {
	for i := range s.products {
		if s.products[i].ID == productID {
			return i
		}
	}
	return -1
}
