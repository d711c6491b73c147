// Package history pages through the logged-in user's purchases.
package history

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/history"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
	"github.com/abarrotes/storefront/internal/infrastructure/telemetry"
)

// DefaultPageSize is used when no page size is configured
const DefaultPageSize = 10

// SessionSource yields the logged-in session
type SessionSource interface {
	Require(ctx context.Context) (*identity.Session, error)
}

// Service is the purchase history pager. It follows the same cursor
// contract as the catalog: once the cursor is gone, LoadMore does nothing.
type Service struct {
	gateway  history.Gateway
	sessions SessionSource
	pageSize int

	loadMu sync.Mutex

	mu      sync.RWMutex
	tenant  catalog.TenantID
	userID  string
	records []history.Record
	cursor  string
}

// NewService creates a new history pager
func NewService(gateway history.Gateway, sessions SessionSource, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{gateway: gateway, sessions: sessions, pageSize: pageSize}
}

// Load fetches the newest page and replaces the records
func (s *Service) Load(ctx context.Context) error {
	session, err := s.sessions.Require(ctx)
	if err != nil {
		return err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	page, err := s.fetch(ctx, session, "")
	if err != nil {
		notify.Error(ctx, "Could not load your purchases: %v", err)
		return err
	}

	s.mu.Lock()
	s.tenant = session.TenantID
	s.userID = session.UserID
	s.records = page.Items
	s.cursor = page.Next
	s.mu.Unlock()
	return nil
}

// LoadMore appends the next page, if there is one
func (s *Service) LoadMore(ctx context.Context) error {
	session, err := s.sessions.Require(ctx)
	if err != nil {
		return err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.RLock()
	cursor := s.cursor
	sameOwner := s.tenant == session.TenantID && s.userID == session.UserID
	s.mu.RUnlock()
	if cursor == "" || !sameOwner {
		return nil
	}

	page, err := s.fetch(ctx, session, cursor)
	if err != nil {
		notify.Error(ctx, "Could not load more purchases: %v", err)
		return err
	}

	s.mu.Lock()
	s.records = append(s.records, page.Items...)
	s.cursor = page.Next
	s.mu.Unlock()
	return nil
}

func (s *Service) fetch(ctx context.Context, session *identity.Session, cursor string) (page shared.Page[history.Record], err error) {
	ctx, span := telemetry.StartSpan(ctx, "history.page",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, string(session.TenantID)),
		telemetry.WithAttribute(telemetry.SpanAttrCursor, cursor != ""))
	defer span.End()

	page, err = s.gateway.ListHistory(ctx, session.Token, session.TenantID, s.pageSize, cursor)
	if err != nil {
		telemetry.RecordError(span, err)
		return page, err
	}
	telemetry.SetOK(span)
	logger.L(ctx).Debug("History page loaded",
		zap.Int("records", len(page.Items)),
		zap.Bool("has_more", page.HasMore()))
	return page, nil
}

// HasMore reports whether another page can be loaded
func (s *Service) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor != ""
}

// Records returns the loaded purchases, newest first
func (s *Service) Records() []history.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]history.Record, len(s.records))
	copy(out, s.records)
	return out
}
