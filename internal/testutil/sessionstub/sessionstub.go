// Package sessionstub provides a fixed session source for service tests.
package sessionstub

import (
	"context"
	"sync"

	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

// Source returns whatever session was last set
type Source struct {
	mu      sync.Mutex
	session *identity.Session
}

// New creates a source holding session, which may be nil
func New(session *identity.Session) *Source {
	return &Source{session: session}
}

// Set replaces the session
func (s *Source) Set(session *identity.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Require implements the services' session source
func (s *Source) Require(context.Context) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	cp := *s.session
	return &cp, nil
}
