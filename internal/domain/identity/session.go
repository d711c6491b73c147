package identity

import (
	"strings"
	"time"

	"github.com/abarrotes/storefront/internal/domain/catalog"
)

// Role is the storefront role carried by a session
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a raw role value to a Role. Anything other than admin is
// a plain user.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Session is the authenticated shopper
type Session struct {
	TenantID  catalog.TenantID `json:"tenant_id"`
	UserID    string           `json:"user_id"`
	Token     string           `json:"-"`
	Role      Role             `json:"role"`
	ExpiresAt time.Time        `json:"expires_at,omitzero"`
}

// IsAdmin returns true for administrator sessions
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// IsExpired reports whether the token expiry has passed. A zero expiry
// never expires.
func (s *Session) IsExpired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
