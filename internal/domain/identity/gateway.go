package identity

import (
	"context"

	"github.com/abarrotes/storefront/internal/domain/catalog"
)

// Credentials identify a shopper to the users service
type Credentials struct {
	TenantID catalog.TenantID `json:"tenant_id"`
	UserID   string           `json:"user_id"`
	Password string           `json:"password"`
}

// AuthResult is a successful login
type AuthResult struct {
	Token string
	Role  string // empty when the service does not report one
}

// AuthGateway is the remote users service
type AuthGateway interface {
	// Register creates an account. It does not log in.
	Register(ctx context.Context, creds Credentials) error

	// Login exchanges credentials for a session token
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)

	// Validate reports whether token is still accepted for tenant, with the
	// service's reason when it is not
	Validate(ctx context.Context, token string, tenant catalog.TenantID) (bool, string, error)
}
