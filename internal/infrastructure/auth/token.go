package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned when the session token is not a JWT. The
// users service may issue opaque tokens; callers treat them as carrying
// no claims.
var ErrOpaqueToken = errors.New("token is not a JWT")

// Claims are the fields the storefront reads from a session token
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Rol      string `json:"rol,omitempty"`
	Role     string `json:"role,omitempty"`
}

// TokenInfo is what the client learns from a token without verifying it
type TokenInfo struct {
	TenantID  string
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Inspect decodes token claims without verifying the signature. Signature
// verification belongs to the users service; the client only needs expiry
// and role hints.
func Inspect(token string) (*TokenInfo, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	info := &TokenInfo{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Role:     claims.Rol,
	}
	if info.Role == "" {
		info.Role = claims.Role
	}
	if info.UserID == "" {
		info.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
