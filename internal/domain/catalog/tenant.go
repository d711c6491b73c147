package catalog

import (
	"strings"

	"github.com/abarrotes/storefront/internal/domain/shared"
)

// TenantID identifies one of the grocery chains served by the storefront
type TenantID string

const (
	TenantTottus   TenantID = "tottus"
	TenantPlazaVea TenantID = "plazavea"
	TenantWong     TenantID = "wong"
)

var tenantNames = map[TenantID]string{
	TenantTottus:   "Tottus",
	TenantPlazaVea: "Plaza Vea",
	TenantWong:     "Wong",
}

// Tenants returns every known tenant in display order
func Tenants() []TenantID {
	return []TenantID{TenantTottus, TenantPlazaVea, TenantWong}
}

// ParseTenant normalizes and validates a tenant identifier
func ParseTenant(s string) (TenantID, error) {
	id := TenantID(strings.ToLower(strings.TrimSpace(s)))
	if !id.IsValid() {
		return "", shared.ErrInvalidTenant.WithMessage("Unknown store: " + s)
	}
	return id, nil
}

// IsValid returns true for a known tenant
func (t TenantID) IsValid() bool {
	_, ok := tenantNames[t]
	return ok
}

// DisplayName returns the store name shown to shoppers
func (t TenantID) DisplayName() string {
	if name, ok := tenantNames[t]; ok {
		return name
	}
	return "Tienda"
}

// String implements fmt.Stringer
func (t TenantID) String() string {
	return string(t)
}
