package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

func product(id string, tenant catalog.TenantID, price string, stock int) catalog.Product {
	return catalog.Product{
		ID:     id,
		Name:   "product " + id,
		Price:  decimal.RequireFromString(price),
		Tenant: tenant,
		Stock:  stock,
	}
}

func TestCart_IncrementEstablishesTenant(t *testing.T) {
	c := New()
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Tenant())

	qty, err := c.Increment(product("p1", catalog.TenantWong, "3.50", 5))
	require.NoError(t, err)
	assert.Equal(t, 1, qty)
	assert.Equal(t, catalog.TenantWong, c.Tenant())

	qty, err = c.Increment(product("p1", catalog.TenantWong, "3.50", 4))
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	item, ok := c.Find("p1")
	require.True(t, ok)
	assert.Equal(t, 4, item.Product.Stock, "snapshot refreshed on increment")
	assert.Len(t, c.Items(), 1)
}

func TestCart_CrossTenantRejected(t *testing.T) {
	c := New()
	_, err := c.Increment(product("w1", catalog.TenantWong, "2.00", 5))
	require.NoError(t, err)
	_, err = c.Increment(product("w1", catalog.TenantWong, "2.00", 5))
	require.NoError(t, err)
	before := c.Snapshot()

	_, err = c.Increment(product("t1", catalog.TenantTottus, "1.00", 5))
	assert.ErrorIs(t, err, shared.ErrTenantMismatch)
	assert.Equal(t, before, c.Snapshot())

	_, err = c.Increment(product("w2", catalog.TenantWong, "4.00", 5))
	require.NoError(t, err)
	assert.Len(t, c.Items(), 2)
	assert.Equal(t, 3, c.TotalItems())
}

func TestCart_SetQuantity(t *testing.T) {
	c := New()
	_, _ = c.Increment(product("p1", catalog.TenantTottus, "1.00", 10))

	require.NoError(t, c.SetQuantity("p1", 7))
	assert.Equal(t, 7, c.Quantity("p1"))

	require.NoError(t, c.SetQuantity("p1", -3))
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Tenant(), "tenant released when cart empties")

	err := c.SetQuantity("missing", 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCart_Remove(t *testing.T) {
	c := New()
	_, _ = c.Increment(product("p1", catalog.TenantTottus, "1.00", 10))
	_, _ = c.Increment(product("p2", catalog.TenantTottus, "1.00", 10))

	assert.True(t, c.Remove("p1"))
	assert.False(t, c.Remove("p1"))
	assert.Equal(t, catalog.TenantTottus, c.Tenant())

	assert.True(t, c.Remove("p2"))
	assert.Empty(t, c.Tenant())
}

func TestCart_MarkUnavailableAndClamp(t *testing.T) {
	c := New()
	_, _ = c.Increment(product("p1", catalog.TenantPlazaVea, "1.00", 10))
	_, _ = c.Increment(product("p2", catalog.TenantPlazaVea, "1.00", 10))
	require.NoError(t, c.SetQuantity("p2", 6))

	assert.True(t, c.MarkUnavailable("p1"))
	item, _ := c.Find("p1")
	assert.Equal(t, 0, item.Quantity)
	assert.True(t, item.Unavailable)

	prev, changed := c.Clamp("p2", 4)
	assert.True(t, changed)
	assert.Equal(t, 6, prev)
	assert.Equal(t, 4, c.Quantity("p2"))

	_, changed = c.Clamp("p2", 9)
	assert.False(t, changed)
	assert.Equal(t, 4, c.Quantity("p2"))

	_, changed = c.Clamp("p2", -1)
	assert.True(t, changed)
	assert.Equal(t, 0, c.Quantity("p2"))
}

func TestCart_Totals(t *testing.T) {
	c := New()
	_, _ = c.Increment(product("p1", catalog.TenantWong, "2.50", 10))
	_, _ = c.Increment(product("p1", catalog.TenantWong, "2.50", 10))
	_, _ = c.Increment(product("p2", catalog.TenantWong, "1.25", 10))

	assert.Equal(t, 3, c.TotalItems())
	assert.True(t, decimal.RequireFromString("6.25").Equal(c.TotalPrice()))
}

func TestCart_SnapshotRestoreIsDeep(t *testing.T) {
	c := New()
	_, _ = c.Increment(product("p1", catalog.TenantWong, "2.50", 10))
	snap := c.Snapshot()

	_, _ = c.Increment(product("p1", catalog.TenantWong, "2.50", 10))
	_, _ = c.Increment(product("p2", catalog.TenantWong, "2.50", 10))
	assert.Equal(t, 1, snap.Items[0].Quantity, "snapshot must not alias live state")

	c.Restore(snap)
	assert.Equal(t, snap, c.Snapshot())
	assert.Equal(t, 1, c.TotalItems())

	c.Clear()
	assert.True(t, c.IsEmpty())
	c.Restore(Snapshot{Tenant: catalog.TenantWong})
	assert.Empty(t, c.Tenant())
}

func TestCart_Owner(t *testing.T) {
	c := New()
	assert.True(t, c.HeldFor("ana"), "an empty cart belongs to nobody")

	c.SetOwner("ana")
	_, _ = c.Increment(product("p1", catalog.TenantWong, "2.50", 10))
	assert.True(t, c.HeldFor("ana"))
	assert.False(t, c.HeldFor("bob"))

	snap := c.Snapshot()
	assert.Equal(t, "ana", snap.UserID)

	other := New()
	other.Restore(snap)
	assert.Equal(t, "ana", other.Owner())
	assert.False(t, other.HeldFor("bob"))

	other.Clear()
	assert.Empty(t, other.Owner())
	assert.True(t, other.HeldFor("bob"))
}
