package history

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abarrotes/storefront/internal/domain/cart"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/api"
	"github.com/abarrotes/storefront/internal/testutil/fakeapi"
	"github.com/abarrotes/storefront/internal/testutil/sessionstub"
)

func purchase(t *testing.T, srv *fakeapi.Server, client *api.Client, token, productID string, times int) {
	t.Helper()
	ctx := context.Background()
	for range times {
		line := cart.LineRef{Tenant: catalog.TenantTottus, UserID: "luis", ProductID: productID, Amount: 1}
		require.NoError(t, client.AddCartItem(ctx, token, line))
		require.NoError(t, client.CompleteCart(ctx, token, catalog.TenantTottus, "luis"))
	}
}

func newService(t *testing.T, pageSize int) (*fakeapi.Server, *api.Client, *sessionstub.Source, *Service) {
	t.Helper()
	srv := fakeapi.New(t)
	srv.AddUser(catalog.TenantTottus, "luis", "pw", "user")
	client := api.NewClient(api.SingleHost(srv.URL))
	sessions := sessionstub.New(&identity.Session{
		TenantID: catalog.TenantTottus,
		UserID:   "luis",
		Token:    srv.Token(catalog.TenantTottus, "luis"),
	})
	return srv, client, sessions, NewService(client, sessions, pageSize)
}

func TestService_Pagination(t *testing.T) {
	srv, client, sessions, svc := newService(t, 2)
	session, _ := sessions.Require(context.Background())
	pid := srv.SeedProduct(catalog.TenantTottus, "Arroz", "3.80", 100)
	purchase(t, srv, client, session.Token, pid, 5)
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx))
	assert.Len(t, svc.Records(), 2)
	assert.True(t, svc.HasMore())

	require.NoError(t, svc.LoadMore(ctx))
	require.NoError(t, svc.LoadMore(ctx))
	assert.Len(t, svc.Records(), 5)
	assert.False(t, svc.HasMore())

	before := len(srv.CallsTo(http.MethodGet, "/history"))
	require.NoError(t, svc.LoadMore(ctx))
	assert.Len(t, srv.CallsTo(http.MethodGet, "/history"), before)

	for _, rec := range svc.Records() {
		assert.Equal(t, "Tottus", rec.ShopName())
		assert.Equal(t, 1, rec.ItemCount())
	}
}

func TestService_LoadReplaces(t *testing.T) {
	srv, client, sessions, svc := newService(t, 10)
	session, _ := sessions.Require(context.Background())
	pid := srv.SeedProduct(catalog.TenantTottus, "Arroz", "3.80", 100)
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx))
	assert.Empty(t, svc.Records())
	assert.False(t, svc.HasMore())

	purchase(t, srv, client, session.Token, pid, 1)
	require.NoError(t, svc.Load(ctx))
	assert.Len(t, svc.Records(), 1)
}

func TestService_RequiresSession(t *testing.T) {
	_, _, sessions, svc := newService(t, 10)
	sessions.Set(nil)
	assert.True(t, errors.Is(svc.Load(context.Background()), shared.ErrNotAuthenticated))
	assert.True(t, errors.Is(svc.LoadMore(context.Background()), shared.ErrNotAuthenticated))
}

func TestService_LoadMoreIgnoresAnotherUsersCursor(t *testing.T) {
	srv, client, sessions, svc := newService(t, 1)
	session, _ := sessions.Require(context.Background())
	pid := srv.SeedProduct(catalog.TenantTottus, "Arroz", "3.80", 100)
	purchase(t, srv, client, session.Token, pid, 2)
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))
	require.True(t, svc.HasMore())

	srv.AddUser(catalog.TenantTottus, "otro", "pw", "user")
	sessions.Set(&identity.Session{TenantID: catalog.TenantTottus, UserID: "otro", Token: srv.Token(catalog.TenantTottus, "otro")})
	before := len(srv.CallsTo(http.MethodGet, "/history"))
	require.NoError(t, svc.LoadMore(ctx))
	assert.Len(t, srv.CallsTo(http.MethodGet, "/history"), before)
	assert.Len(t, svc.Records(), 1)
}

func TestService_DefaultPageSize(t *testing.T) {
	srv, _, sessions, _ := newService(t, 10)
	svc := NewService(api.NewClient(api.SingleHost(srv.URL)), sessions, 0)
	require.NoError(t, svc.Load(context.Background()))
	calls := srv.CallsTo(http.MethodGet, "/history")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "limit=10")
}
