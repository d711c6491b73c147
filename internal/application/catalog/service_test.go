package catalog

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/api"
	"github.com/abarrotes/storefront/internal/testutil/fakeapi"
	"github.com/abarrotes/storefront/internal/testutil/sessionstub"
)

type fixedReservations map[string]int

func (r fixedReservations) Reserved(productID string) int {
	return r[productID]
}

func newService(t *testing.T, role string) (*fakeapi.Server, *Service) {
	t.Helper()
	srv := fakeapi.New(t)
	srv.AddUser(catalog.TenantWong, "ana", "pw", role)
	sessions := sessionstub.New(&identity.Session{
		TenantID: catalog.TenantWong,
		UserID:   "ana",
		Token:    srv.Token(catalog.TenantWong, "ana"),
		Role:     identity.ParseRole(role),
	})
	return srv, NewService(api.NewClient(api.SingleHost(srv.URL)), sessions, DefaultConfig())
}

func seed(srv *fakeapi.Server, tenant catalog.TenantID, names ...string) []string {
	ids := make([]string, 0, len(names))
	for _, n := range names {
		ids = append(ids, srv.SeedProduct(tenant, n, "3.50", 5))
	}
	return ids
}

func TestService_PaginationExhausts(t *testing.T) {
	srv, svc := newService(t, "user")
	seed(srv, catalog.TenantWong, "Arroz", "Azucar", "Leche", "Pan", "Huevos")
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx, catalog.TenantWong))
	assert.Len(t, svc.Products(), 2)
	assert.True(t, svc.HasMore())
	assert.Equal(t, catalog.TenantWong, svc.Tenant())

	require.NoError(t, svc.LoadMore(ctx))
	require.NoError(t, svc.LoadMore(ctx))
	assert.Len(t, svc.Products(), 5)
	assert.False(t, svc.HasMore())

	before := len(srv.CallsTo(http.MethodGet, "/productos/listar"))
	require.NoError(t, svc.LoadMore(ctx))
	require.NoError(t, svc.LoadMore(ctx))
	assert.Equal(t, before, len(srv.CallsTo(http.MethodGet, "/productos/listar")), "no fetch once the cursor is gone")
	assert.Len(t, svc.Products(), 5)

	names := make([]string, 0, 5)
	for _, p := range svc.Products() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Arroz", "Azucar", "Leche", "Pan", "Huevos"}, names)
}

func TestService_LoadReplacesList(t *testing.T) {
	srv, svc := newService(t, "user")
	seed(srv, catalog.TenantWong, "Arroz", "Azucar", "Leche")
	seed(srv, catalog.TenantTottus, "Fideos")
	ctx := context.Background()

	require.NoError(t, svc.Load(ctx, catalog.TenantWong))
	require.NoError(t, svc.Load(ctx, catalog.TenantTottus))

	products := svc.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Fideos", products[0].Name)
	assert.Equal(t, catalog.TenantTottus, products[0].Tenant)
	assert.False(t, svc.HasMore())
}

func TestService_LoadRejectsUnknownTenant(t *testing.T) {
	srv, svc := newService(t, "user")
	err := svc.Load(context.Background(), "metro")
	assert.True(t, errors.Is(err, shared.ErrInvalidTenant))
	assert.Empty(t, srv.Calls())
}

func TestService_LoadRequiresSession(t *testing.T) {
	srv := fakeapi.New(t)
	svc := NewService(api.NewClient(api.SingleHost(srv.URL)), sessionstub.New(nil), DefaultConfig())
	err := svc.Load(context.Background(), catalog.TenantWong)
	assert.True(t, errors.Is(err, shared.ErrNotAuthenticated))
}

func TestService_LoadFailureNotifies(t *testing.T) {
	srv, svc := newService(t, "user")
	srv.FailNext(http.MethodGet, "/productos/listar", http.StatusInternalServerError, "boom")
	collector := &notify.Collector{}
	ctx := notify.WithNotifier(context.Background(), collector)

	err := svc.Load(ctx, catalog.TenantWong)
	require.Error(t, err)
	require.Len(t, collector.Notices(), 1)
	assert.Equal(t, notify.LevelError, collector.Notices()[0].Level)
}

func TestService_Search(t *testing.T) {
	srv, svc := newService(t, "user")
	srv.PageSize = 10
	seed(srv, catalog.TenantWong, "Leche Gloria", "Pan frances", "Leche de soya")
	require.NoError(t, svc.Load(context.Background(), catalog.TenantWong))

	assert.Len(t, svc.Search(""), 3)
	assert.Len(t, svc.Search("l"), 3, "short queries return everything")
	assert.Len(t, svc.Search("LECHE"), 2)
	assert.Len(t, svc.Search("  pan "), 1)
	assert.Empty(t, svc.Search("queso"))
}

func TestService_LiveStock(t *testing.T) {
	srv, svc := newService(t, "user")
	ids := seed(srv, catalog.TenantWong, "Arroz", "Azucar", "Leche", "Pan", "Huevos")
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx, catalog.TenantWong))

	srv.SetStock(catalog.TenantWong, ids[4], 1)
	p, err := svc.LiveStock(ctx, catalog.TenantWong, ids[4])
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
	assert.Equal(t, "Huevos", p.Name)

	srv.SetStock(catalog.TenantWong, ids[0], 0)
	_, err = svc.LiveStock(ctx, catalog.TenantWong, ids[0])
	require.NoError(t, err)
	known, ok := svc.Product(ids[0])
	require.True(t, ok)
	assert.Equal(t, 0, known.Stock, "live lookups refresh the loaded list")

	srv.SetStock(catalog.TenantWong, ids[1], -1)
	_, err = svc.LiveStock(ctx, catalog.TenantWong, ids[1])
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))
}

func TestService_LiveStockStopsAtPageLimit(t *testing.T) {
	srv, svc := newService(t, "user")
	svc.config.MaxStockPages = 1
	ids := seed(srv, catalog.TenantWong, "Arroz", "Azucar", "Leche")

	_, err := svc.LiveStock(context.Background(), catalog.TenantWong, ids[2])
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))
	assert.Len(t, srv.CallsTo(http.MethodGet, "/productos/listar"), 1)
}

func TestService_DisplayStock(t *testing.T) {
	srv, svc := newService(t, "user")
	ids := seed(srv, catalog.TenantWong, "Arroz", "Azucar")
	require.NoError(t, svc.Load(context.Background(), catalog.TenantWong))

	assert.Equal(t, 5, svc.DisplayStock(ids[0]))

	svc.SetReservations(fixedReservations{ids[0]: 2, ids[1]: 9})
	assert.Equal(t, 3, svc.DisplayStock(ids[0]))
	assert.Equal(t, 0, svc.DisplayStock(ids[1]), "never negative")
	assert.Equal(t, 0, svc.DisplayStock("unknown"))

	svc.ApplyStockOverride(ids[0], 4)
	assert.Equal(t, 2, svc.DisplayStock(ids[0]))
}

func TestService_AdminOperations(t *testing.T) {
	srv, svc := newService(t, "admin")
	ctx := context.Background()
	require.NoError(t, svc.Load(ctx, catalog.TenantWong))
	assert.Empty(t, svc.Products())

	err := svc.CreateProduct(ctx, catalog.TenantWong, CreateProductInput{Name: "Queso", Price: decimal.RequireFromString("12.5"), Stock: 3})
	require.NoError(t, err)
	products := svc.Products()
	require.Len(t, products, 1, "create reloads the listing")
	assert.Equal(t, "Queso", products[0].Name)
	id := products[0].ID

	require.NoError(t, svc.UpdateStock(ctx, catalog.TenantWong, UpdateStockInput{ProductID: id, Stock: 8}))
	assert.Equal(t, 8, srv.Stock(catalog.TenantWong, id))
	p, _ := svc.Product(id)
	assert.Equal(t, 8, p.Stock)

	require.NoError(t, svc.DeleteProduct(ctx, catalog.TenantWong, id))
	assert.Empty(t, svc.Products())
}

func TestService_AdminRejections(t *testing.T) {
	srv, user := newService(t, "user")
	ctx := context.Background()
	input := CreateProductInput{Name: "Queso", Price: decimal.NewFromInt(1), Stock: 1}

	err := user.CreateProduct(ctx, catalog.TenantWong, input)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Empty(t, srv.CallsTo(http.MethodPost, "/productos/crear"))

	_, admin := newService(t, "admin")
	err = admin.CreateProduct(ctx, catalog.TenantTottus, input)
	assert.True(t, errors.Is(err, shared.ErrForbidden), "admins manage only their store")

	err = admin.CreateProduct(ctx, catalog.TenantWong, CreateProductInput{Name: "", Stock: 1})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	err = admin.CreateProduct(ctx, catalog.TenantWong, CreateProductInput{Name: "Queso", Price: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	err = admin.UpdateStock(ctx, catalog.TenantWong, UpdateStockInput{ProductID: "x", Stock: -2})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	err = admin.DeleteProduct(ctx, catalog.TenantWong, "")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestService_AdminRemoteFailure(t *testing.T) {
	srv, svc := newService(t, "admin")
	collector := &notify.Collector{}
	ctx := notify.WithNotifier(context.Background(), collector)

	err := svc.UpdateStock(ctx, catalog.TenantWong, UpdateStockInput{ProductID: "missing", Stock: 2})
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Empty(t, srv.CallsTo(http.MethodGet, "/productos/listar"), "no reload after a failed change")
	require.NotEmpty(t, collector.Notices())
	assert.Equal(t, notify.LevelError, collector.Notices()[0].Level)
}
