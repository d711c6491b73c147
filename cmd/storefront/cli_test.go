package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
	"github.com/abarrotes/storefront/internal/infrastructure/config"
	"github.com/abarrotes/storefront/internal/infrastructure/persistence"
	"github.com/abarrotes/storefront/internal/testutil/fakeapi"
)

type harness struct {
	t      *testing.T
	srv    *fakeapi.Server
	env    *environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.New(t)
	srv.AddUser(catalog.TenantWong, "ana", "pw", "user")
	srv.AddUser(catalog.TenantWong, "jefe", "pw", "admin")

	cfg := &config.Config{
		App: config.AppConfig{Name: "storefront", Env: "test"},
		API: config.APIConfig{
			UsersURL:         srv.URL,
			ProductsURL:      srv.URL,
			ProductsAdminURL: srv.URL,
			CartURL:          srv.URL,
			HistoryURL:       srv.URL,
			ProductsAuth:     "bearer",
			CartAuth:         "raw",
			HistoryAuth:      "bearer",
			Timeout:          5 * time.Second,
		},
		Storage:   config.StorageConfig{Driver: "memory"},
		Catalog:   config.CatalogConfig{MinSearchLength: 2, MaxStockPages: 50},
		History:   config.HistoryConfig{PageSize: 10},
		HTTP:      config.HTTPConfig{Addr: "127.0.0.1:0"},
		Telemetry: config.TelemetryConfig{ServiceName: "storefront-test"},
	}

	h := &harness{t: t, srv: srv, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.env = &environment{
		stdin:  strings.NewReader(""),
		stdout: h.stdout,
		stderr: h.stderr,
		cfg:    cfg,
		log:    zap.NewNop(),
		store:  persistence.NewMemoryStore(),
	}
	return h
}

// run executes one command line the way main does and returns stdout
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	root := newRootCommand(h.env)
	root.SetArgs(append([]string{"--lang", "en"}, args...))
	ctx := context.Background()
	err := root.ExecuteContext(ctx)
	h.env.shutdown(ctx)
	return h.stdout.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, h.stderr.String())
	return out
}

func TestCLI_ShoppingFlow(t *testing.T) {
	h := newHarness(t)
	rice := h.srv.SeedProduct(catalog.TenantWong, "Arroz", "4.20", 5)

	out := h.mustRun("login", "--store", "wong", "--user", "ana", "--password", "pw")
	assert.Contains(t, out, "Logged in to Wong as ana")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "ana at Wong")

	out = h.mustRun("products")
	assert.Contains(t, out, "Arroz")
	assert.Contains(t, out, "S/ 4.20")

	out = h.mustRun("cart", "add", rice, "2")
	assert.Contains(t, out, "Added 2 x Arroz; 2 in the cart")

	out = h.mustRun("cart", "show")
	assert.Contains(t, out, "S/ 8.40")

	out = h.mustRun("checkout")
	assert.Contains(t, out, "S/ 8.40")
	assert.Equal(t, 1, h.srv.Purchases(catalog.TenantWong, "ana"))
	assert.Equal(t, 3, h.srv.Stock(catalog.TenantWong, rice))

	out = h.mustRun("cart")
	assert.Contains(t, out, "The cart is empty")

	out = h.mustRun("history")
	assert.Contains(t, out, "Wong")
	assert.Contains(t, out, "S/ 8.40")

	h.mustRun("logout")
	_, err := h.run("whoami")
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestCLI_CartStaysWithItsUser(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(catalog.TenantWong, "bob", "pw", "user")
	rice := h.srv.SeedProduct(catalog.TenantWong, "Arroz", "4.20", 5)

	h.mustRun("login", "--store", "wong", "--user", "ana", "--password", "pw")
	h.mustRun("cart", "add", rice, "2")
	h.mustRun("logout")

	h.mustRun("login", "--store", "wong", "--user", "bob", "--password", "pw")
	out := h.mustRun("cart")
	assert.Contains(t, out, "The cart is empty")

	out = h.mustRun("cart", "add", rice)
	assert.Contains(t, out, "Added 1 x Arroz; 1 in the cart")
	assert.Equal(t, 1, h.srv.CartLine(catalog.TenantWong, "bob", rice))
	assert.Equal(t, 2, h.srv.CartLine(catalog.TenantWong, "ana", rice))
}

func TestCLI_RequiresLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("cart", "add", "wong-1")
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	assert.Contains(t, h.stderr.String(), "You must log in first")
}

func TestCLI_PasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	h.env.stdin = strings.NewReader("pw\n")
	out := h.mustRun("login", "-s", "wong", "-u", "ana")
	assert.Contains(t, out, "Logged in")
}

func TestCLI_LoginRejectsUnknownStore(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "--store", "metro", "--user", "ana", "--password", "pw")
	assert.ErrorIs(t, err, shared.ErrInvalidTenant)
}

func TestCLI_Shops(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("shops")
	for _, name := range []string{"Tottus", "Plaza Vea", "Wong"} {
		assert.Contains(t, out, name)
	}
}

func TestCLI_SearchWalksEveryPage(t *testing.T) {
	h := newHarness(t)
	h.srv.SeedProduct(catalog.TenantWong, "Arroz", "4.20", 5)
	h.srv.SeedProduct(catalog.TenantWong, "Azucar", "3.10", 5)
	h.srv.SeedProduct(catalog.TenantWong, "Aceite", "9.90", 5)
	h.mustRun("login", "--store", "wong", "--user", "ana", "--password", "pw")

	out := h.mustRun("products")
	assert.NotContains(t, out, "Aceite")
	assert.Contains(t, out, "More products are available")

	out = h.mustRun("search", "ace")
	assert.Contains(t, out, "Aceite")
	assert.NotContains(t, out, "Arroz")
}

func TestCLI_VerifyClampsToLiveStock(t *testing.T) {
	h := newHarness(t)
	rice := h.srv.SeedProduct(catalog.TenantWong, "Arroz", "4.20", 5)
	h.mustRun("login", "--store", "wong", "--user", "ana", "--password", "pw")
	h.mustRun("cart", "add", rice, "3")

	h.srv.SetStock(catalog.TenantWong, rice, 1)
	out := h.mustRun("cart", "verify")
	assert.Contains(t, out, "only 1 available")
	assert.Equal(t, 1, h.srv.CartLine(catalog.TenantWong, "ana", rice))
	assert.Contains(t, h.stderr.String(), "[warning]")
}

func TestCLI_AddBeyondStock(t *testing.T) {
	h := newHarness(t)
	rice := h.srv.SeedProduct(catalog.TenantWong, "Arroz", "4.20", 2)
	h.mustRun("login", "--store", "wong", "--user", "ana", "--password", "pw")

	out, err := h.run("cart", "add", rice, "3")
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Contains(t, out, "Added 2 x Arroz")
	assert.Equal(t, 2, h.srv.CartLine(catalog.TenantWong, "ana", rice))
}

func TestCLI_Admin(t *testing.T) {
	h := newHarness(t)
	rice := h.srv.SeedProduct(catalog.TenantWong, "Arroz", "4.20", 5)

	h.mustRun("login", "--store", "wong", "--user", "ana", "--password", "pw")
	_, err := h.run("admin", "stock", rice, "9")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	h.mustRun("login", "--store", "wong", "--user", "jefe", "--password", "pw")
	out := h.mustRun("admin", "create", "--name", "Leche", "--price", "4.50", "--stock", "3")
	assert.Contains(t, out, "Product Leche created at Wong")

	h.mustRun("admin", "stock", rice, "9")
	assert.Equal(t, 9, h.srv.Stock(catalog.TenantWong, rice))

	_, err = h.run("admin", "create", "--name", "Pan", "--price", "barato")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	h.mustRun("admin", "delete", rice)
	assert.Equal(t, -1, h.srv.Stock(catalog.TenantWong, rice))
}

func TestApp_EngineServesHealth(t *testing.T) {
	h := newHarness(t)
	h.env.cfg.HTTP.MetricsEnabled = true
	a, err := newApp(context.Background(), h.env)
	require.NoError(t, err)
	t.Cleanup(func() { a.close(context.Background()) })

	w := httptest.NewRecorder()
	a.engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/shops", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plazavea")

	engine := a.engine()
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storefront_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
