// Package fakeapi provides an in-memory storefront backend for tests. It
// serves the users, products, cart and history endpoints from one
// httptest server and lets tests inject failures.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abarrotes/storefront/internal/domain/catalog"
)

const signingKey = "fakeapi-secret"

// Call is one request received by the fake
type Call struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
	Body          map[string]any
}

type account struct {
	tenant   string
	userID   string
	password string
	role     string
}

type product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category string
	Stock    int
}

type purchase struct {
	ID    string
	Date  time.Time
	Items []map[string]any
	Total decimal.Decimal
}

type failure struct {
	status  int
	message string
}

// Server is a fake storefront backend
type Server struct {
	*httptest.Server

	// PageSize is the number of products per listing page
	PageSize int

	mu        sync.Mutex
	accounts  map[string]account
	tokens    map[string]account
	products  map[string][]*product
	carts     map[string]map[string]int
	purchases map[string][]purchase
	failures  map[string][]failure
	calls     []Call
}

// New starts a fake server that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		PageSize:  2,
		accounts:  make(map[string]account),
		tokens:    make(map[string]account),
		products:  make(map[string][]*product),
		carts:     make(map[string]map[string]int),
		purchases: make(map[string][]purchase),
		failures:  make(map[string][]failure),
	}

	r := gin.New()
	r.Use(s.record, s.inject)
	r.POST("/usuarios/registrar", s.register)
	r.POST("/usuarios/login", s.login)
	r.POST("/usuarios/validar", s.validate)
	r.GET("/productos/listar", s.authed(s.listProducts))
	r.POST("/productos/crear", s.authed(s.createProduct))
	r.DELETE("/productos/eliminar", s.authed(s.deleteProduct))
	r.PUT("/productos/actualizar-stock", s.authed(s.updateStock))
	r.POST("/cart/add", s.authed(s.cartAdd))
	r.PUT("/cart/update", s.authed(s.cartUpdate))
	r.DELETE("/cart/delete", s.authed(s.cartDelete))
	r.POST("/cart/complete", s.authed(s.cartComplete))
	r.GET("/history", s.authed(s.listHistory))

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account directly
func (s *Server) AddUser(tenant catalog.TenantID, userID, password, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[key(string(tenant), userID)] = account{tenant: string(tenant), userID: userID, password: password, role: role}
}

// Token issues a session token for an existing account, as a login would
func (s *Server) Token(tenant catalog.TenantID, userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[key(string(tenant), userID)]
	return s.issue(acc)
}

// SeedProduct adds a product to a tenant's catalog and returns its ID
func (s *Server) SeedProduct(tenant catalog.TenantID, name, price string, stock int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s-%d", tenant, len(s.products[string(tenant)])+1)
	s.products[string(tenant)] = append(s.products[string(tenant)], &product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	return id
}

// SetStock overrides a product's stock, or removes the product when stock < 0
func (s *Server) SetStock(tenant catalog.TenantID, productID string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.products[string(tenant)]
	for i, p := range list {
		if p.ID != productID {
			continue
		}
		if stock < 0 {
			s.products[string(tenant)] = append(list[:i], list[i+1:]...)
			return
		}
		p.Stock = stock
		return
	}
}

// Stock returns a product's stock, -1 if it does not exist
func (s *Server) Stock(tenant catalog.TenantID, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.find(string(tenant), productID); p != nil {
		return p.Stock
	}
	return -1
}

// CartLine returns the remote cart amount for a product
func (s *Server) CartLine(tenant catalog.TenantID, userID, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[key(string(tenant), userID)][productID]
}

// Purchases returns the number of completed purchases for a user
func (s *Server) Purchases(tenant catalog.TenantID, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.purchases[key(string(tenant), userID)])
}

// FailNext makes the next request to method+path answer with status and
// an error body carrying message
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := method + " " + path
	s.failures[k] = append(s.failures[k], failure{status: status, message: message})
}

// Calls returns the requests received so far
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the requests received for method+path
func (s *Server) CallsTo(method, path string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func key(tenant, userID string) string {
	return tenant + "/" + userID
}

func (s *Server) issue(acc account) string {
	claims := jwt.MapClaims{
		"tenant_id": acc.tenant,
		"user_id":   acc.userID,
		"rol":       acc.role,
		"exp":       time.Now().Add(time.Hour).Unix(),
		"jti":       uuid.NewString(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	s.tokens[token] = acc
	return token
}

func (s *Server) find(tenant, productID string) *product {
	for _, p := range s.products[tenant] {
		if p.ID == productID {
			return p
		}
	}
	return nil
}

func (s *Server) record(c *gin.Context) {
	call := Call{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Query:         c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
		RequestID:     c.GetHeader("X-Request-ID"),
	}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		var body map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err == nil {
			call.Body = body
			c.Set("body", body)
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	k := c.Request.Method + " " + c.Request.URL.Path
	s.mu.Lock()
	queue := s.failures[k]
	var f *failure
	if len(queue) > 0 {
		f = &queue[0]
		s.failures[k] = queue[1:]
	}
	s.mu.Unlock()

	if f != nil {
		c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
		return
	}
	c.Next()
}

// authed resolves the caller from a raw or bearer Authorization header
func (s *Server) authed(h func(*gin.Context, account)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		s.mu.Lock()
		acc, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token inválido"})
			return
		}
		h(c, acc)
	}
}

func body(c *gin.Context) map[string]any {
	if v, ok := c.Get("body"); ok {
		return v.(map[string]any)
	}
	return map[string]any{}
}

func str(m map[string]any, k string) string {
	v, _ := m[k].(string)
	return v
}

func num(m map[string]any, k string) int {
	switch v := m[k].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func (s *Server) register(c *gin.Context) {
	b := body(c)
	acc := account{tenant: str(b, "tenant_id"), userID: str(b, "user_id"), password: str(b, "password"), role: "user"}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[key(acc.tenant, acc.userID)]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "El usuario ya existe"})
		return
	}
	s.accounts[key(acc.tenant, acc.userID)] = acc
	c.JSON(http.StatusOK, gin.H{"message": "Usuario registrado"})
}

func (s *Server) login(c *gin.Context) {
	b := body(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[key(str(b, "tenant_id"), str(b, "user_id"))]
	if !ok || acc.password != str(b, "password") {
		c.JSON(http.StatusForbidden, gin.H{"statusCode": 403, "body": "Credenciales inválidas"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.issue(acc), "rol": acc.role})
}

func (s *Server) validate(c *gin.Context) {
	b := body(c)
	s.mu.Lock()
	acc, ok := s.tokens[str(b, "token")]
	s.mu.Unlock()
	if !ok || acc.tenant != str(b, "tenant_id") {
		c.JSON(http.StatusForbidden, "Token no válido")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token válido"})
}

func (s *Server) listProducts(c *gin.Context, _ account) {
	tenant := c.Query("tenant_id")
	offset, _ := strconv.Atoi(c.Query("nextToken"))

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.products[tenant]
	end := offset + s.PageSize
	if end > len(list) {
		end = len(list)
	}
	if offset > end {
		offset = end
	}

	items := make([]gin.H, 0, end-offset)
	for _, p := range list[offset:end] {
		items = append(items, gin.H{
			"producto_id": p.ID,
			"nombre":      p.Name,
			"precio":      p.Price.InexactFloat64(),
			"categoria":   p.Category,
			"stock":       p.Stock,
			"tenant_id":   tenant,
		})
	}
	resp := gin.H{"items": items}
	if end < len(list) {
		resp["nextToken"] = strconv.Itoa(end)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createProduct(c *gin.Context, acc account) {
	if acc.role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Solo administradores"})
		return
	}
	b := body(c)
	price, _ := b["precio"].(float64)
	s.SeedProduct(catalog.TenantID(str(b, "tenant_id")), str(b, "nombre"), decimal.NewFromFloat(price).String(), num(b, "stock"))
	c.JSON(http.StatusCreated, gin.H{"message": "Producto creado"})
}

func (s *Server) deleteProduct(c *gin.Context, acc account) {
	if acc.role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Solo administradores"})
		return
	}
	b := body(c)
	s.SetStock(catalog.TenantID(str(b, "tenant_id")), str(b, "producto_id"), -1)
	c.JSON(http.StatusOK, gin.H{"message": "Producto eliminado"})
}

func (s *Server) updateStock(c *gin.Context, _ account) {
	b := body(c)
	if s.Stock(catalog.TenantID(str(b, "tenant_id")), str(b, "producto_id")) < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
		return
	}
	s.SetStock(catalog.TenantID(str(b, "tenant_id")), str(b, "producto_id"), num(b, "stock"))
	c.JSON(http.StatusOK, gin.H{"message": "Stock actualizado"})
}

func (s *Server) cartAdd(c *gin.Context, acc account) {
	s.setLine(c, acc, false)
}

func (s *Server) cartUpdate(c *gin.Context, acc account) {
	s.setLine(c, acc, true)
}

// setLine writes a cart line. An update needs the line to exist.
func (s *Server) setLine(c *gin.Context, acc account, update bool) {
	b := body(c)
	tenant, productID, amount := str(b, "tenant_id"), str(b, "product_id"), num(b, "amount")

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(tenant, productID)
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Producto no encontrado"})
		return
	}
	if _, ok := s.carts[key(tenant, acc.userID)][productID]; update && !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "El producto no está en el carrito"})
		return
	}
	if amount > p.Stock {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Stock insuficiente"})
		return
	}
	k := key(tenant, acc.userID)
	if s.carts[k] == nil {
		s.carts[k] = make(map[string]int)
	}
	s.carts[k][productID] = amount
	status := http.StatusCreated
	if update {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"message": "Carrito actualizado"})
}

func (s *Server) cartDelete(c *gin.Context, acc account) {
	b := body(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts[key(str(b, "tenant_id"), acc.userID)], str(b, "product_id"))
	c.JSON(http.StatusOK, gin.H{"message": "Producto eliminado del carrito"})
}

func (s *Server) cartComplete(c *gin.Context, acc account) {
	b := body(c)
	tenant := str(b, "tenant_id")
	k := key(tenant, str(b, "user_id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[k]
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "El carrito está vacío"})
		return
	}

	rec := purchase{ID: uuid.NewString(), Date: time.Now().UTC(), Total: decimal.Zero}
	for productID, amount := range lines {
		p := s.find(tenant, productID)
		if p == nil {
			continue
		}
		p.Stock -= amount
		rec.Items = append(rec.Items, map[string]any{
			"producto_id": p.ID,
			"nombre":      p.Name,
			"cantidad":    amount,
			"precio":      p.Price.InexactFloat64(),
		})
		rec.Total = rec.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(amount))))
	}
	s.purchases[k] = append(s.purchases[k], rec)
	delete(s.carts, k)
	c.JSON(http.StatusOK, gin.H{"message": "Compra completada"})
}

// listHistory pages purchases newest first. The cursor is a JSON object,
// the way a DynamoDB LastEvaluatedKey is returned.
func (s *Server) listHistory(c *gin.Context, acc account) {
	tenant := c.Query("tenant_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset := 0
	if raw := c.Query("last_evaluated_key"); raw != "" {
		var k struct {
			Offset int `json:"offset"`
		}
		if err := json.Unmarshal([]byte(raw), &k); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Cursor inválido"})
			return
		}
		offset = k.Offset
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.purchases[key(tenant, acc.userID)]
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	if offset > end {
		offset = end
	}

	items := make([]gin.H, 0, end-offset)
	for i := offset; i < end; i++ {
		p := all[len(all)-1-i]
		items = append(items, gin.H{
			"cart_id":   p.ID,
			"tenant_id": tenant,
			"user_id":   acc.userID,
			"fecha":     p.Date.Format(time.RFC3339),
			"productos": p.Items,
			"total":     p.Total.InexactFloat64(),
		})
	}
	resp := gin.H{"items": items}
	if end < len(all) {
		resp["last_evaluated_key"] = gin.H{"offset": end}
	}
	c.JSON(http.StatusOK, resp)
}
