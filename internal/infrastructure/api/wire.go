package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/history"
)

// flexInt decodes a JSON number, numeric string or null
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexDecimal decodes a JSON number, numeric string or null
type flexDecimal struct{ decimal.Decimal }

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	f.Decimal = d
	return nil
}

// cursor decodes a pagination token. Tokens are opaque: a JSON string is
// kept as-is, any other JSON value is kept in its compact encoding so it
// can be sent back unchanged.
type cursor string

func (c *cursor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = cursor(s)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return err
	}
	*c = cursor(buf.String())
	return nil
}

type productDTO struct {
	ID          string      `json:"producto_id"`
	Name        string      `json:"nombre"`
	Price       flexDecimal `json:"precio"`
	Image       string      `json:"imagen"`
	Description string      `json:"descripcion"`
	Category    string      `json:"categoria"`
	Stock       flexInt     `json:"stock"`
	TenantID    string      `json:"tenant_id"`
}

func (d productDTO) toDomain(fallback catalog.TenantID) catalog.Product {
	tenant := catalog.TenantID(strings.ToLower(d.TenantID))
	if tenant == "" {
		tenant = fallback
	}
	p := catalog.Product{
		ID:          d.ID,
		Name:        d.Name,
		Price:       d.Price.Decimal,
		Image:       d.Image,
		Description: d.Description,
		Category:    d.Category,
		Tenant:      tenant,
	}
	return p.WithStock(int(d.Stock))
}

type productPageDTO struct {
	Items     []productDTO `json:"items"`
	NextToken cursor       `json:"nextToken"`
}

type createProductDTO struct {
	TenantID    string      `json:"tenant_id"`
	Name        string      `json:"nombre"`
	Price       json.Number `json:"precio"`
	Stock       int         `json:"stock"`
	Description string      `json:"descripcion,omitempty"`
	Category    string      `json:"categoria,omitempty"`
	Image       string      `json:"imagen,omitempty"`
}

type productRefDTO struct {
	TenantID  string `json:"tenant_id"`
	ProductID string `json:"producto_id"`
}

type stockUpdateDTO struct {
	TenantID  string `json:"tenant_id"`
	ProductID string `json:"producto_id"`
	Stock     int    `json:"stock"`
}

type cartItemDTO struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type cartItemRefDTO struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type cartRefDTO struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
}

type credentialsDTO struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Password string `json:"password"`
}

type loginResponseDTO struct {
	Token string `json:"token"`
	Rol   string `json:"rol"`
	Role  string `json:"role"`
}

type validateDTO struct {
	Token    string `json:"token"`
	TenantID string `json:"tenant_id"`
}

// historyLineDTO accepts the English and Spanish field names the history
// service has used
type historyLineDTO struct {
	ProductID  string      `json:"product_id"`
	ProductoID string      `json:"producto_id"`
	Name       string      `json:"name"`
	Producto   string      `json:"producto"`
	Nombre     string      `json:"nombre"`
	Quantity   flexInt     `json:"quantity"`
	Cantidad   flexInt     `json:"cantidad"`
	Amount     flexInt     `json:"amount"`
	Price      flexDecimal `json:"price"`
	Precio     flexDecimal `json:"precio"`
}

func (d historyLineDTO) toDomain() history.Line {
	qty := firstNonZero(int(d.Quantity), int(d.Cantidad), int(d.Amount))
	price := d.Price.Decimal
	if price.IsZero() {
		price = d.Precio.Decimal
	}
	return history.Line{
		ProductID: firstNonEmpty(d.ProductID, d.ProductoID),
		Name:      firstNonEmpty(d.Name, d.Producto, d.Nombre),
		Quantity:  qty,
		UnitPrice: price,
	}
}

type historyRecordDTO struct {
	ID         string           `json:"id"`
	CartID     string           `json:"cart_id"`
	TenantID   string           `json:"tenant_id"`
	UserID     string           `json:"user_id"`
	Shop       string           `json:"shop"`
	Tienda     string           `json:"tienda"`
	Date       string           `json:"date"`
	Fecha      string           `json:"fecha"`
	Items      []historyLineDTO `json:"items"`
	Productos  []historyLineDTO `json:"productos"`
	Total      flexDecimal      `json:"total"`
	MontoTotal flexDecimal      `json:"monto_total"`
}

func (d historyRecordDTO) toDomain(fallback catalog.TenantID) history.Record {
	lines := d.Items
	if len(lines) == 0 {
		lines = d.Productos
	}
	items := make([]history.Line, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.toDomain())
	}

	total := d.Total.Decimal
	if total.IsZero() {
		total = d.MontoTotal.Decimal
	}
	tenant := catalog.TenantID(strings.ToLower(d.TenantID))
	if tenant == "" {
		tenant = fallback
	}

	return history.Record{
		ID:     firstNonEmpty(d.ID, d.CartID),
		Tenant: tenant,
		Shop:   firstNonEmpty(d.Shop, d.Tienda),
		UserID: d.UserID,
		Date:   parseDate(firstNonEmpty(d.Date, d.Fecha)),
		Items:  items,
		Total:  total,
	}
}

type historyPageDTO struct {
	Items            []historyRecordDTO `json:"items"`
	Compras          []historyRecordDTO `json:"compras"`
	LastEvaluatedKey cursor             `json:"last_evaluated_key"`
	LastKeyCamel     cursor             `json:"lastEvaluatedKey"`
	NextToken        cursor             `json:"nextToken"`
}

func (d historyPageDTO) records() []historyRecordDTO {
	if len(d.Items) > 0 {
		return d.Items
	}
	return d.Compras
}

func (d historyPageDTO) next() string {
	return firstNonEmpty(string(d.LastEvaluatedKey), string(d.LastKeyCamel), string(d.NextToken))
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// errorBodyDTO covers the error shapes returned by the services
type errorBodyDTO struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Body    json.RawMessage `json:"body"`
}

// errorMessage extracts a human readable message from an error body
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}

	var dto errorBodyDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return ""
	}
	if dto.Message != "" {
		return dto.Message
	}
	if dto.Error != "" {
		return dto.Error
	}
	if len(dto.Body) > 0 {
		return errorMessage(dto.Body)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
