package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abarrotes/storefront/internal/domain/shared"
)

func TestParseTenant(t *testing.T) {
	tests := []struct {
		in      string
		want    TenantID
		wantErr bool
	}{
		{in: "wong", want: TenantWong},
		{in: " Tottus ", want: TenantTottus},
		{in: "PLAZAVEA", want: TenantPlazaVea},
		{in: "metro", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTenant(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidTenant)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTenantID_DisplayName(t *testing.T) {
	assert.Equal(t, "Plaza Vea", TenantPlazaVea.DisplayName())
	assert.Equal(t, "Wong", TenantWong.DisplayName())
	assert.Equal(t, "Tienda", TenantID("other").DisplayName())
	assert.Len(t, Tenants(), 3)
}

func TestProduct_InStockAndWithStock(t *testing.T) {
	p := Product{ID: "1", Stock: 3}
	assert.True(t, p.InStock())

	out := p.WithStock(-2)
	assert.Equal(t, 0, out.Stock)
	assert.False(t, out.InStock())
	assert.Equal(t, 3, p.Stock, "original must be untouched")
}

func TestProduct_Matches(t *testing.T) {
	p := Product{Name: "Yogurt Griego", Category: "Lácteos", Description: "Cremoso con cultivos vivos"}

	assert.True(t, p.Matches("yogurt"))
	assert.True(t, p.Matches("LÁCTEOS"))
	assert.True(t, p.Matches("cultivos"))
	assert.True(t, p.Matches("  "))
	assert.False(t, p.Matches("salmón"))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, StockLevelHigh, Level(11))
	assert.Equal(t, StockLevelLow, Level(10))
	assert.Equal(t, StockLevelLow, Level(1))
	assert.Equal(t, StockLevelOut, Level(0))
}

func TestDedupe(t *testing.T) {
	in := []Product{
		{ID: "1", Name: "first", Price: decimal.NewFromInt(1)},
		{ID: "2"},
		{ID: "1", Name: "dup"},
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Name)
	assert.Equal(t, "2", out[1].ID)
}
