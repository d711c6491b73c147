package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewMoney(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(1), "")
	assert.Error(t, err)

	m, err := NewMoney(decimal.RequireFromString("4.99"), USD)
	require.NoError(t, err)
	assert.Equal(t, USD, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.RequireFromString("4.99")))
}

func TestMoney_Add(t *testing.T) {
	a := NewMoneyPEN(decimal.RequireFromString("2.99"))
	b := NewMoneyPEN(decimal.RequireFromString("3.49"))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "6.48", sum.Amount().StringFixed(2))

	usd, _ := NewMoney(decimal.NewFromInt(1), USD)
	_, err = a.Add(usd)
	assert.Error(t, err)
}

func TestMoney_MultiplyByInt(t *testing.T) {
	m := NewMoneyPEN(decimal.RequireFromString("12.99")).MultiplyByInt(3)
	assert.Equal(t, "38.97", m.Amount().StringFixed(2))
	assert.True(t, Zero(PEN).MultiplyByInt(10).IsZero())
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "S/ 5.50", NewMoneyPEN(decimal.RequireFromString("5.5")).String())
}

func TestMoney_Format(t *testing.T) {
	m := NewMoneyPEN(decimal.RequireFromString("1234.5"))
	assert.Equal(t, "S/ 1,234.50", m.Format(language.English))
}

func TestMoney_Equals(t *testing.T) {
	a := NewMoneyPEN(decimal.RequireFromString("1.10"))
	b := NewMoneyPEN(decimal.RequireFromString("1.1"))
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(Zero(PEN)))
}
