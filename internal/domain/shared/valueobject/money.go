package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	PEN Currency = "PEN" // Peruvian Sol (default)
	USD Currency = "USD" // US Dollar
)

// DefaultCurrency is the currency every store prices in
const DefaultCurrency = PEN

var currencySymbols = map[Currency]string{
	PEN: "S/",
	USD: "$",
}

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyPEN creates Money in soles
func NewMoneyPEN(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: PEN}
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Add returns a new Money with the sum of both amounts
// Returns error if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// MultiplyByInt returns a new Money multiplied by a quantity
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor)), currency: m.currency}
}

// Equals returns true if both amount and currency match
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String returns a plain representation, e.g. "S/ 12.50"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.symbol(), m.amount.StringFixed(2))
}

// Format renders the amount with locale-aware grouping, e.g. "S/ 1.234,50"
// for Spanish or "S/ 1,234.50" for English.
func (m Money) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return fmt.Sprintf("%s %s", m.symbol(), p.Sprint(number.Decimal(m.amount.InexactFloat64(), number.Scale(2))))
}

func (m Money) symbol() string {
	if s, ok := currencySymbols[m.currency]; ok {
		return s
	}
	return string(m.currency)
}
