// Package money provides currency-safe arithmetic for reported revenue using
// integer minor units. Bulletins report sales in whole New Taiwan dollars.
package money

import (
	"errors"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// TWD is the ISO-4217 code of every amount the bulletins report.
const TWD = "TWD"

// ErrNoTickets is returned when an average price is requested for zero tickets.
var ErrNoTickets = errors.New("no tickets sold")

// Money represents a monetary value with currency.
// It wraps go-money for safe arithmetic and shopspring/decimal for precision calculations.
type Money struct {
	m *money.Money
}

// New creates a new Money value from minor units and currency code.
func New(amountMinor int64, currencyCode string) *Money {
	return &Money{
		m: money.New(amountMinor, currencyCode),
	}
}

// FromDollars creates a TWD value from whole dollars, the unit the bulletins print.
func FromDollars(dollars int64) *Money {
	return NewFromDecimal(decimal.NewFromInt(dollars), TWD)
}

// NewFromDecimal creates Money from a decimal.Decimal value.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(TWD)
	}

	multiplier := decimal.New(1, int32(currency.Fraction))
	minor := amount.Mul(multiplier).Round(0).IntPart()

	return New(minor, currency.Code)
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// ToDecimal converts to decimal.Decimal for precise calculations
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	currency := m.m.Currency()
	d := decimal.NewFromInt(m.m.Amount())
	divisor := decimal.New(1, int32(currency.Fraction))
	return d.Div(divisor)
}

// ToFloat64 converts to float64 (use with caution for display only)
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// AveragePrice returns sales divided by tickets, rounded to the currency's
// minor unit.
func AveragePrice(sales *Money, tickets int64) (*Money, error) {
	if tickets <= 0 {
		return nil, ErrNoTickets
	}
	if sales == nil || sales.m == nil {
		return Zero(TWD), nil
	}
	return NewFromDecimal(sales.ToDecimal().Div(decimal.NewFromInt(tickets)), sales.Currency()), nil
}
