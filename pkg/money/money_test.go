package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDollars(t *testing.T) {
	tests := []struct {
		name    string
		dollars int64
		want    string
	}{
		{"typical weekend", 1234567, "1234567"},
		{"zero", 0, "0"},
		{"correction row", -350, "-350"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromDollars(tt.dollars)
			assert.Equal(t, TWD, m.Currency())
			assert.True(t, decimal.RequireFromString(tt.want).Equal(m.ToDecimal()))
		})
	}
}

func TestNewFromDecimal_UnknownCurrency(t *testing.T) {
	m := NewFromDecimal(decimal.RequireFromString("12.345"), "XYZ")
	assert.Equal(t, TWD, m.Currency())
	assert.True(t, decimal.RequireFromString("12.35").Equal(m.ToDecimal()))
}

func TestAveragePrice(t *testing.T) {
	tests := []struct {
		name    string
		sales   *Money
		tickets int64
		want    string
		wantErr bool
	}{
		{"whole", FromDollars(25000), 100, "250", false},
		{"rounded to minor unit", FromDollars(1000), 3, "333.33", false},
		{"no sales", nil, 10, "0", false},
		{"no tickets", FromDollars(1000), 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AveragePrice(tt.sales, tt.tickets)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoTickets)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.ToDecimal()), "got %s", got.ToDecimal())
		})
	}
}

func TestToFloat64(t *testing.T) {
	avg, err := AveragePrice(FromDollars(1000), 4)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, avg.ToFloat64(), 1e-9)
}

func TestNilSafety(t *testing.T) {
	var m *Money
	assert.Equal(t, "", m.Currency())
	assert.True(t, m.ToDecimal().IsZero())
	assert.Zero(t, m.ToFloat64())
}
