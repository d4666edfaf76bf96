package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFilters() Filters {
	return Filters{
		Price: PriceFilter{
			Min:  decimal.NewFromFloat(0.01),
			Max:  decimal.NewFromInt(1000000),
			Tick: decimal.NewFromFloat(0.01),
		},
		Lot: LotFilter{
			Min:  decimal.NewFromFloat(0.0001),
			Max:  decimal.NewFromInt(9000),
			Step: decimal.NewFromFloat(0.0001),
		},
		BaseAsset:  "BTC",
		QuoteAsset: "USDT",
	}
}

func TestApplyPrice(t *testing.T) {
	f := testFilters()

	tests := []struct {
		name    string
		price   string
		want    string
		wantErr bool
	}{
		{name: "точно на сетке", price: "100.00", want: "100"},
		{name: "прижимается вниз", price: "100.009", want: "100"},
		{name: "чуть выше тика", price: "0.019", want: "0.01"},
		{name: "минимум", price: "0.01", want: "0.01"},
		{name: "ниже минимума", price: "0.001", wantErr: true},
		{name: "выше максимума", price: "1000001", wantErr: true},
		{name: "отрицательная", price: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ApplyPrice(decimal.RequireFromString(tt.price))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestApplyQuantityGrid(t *testing.T) {
	f := testFilters()

	qty, err := f.ApplyQuantity(decimal.RequireFromString("1.00005"))
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.RequireFromString("1.0000")), "got %s", qty)

	// результат лежит на сетке min + k*step
	k := qty.Sub(f.Lot.Min).Div(f.Lot.Step)
	assert.True(t, k.Equal(k.Floor()), "значение вне сетки: %s", qty)
}

func TestApplyIdempotent(t *testing.T) {
	f := testFilters()

	for _, raw := range []string{"99.987", "0.015", "12345.6789"} {
		first, err := f.ApplyPrice(decimal.RequireFromString(raw))
		require.NoError(t, err)
		second, err := f.ApplyPrice(first)
		require.NoError(t, err)
		assert.True(t, first.Equal(second), "повторное квантование изменило %s -> %s", first, second)
	}
}

func TestApplyFilterNonAlignedMin(t *testing.T) {
	// сетка стартует от минимума, а не от нуля
	got, err := applyFilter(
		decimal.RequireFromString("0.25"),
		decimal.RequireFromString("0.13"),
		decimal.RequireFromString("10"),
		decimal.RequireFromString("0.1"),
	)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.23")), "got %s", got)
}
