package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcabot/internal/config"
	"dcabot/internal/exchange"
)

func testLadderFilters() exchange.Filters {
	return exchange.Filters{
		Price: exchange.PriceFilter{
			Min:  decimal.NewFromFloat(0.01),
			Max:  decimal.NewFromInt(1000000),
			Tick: decimal.NewFromFloat(0.01),
		},
		Lot: exchange.LotFilter{
			Min:  decimal.NewFromFloat(0.0001),
			Max:  decimal.NewFromInt(9000),
			Step: decimal.NewFromFloat(0.0001),
		},
		BaseAsset:  "BTC",
		QuoteAsset: "USDT",
	}
}

func testDCAConfig() config.DCAConfig {
	return config.DCAConfig{
		Pair:                     "BTCUSDT",
		Strategy:                 "LONG",
		BaseOrderSize:            decimal.NewFromInt(100),
		SafetyOrderSize:          decimal.NewFromInt(50),
		TargetProfitPercentage:   decimal.NewFromInt(1),
		MaxSafetyTradesCount:     2,
		PriceDeviationPercentage: decimal.NewFromInt(2),
		SafetyOrderVolumeScale:   decimal.RequireFromString("1.5"),
		SafetyOrderStepScale:     decimal.RequireFromString("1.2"),
	}
}

func TestComputeLadder(t *testing.T) {
	orders, err := ComputeLadder(decimal.NewFromInt(100), testDCAConfig(), testLadderFilters())
	require.NoError(t, err)
	require.Len(t, orders, 3)

	eq := func(got decimal.Decimal, want string, msg string) {
		t.Helper()
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%s: got %s, want %s", msg, got, want)
	}

	// базовый ордер
	eq(orders[0].Price, "100", "price[0]")
	eq(orders[0].Quantity, "1", "qty[0]")
	eq(orders[0].Volume, "100", "volume[0]")
	eq(orders[0].AveragePrice, "100", "avg[0]")
	eq(orders[0].ExitPrice, "101", "exit[0]")
	eq(orders[0].Deviation, "0", "deviation[0]")

	// первый страховочный: отклонение 2%, объём 50
	assert.Equal(t, 1, orders[1].Sequence)
	eq(orders[1].Deviation, "2", "deviation[1]")
	eq(orders[1].Price, "98", "price[1]")
	eq(orders[1].Quantity, "0.5102", "qty[1]")
	eq(orders[1].Volume, "49.9996", "volume[1]")
	eq(orders[1].TotalQuantity, "1.5102", "totalQty[1]")
	eq(orders[1].TotalVolume, "149.9996", "totalVol[1]")
	eq(orders[1].ExitPrice, "100.31", "exit[1]")

	// второй страховочный: отклонение 2%*(1+1.2)=4.4%, объём 50*1.5
	assert.Equal(t, 2, orders[2].Sequence)
	eq(orders[2].Deviation, "4.4", "deviation[2]")
	eq(orders[2].Price, "95.6", "price[2]")
	eq(orders[2].Quantity, "0.7845", "qty[2]")
	eq(orders[2].Volume, "74.9982", "volume[2]")
	eq(orders[2].TotalQuantity, "2.2947", "totalQty[2]")
	eq(orders[2].TotalVolume, "224.9978", "totalVol[2]")
	eq(orders[2].ExitPrice, "99.03", "exit[2]")

	for i, o := range orders {
		assert.True(t, o.AveragePrice.Equal(o.TotalVolume.Div(o.TotalQuantity)), "avg[%d] не равна totalVolume/totalQuantity", i)
		assert.True(t, o.ExitPrice.GreaterThanOrEqual(o.Price), "exit[%d] ниже цены входа", i)
		if i > 0 {
			assert.True(t, o.Price.LessThan(orders[i-1].Price), "price[%d] не убывает", i)
			assert.True(t, o.ExitPrice.LessThan(orders[i-1].ExitPrice), "exit[%d] не убывает", i)
		}
	}
}

func TestComputeLadderNoSafetyOrders(t *testing.T) {
	cfg := testDCAConfig()
	cfg.MaxSafetyTradesCount = 0

	orders, err := ComputeLadder(decimal.NewFromInt(100), cfg, testLadderFilters())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 0, orders[0].Sequence)
	assert.True(t, orders[0].ExitPrice.Equal(decimal.NewFromInt(101)))
}

func TestComputeLadderLinearStep(t *testing.T) {
	cfg := testDCAConfig()
	cfg.SafetyOrderStepScale = decimal.NewFromInt(1)
	cfg.MaxSafetyTradesCount = 3

	orders, err := ComputeLadder(decimal.NewFromInt(100), cfg, testLadderFilters())
	require.NoError(t, err)
	require.Len(t, orders, 4)

	// при stepScale=1 отклонение растёт линейно: 2%, 4%, 6%
	for k := 1; k <= 3; k++ {
		want := decimal.NewFromInt(int64(2 * k))
		assert.True(t, orders[k].Deviation.Equal(want), "deviation[%d]: got %s, want %s", k, orders[k].Deviation, want)
	}
	assert.True(t, orders[3].Price.Equal(decimal.NewFromInt(94)))
}

func TestComputeLadderPriceOutOfRange(t *testing.T) {
	filters := testLadderFilters()
	filters.Price.Min = decimal.NewFromInt(99)

	// второй страховочный уходит ниже минимума цены
	_, err := ComputeLadder(decimal.NewFromInt(100), testDCAConfig(), filters)
	require.ErrorIs(t, err, exchange.ErrInvalidAmount)
}
