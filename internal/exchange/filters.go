package exchange

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount: цена или объём вне границ фильтра торговой пары.
var ErrInvalidAmount = errors.New("invalid amount")

type PriceFilter struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Tick decimal.Decimal
}

type LotFilter struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Step decimal.Decimal
}

// Filters — ограничения квантования биржи для одной торговой пары.
type Filters struct {
	Price      PriceFilter
	Lot        LotFilter
	BaseAsset  string
	QuoteAsset string
}

// applyFilter прижимает значение вниз к ближайшей точке сетки min + k*step.
func applyFilter(amount, min, max, step decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThan(min) || amount.GreaterThan(max) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s вне [%s, %s]", ErrInvalidAmount, amount, min, max)
	}
	steps := amount.Sub(min).Div(step).Floor()
	revised := min.Add(steps.Mul(step))
	if revised.LessThan(min) {
		return min, nil
	}
	if revised.GreaterThan(max) {
		return max, nil
	}
	return revised, nil
}

func (f Filters) ApplyPrice(price decimal.Decimal) (decimal.Decimal, error) {
	return applyFilter(price, f.Price.Min, f.Price.Max, f.Price.Tick)
}

func (f Filters) ApplyQuantity(qty decimal.Decimal) (decimal.Decimal, error) {
	return applyFilter(qty, f.Lot.Min, f.Lot.Max, f.Lot.Step)
}
