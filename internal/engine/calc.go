package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"dcabot/internal/config"
	"dcabot/internal/exchange"
	"dcabot/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ComputeLadder строит сетку buy ордеров для текущей цены: базовый ордер и
// maxSafetyTradesCount страховочных с геометрическим ростом объёма и шага.
// Чистая функция, никакого I/O.
func ComputeLadder(currentPrice decimal.Decimal, cfg config.DCAConfig, filters exchange.Filters) ([]models.PlannedOrder, error) {
	targetProfit := cfg.TargetProfitPercentage.Div(hundred)
	priceDeviation := cfg.PriceDeviationPercentage.Div(hundred)

	orders := make([]models.PlannedOrder, 0, cfg.MaxSafetyTradesCount+1)
	for k := 0; k <= cfg.MaxSafetyTradesCount; k++ {
		if k == 0 {
			quantity, err := filters.ApplyQuantity(cfg.BaseOrderSize.Div(currentPrice))
			if err != nil {
				return nil, fmt.Errorf("базовый ордер: %w", err)
			}
			exitPrice, err := filters.ApplyPrice(currentPrice.Mul(one.Add(targetProfit)))
			if err != nil {
				return nil, fmt.Errorf("базовый ордер: %w", err)
			}
			volume := currentPrice.Mul(quantity)
			orders = append(orders, models.PlannedOrder{
				Sequence:      0,
				Deviation:     decimal.Zero,
				Price:         currentPrice,
				Quantity:      quantity,
				Volume:        volume,
				TotalQuantity: quantity,
				TotalVolume:   volume,
				AveragePrice:  currentPrice,
				ExitPrice:     exitPrice,
			})
			continue
		}

		volume := cfg.SafetyOrderSize.Mul(cfg.SafetyOrderVolumeScale.Pow(decimal.NewFromInt(int64(k - 1))))

		// Суммарное отклонение k-го страховочного ордера — сумма
		// геометрической прогрессии шагов. При stepScale = 1 формула
		// вырождается (деление на ноль), шаг накапливается линейно.
		var deviation decimal.Decimal
		if cfg.SafetyOrderStepScale.Equal(one) {
			deviation = priceDeviation.Mul(decimal.NewFromInt(int64(k)))
		} else {
			deviation = priceDeviation.Mul(
				one.Sub(cfg.SafetyOrderStepScale.Pow(decimal.NewFromInt(int64(k)))).
					Div(one.Sub(cfg.SafetyOrderStepScale)))
		}

		price, err := filters.ApplyPrice(currentPrice.Mul(one.Sub(deviation)))
		if err != nil {
			return nil, fmt.Errorf("страховочный ордер %d: %w", k, err)
		}
		quantity, err := filters.ApplyQuantity(volume.Div(price))
		if err != nil {
			return nil, fmt.Errorf("страховочный ордер %d: %w", k, err)
		}

		// Объём пересчитывается по уже квантованным цене и количеству,
		// чтобы накопительные суммы отражали представимые на бирже значения.
		revisedVolume := price.Mul(quantity)
		prev := orders[len(orders)-1]
		totalVolume := prev.TotalVolume.Add(revisedVolume)
		totalQuantity := prev.TotalQuantity.Add(quantity)
		averagePrice := totalVolume.Div(totalQuantity)
		exitPrice, err := filters.ApplyPrice(averagePrice.Mul(one.Add(targetProfit)))
		if err != nil {
			return nil, fmt.Errorf("страховочный ордер %d: %w", k, err)
		}

		orders = append(orders, models.PlannedOrder{
			Sequence:      k,
			Deviation:     deviation.Mul(hundred),
			Price:         price,
			Quantity:      quantity,
			Volume:        revisedVolume,
			TotalQuantity: totalQuantity,
			TotalVolume:   totalVolume,
			AveragePrice:  averagePrice,
			ExitPrice:     exitPrice,
		})
	}

	return orders, nil
}
