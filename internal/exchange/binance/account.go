package binance

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

func (c *Client) GetFreeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	var resp struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/account", nil, true, &resp); err != nil {
		return decimal.Decimal{}, err
	}

	for _, b := range resp.Balances {
		if b.Asset != asset {
			continue
		}
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("Некорректное значение free=%q: %w", b.Free, err)
		}
		return free, nil
	}
	return decimal.Decimal{}, fmt.Errorf("Актив не найден в балансе: %s", asset)
}
