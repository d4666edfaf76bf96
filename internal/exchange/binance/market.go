package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"dcabot/internal/exchange"
)

func (c *Client) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/ticker/price", params, false, &resp); err != nil {
		return decimal.Decimal{}, err
	}

	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("Некорректное значение price=%q: %w", resp.Price, err)
	}
	return price, nil
}

func (c *Client) GetFilters(ctx context.Context, symbol string) (exchange.Filters, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var resp struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
			Filters    []struct {
				FilterType string `json:"filterType"`
				MinPrice   string `json:"minPrice"`
				MaxPrice   string `json:"maxPrice"`
				TickSize   string `json:"tickSize"`
				MinQty     string `json:"minQty"`
				MaxQty     string `json:"maxQty"`
				StepSize   string `json:"stepSize"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/exchangeInfo", params, false, &resp); err != nil {
		return exchange.Filters{}, err
	}
	if len(resp.Symbols) == 0 {
		return exchange.Filters{}, fmt.Errorf("Торговая пара не найдена: %s", symbol)
	}

	info := resp.Symbols[0]
	filters := exchange.Filters{
		BaseAsset:  info.BaseAsset,
		QuoteAsset: info.QuoteAsset,
	}

	var havePrice, haveLot bool
	for _, f := range info.Filters {
		switch f.FilterType {
		case "PRICE_FILTER":
			min, err := decimal.NewFromString(f.MinPrice)
			if err != nil {
				return exchange.Filters{}, fmt.Errorf("Некорректное значение minPrice=%q: %w", f.MinPrice, err)
			}
			max, err := decimal.NewFromString(f.MaxPrice)
			if err != nil {
				return exchange.Filters{}, fmt.Errorf("Некорректное значение maxPrice=%q: %w", f.MaxPrice, err)
			}
			tick, err := decimal.NewFromString(f.TickSize)
			if err != nil {
				return exchange.Filters{}, fmt.Errorf("Некорректное значение tickSize=%q: %w", f.TickSize, err)
			}
			filters.Price = exchange.PriceFilter{Min: min, Max: max, Tick: tick}
			havePrice = true
		case "LOT_SIZE":
			min, err := decimal.NewFromString(f.MinQty)
			if err != nil {
				return exchange.Filters{}, fmt.Errorf("Некорректное значение minQty=%q: %w", f.MinQty, err)
			}
			max, err := decimal.NewFromString(f.MaxQty)
			if err != nil {
				return exchange.Filters{}, fmt.Errorf("Некорректное значение maxQty=%q: %w", f.MaxQty, err)
			}
			step, err := decimal.NewFromString(f.StepSize)
			if err != nil {
				return exchange.Filters{}, fmt.Errorf("Некорректное значение stepSize=%q: %w", f.StepSize, err)
			}
			filters.Lot = exchange.LotFilter{Min: min, Max: max, Step: step}
			haveLot = true
		}
	}
	if !havePrice || !haveLot {
		return exchange.Filters{}, fmt.Errorf("У торговой пары %s нет фильтров PRICE_FILTER или LOT_SIZE", symbol)
	}
	return filters, nil
}
