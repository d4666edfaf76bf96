package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"dcabot/internal/exchange"
	"dcabot/internal/models"
)

func (c *Client) PlaceLimitOrder(ctx context.Context, req exchange.PlaceOrderRequest) (exchange.PlacedOrder, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("price", req.Price.String())
	params.Set("quantity", req.Quantity.String())
	params.Set("newClientOrderId", req.ClientOrderID)

	var resp struct {
		OrderID int64  `json:"orderId"`
		Status  string `json:"status"`
		Price   string `json:"price"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v3/order", params, true, &resp); err != nil {
		return exchange.PlacedOrder{}, err
	}

	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return exchange.PlacedOrder{}, fmt.Errorf("Некорректное значение price=%q: %w", resp.Price, err)
	}
	return exchange.PlacedOrder{
		ExchangeOrderID: resp.OrderID,
		Status:          models.OrderStatus(resp.Status),
		Price:           price,
	}, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, exchangeOrderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(exchangeOrderID, 10))

	return c.doRequest(ctx, http.MethodDelete, "/api/v3/order", params, true, nil)
}

func (c *Client) GetOrder(ctx context.Context, symbol string, exchangeOrderID int64) (exchange.OrderDetail, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(exchangeOrderID, 10))

	var resp struct {
		Status string `json:"status"`
		Price  string `json:"price"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v3/order", params, true, &resp); err != nil {
		return exchange.OrderDetail{}, err
	}

	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return exchange.OrderDetail{}, fmt.Errorf("Некорректное значение price=%q: %w", resp.Price, err)
	}
	return exchange.OrderDetail{
		Status: models.OrderStatus(resp.Status),
		Price:  price,
	}, nil
}
