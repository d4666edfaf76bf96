package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"dcabot/internal/models"
)

type PlaceOrderRequest struct {
	ClientOrderID string
	Symbol        string
	Side          models.OrderSide
	Price         decimal.Decimal
	Quantity      decimal.Decimal
}

type PlacedOrder struct {
	ExchangeOrderID int64
	Status          models.OrderStatus
	Price           decimal.Decimal
}

type OrderDetail struct {
	Status models.OrderStatus
	Price  decimal.Decimal
}

// ExecutionReport — уведомление биржи о смене статуса ордера. Дубликаты и
// нарушение порядка возможны, движок обязан это переживать.
type ExecutionReport struct {
	ClientOrderID   string
	ExchangeOrderID int64
	Symbol          string
	Side            models.OrderSide
	Status          models.OrderStatus
	Price           decimal.Decimal
	Quantity        decimal.Decimal
}

type Client interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	GetFilters(ctx context.Context, symbol string) (Filters, error)
	GetFreeBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	PlaceLimitOrder(ctx context.Context, req PlaceOrderRequest) (PlacedOrder, error)
	CancelOrder(ctx context.Context, symbol string, exchangeOrderID int64) error
	GetOrder(ctx context.Context, symbol string, exchangeOrderID int64) (OrderDetail, error)
}

type Stream interface {
	Connect(ctx context.Context) error
	Events() <-chan ExecutionReport
	Close() error
}
