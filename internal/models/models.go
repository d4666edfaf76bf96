package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Strategy string
type OrderSide string
type OrderStatus string
type DealStatus string

const (
	StrategyLong Strategy = "LONG"

	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderStatusCreated         OrderStatus = "CREATED"
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"

	DealStatusCreated DealStatus = "CREATED"
	DealStatusActive  DealStatus = "ACTIVE"
	DealStatusClosed  DealStatus = "CLOSED"
)

// TakeProfitSequenceBase: sell ордер, закрывающий buy ордер k, получает
// sequence = TakeProfitSequenceBase + k.
const TakeProfitSequenceBase = 1000

type Deal struct {
	ID      int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Status  DealStatus `gorm:"size:16;index" json:"status"`
	Pair    string     `gorm:"size:16;index" json:"pair"`
	StartAt time.Time  `json:"start_at"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	Profit decimal.NullDecimal `gorm:"type:numeric(32,12)" json:"profit"`

	// Снимок стратегии на момент создания сделки: правки конфига не
	// затрагивают уже открытую сделку.
	Strategy                   Strategy        `gorm:"size:8" json:"strategy"`
	BaseOrderSize              decimal.Decimal `gorm:"type:numeric(32,12)" json:"base_order_size"`
	SafetyOrderSize            decimal.Decimal `gorm:"type:numeric(32,12)" json:"safety_order_size"`
	StartOrderType             string          `gorm:"size:16" json:"start_order_type"`
	DealStartCondition         string          `gorm:"size:16" json:"deal_start_condition"`
	TargetProfitPercentage     decimal.Decimal `gorm:"type:numeric(5,2)" json:"target_profit_percentage"`
	MaxSafetyTradesCount       int             `json:"max_safety_trades_count"`
	MaxActiveSafetyTradesCount int             `json:"max_active_safety_trades_count"`
	PriceDeviationPercentage   decimal.Decimal `gorm:"type:numeric(5,2)" json:"price_deviation_percentage"`
	SafetyOrderVolumeScale     decimal.Decimal `gorm:"type:numeric(5,2)" json:"safety_order_volume_scale"`
	SafetyOrderStepScale       decimal.Decimal `gorm:"type:numeric(5,2)" json:"safety_order_step_scale"`

	Orders []Order `gorm:"foreignKey:DealID" json:"orders"`
}

type Order struct {
	// ID генерируется один раз при создании и используется как clientOrderId
	// на бирже.
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	DealID int64  `gorm:"index" json:"deal_id"`

	// 0 — базовый ордер, 1..N — страховочные, 1000+k — take-profit sell,
	// закрывающий buy с sequence k.
	Sequence int         `json:"sequence"`
	Side     OrderSide   `gorm:"size:4" json:"side"`
	Status   OrderStatus `gorm:"size:16" json:"status"`

	Price         decimal.Decimal     `gorm:"type:numeric(32,12)" json:"price"`
	Quantity      decimal.Decimal     `gorm:"type:numeric(32,12)" json:"quantity"`
	Volume        decimal.Decimal     `gorm:"type:numeric(32,12)" json:"volume"`
	Deviation     decimal.Decimal     `gorm:"type:numeric(32,12)" json:"deviation"`
	AveragePrice  decimal.Decimal     `gorm:"type:numeric(32,12)" json:"average_price"`
	ExitPrice     decimal.Decimal     `gorm:"type:numeric(32,12)" json:"exit_price"`
	TotalQuantity decimal.Decimal     `gorm:"type:numeric(32,12)" json:"total_quantity"`
	FilledPrice   decimal.NullDecimal `gorm:"type:numeric(32,12)" json:"filled_price"`

	// 0, пока ордер не отправлен на биржу.
	ExchangeOrderID int64 `json:"exchange_order_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlannedOrder — результат калькулятора сетки. Не персистится, служит
// заготовкой для Order при создании сделки.
type PlannedOrder struct {
	Sequence      int
	Deviation     decimal.Decimal // percent
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Volume        decimal.Decimal
	TotalQuantity decimal.Decimal
	TotalVolume   decimal.Decimal
	AveragePrice  decimal.Decimal
	ExitPrice     decimal.Decimal
}

func (d *Deal) FindOrder(id string) *Order {
	for i := range d.Orders {
		if d.Orders[i].ID == id {
			return &d.Orders[i]
		}
	}
	return nil
}

func (d *Deal) OpenSellOrder() *Order {
	for i := range d.Orders {
		o := &d.Orders[i]
		if o.Side == OrderSideSell && o.Status == OrderStatusNew {
			return o
		}
	}
	return nil
}

func (o *Order) Submitted() bool {
	return o.ExchangeOrderID != 0
}
