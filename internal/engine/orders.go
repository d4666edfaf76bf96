package engine

import (
	"context"

	"dcabot/internal/exchange"
	"dcabot/internal/models"
)

// submitOrder отправляет лимитный ордер на биржу. Ошибки транспорта
// поглощаются: ордер остаётся CREATED, и его доотправит следующий проход.
func (e *Engine) submitOrder(ctx context.Context, order *models.Order) bool {
	placed, err := e.client.PlaceLimitOrder(ctx, exchange.PlaceOrderRequest{
		ClientOrderID: order.ID,
		Symbol:        e.cfg.DCA.Pair,
		Side:          order.Side,
		Price:         order.Price,
		Quantity:      order.Quantity,
	})
	if err != nil {
		e.logEntry().WithError(err).WithFields(map[string]interface{}{
			"order_id": order.ID,
			"side":     order.Side,
			"seq":      order.Sequence,
		}).Error("Не удалось поставить ордер.")
		return false
	}

	order.ExchangeOrderID = placed.ExchangeOrderID
	if models.KnownStatus(placed.Status) {
		order.Status = placed.Status
	} else {
		order.Status = models.OrderStatusNew
	}
	if err := e.repo.SaveOrder(ctx, order); err != nil {
		e.logEntry().WithError(err).WithField("order_id", order.ID).Error("Не удалось сохранить ордер.")
		return false
	}

	e.log.WithOrderID(order.ID).WithField("component", "engine").WithFields(map[string]interface{}{
		"symbol":            e.cfg.DCA.Pair,
		"exchange_order_id": order.ExchangeOrderID,
		"side":              order.Side,
		"price":             order.Price.String(),
		"qty":               order.Quantity.String(),
	}).Info("Ордер поставлен.")
	return true
}

// cancelOrder просит биржу снять ордер. Подтверждение отмены придёт
// асинхронно отдельным отчётом, статус здесь не трогаем.
func (e *Engine) cancelOrder(ctx context.Context, order *models.Order) {
	if err := e.client.CancelOrder(ctx, e.cfg.DCA.Pair, order.ExchangeOrderID); err != nil {
		e.logEntry().WithError(err).WithFields(map[string]interface{}{
			"order_id":          order.ID,
			"exchange_order_id": order.ExchangeOrderID,
		}).Error("Не удалось отменить ордер.")
		return
	}
	e.logEntry().WithFields(map[string]interface{}{
		"order_id":          order.ID,
		"exchange_order_id": order.ExchangeOrderID,
		"side":              order.Side,
	}).Info("Отправлена отмена ордера.")
}
