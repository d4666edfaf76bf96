package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dcabot/internal/exchange"
	"dcabot/internal/models"
)

func (e *Engine) applyExecutionReport(ctx context.Context, report exchange.ExecutionReport) error {
	if !models.KnownStatus(report.Status) {
		e.logEntry().WithFields(map[string]interface{}{
			"client_order_id": report.ClientOrderID,
			"status":          report.Status,
		}).Error("Неизвестный статус в отчёте биржи, событие пропущено.")
		return nil
	}

	order, err := e.repo.FindOrder(ctx, report.ClientOrderID)
	if err != nil {
		return fmt.Errorf("поиск ордера %s: %w", report.ClientOrderID, err)
	}
	if order == nil {
		e.logEntry().WithField("client_order_id", report.ClientOrderID).Info("Ордер не найден, событие пропущено.")
		return nil
	}

	deal, err := e.repo.FindDeal(ctx, order.DealID)
	if err != nil {
		return fmt.Errorf("поиск сделки %d: %w", order.DealID, err)
	}
	if deal == nil {
		e.logEntry().WithField("deal_id", order.DealID).Warn("Сделка ордера не найдена, событие пропущено.")
		return nil
	}
	if deal.Status != models.DealStatusActive {
		e.logEntry().WithFields(map[string]interface{}{
			"deal_id": deal.ID,
			"status":  deal.Status,
		}).Debug("Событие для неактивной сделки, пропуск.")
		return nil
	}

	o := deal.FindOrder(report.ClientOrderID)
	if o == nil {
		e.logEntry().WithField("client_order_id", report.ClientOrderID).Warn("Ордер не входит в сделку, событие пропущено.")
		return nil
	}

	if o.Side == models.OrderSideBuy {
		return e.applyBuyStatus(ctx, deal, o, report.Status, report.ExchangeOrderID, report.Price)
	}
	return e.applySellStatus(ctx, deal, o, report.Status, report.ExchangeOrderID, report.Price)
}

// applyBuyStatus — переходы buy ордера по таблице. Дубликаты NEW и повторные
// FILLED по терминальному ордеру отбрасываются на централизованном guard'е.
func (e *Engine) applyBuyStatus(ctx context.Context, deal *models.Deal, order *models.Order, status models.OrderStatus, exchangeOrderID int64, price decimal.Decimal) error {
	switch status {
	case models.OrderStatusNew:
		if !order.Transition(models.OrderStatusNew) {
			e.logEntry().WithField("order_id", order.ID).Debug("Повторный NEW, пропуск.")
			return nil
		}
		if exchangeOrderID != 0 {
			order.ExchangeOrderID = exchangeOrderID
		}
		if err := e.repo.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("сохранение ордера %s: %w", order.ID, err)
		}
		e.logEntry().WithFields(map[string]interface{}{
			"order_id":          order.ID,
			"exchange_order_id": order.ExchangeOrderID,
			"price":             order.Price.String(),
			"qty":               order.Quantity.String(),
		}).Info("Buy ордер принят биржей.")
		return nil

	case models.OrderStatusFilled:
		if !order.Transition(models.OrderStatusFilled) {
			e.logEntry().WithField("order_id", order.ID).Debug("Повторный FILLED, пропуск.")
			return nil
		}

		// Старый take-profit снимается до постановки нового: средняя цена
		// входа сейчас изменится.
		if stale := deal.OpenSellOrder(); stale != nil {
			e.cancelOrder(ctx, stale)
		}
		// Take-profit, не успевший уйти на биржу, помечается отменённым
		// локально: на бирже его нет, снимать нечего; иначе проход сверки
		// отправил бы и его, и свежий.
		for i := range deal.Orders {
			so := &deal.Orders[i]
			if so.Side != models.OrderSideSell || so.Status != models.OrderStatusCreated || so.Submitted() {
				continue
			}
			so.Transition(models.OrderStatusCanceled)
			if err := e.repo.SaveOrder(ctx, so); err != nil {
				return fmt.Errorf("сохранение ордера %s: %w", so.ID, err)
			}
			e.logEntry().WithField("order_id", so.ID).Info("Неотправленный take-profit заменён.")
		}

		if exchangeOrderID != 0 {
			order.ExchangeOrderID = exchangeOrderID
		}
		order.FilledPrice = decimal.NewNullDecimal(price)
		if err := e.repo.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("сохранение ордера %s: %w", order.ID, err)
		}
		e.logEntry().WithFields(map[string]interface{}{
			"order_id":          order.ID,
			"exchange_order_id": order.ExchangeOrderID,
			"price":             price.String(),
			"qty":               order.Quantity.String(),
		}).Info("Buy ордер исполнен.")

		sell := models.Order{
			ID:       uuid.NewString(),
			DealID:   deal.ID,
			Sequence: models.TakeProfitSequenceBase + order.Sequence,
			Side:     models.OrderSideSell,
			Status:   models.OrderStatusCreated,
			Price:    order.ExitPrice,
			Quantity: order.TotalQuantity,
			Volume:   order.ExitPrice.Mul(order.TotalQuantity),
		}
		if err := e.repo.SaveOrder(ctx, &sell); err != nil {
			return fmt.Errorf("сохранение take-profit ордера: %w", err)
		}
		// Не ушедший на биржу take-profit останется CREATED и будет
		// доотправлен следующим проходом сверки.
		e.submitOrder(ctx, &sell)
		deal.Orders = append(deal.Orders, sell)
		return nil

	case models.OrderStatusPartiallyFilled, models.OrderStatusCanceled,
		models.OrderStatusRejected, models.OrderStatusExpired:
		order.Transition(status)
		if exchangeOrderID != 0 {
			order.ExchangeOrderID = exchangeOrderID
		}
		if err := e.repo.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("сохранение ордера %s: %w", order.ID, err)
		}
		e.logEntry().WithFields(map[string]interface{}{
			"order_id": order.ID,
			"status":   status,
		}).Info("Статус buy ордера обновлён.")
		if status != models.OrderStatusPartiallyFilled {
			e.maybeCloseUnfilled(ctx, deal)
		}
		return nil
	}
	return nil
}

// applySellStatus: статус sell ордера копируется безусловно; исполненный
// take-profit закрывает сделку.
func (e *Engine) applySellStatus(ctx context.Context, deal *models.Deal, order *models.Order, status models.OrderStatus, exchangeOrderID int64, price decimal.Decimal) error {
	order.Status = status
	if exchangeOrderID != 0 {
		order.ExchangeOrderID = exchangeOrderID
	}
	if status == models.OrderStatusFilled {
		order.FilledPrice = decimal.NewNullDecimal(price)
	}
	if err := e.repo.SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("сохранение ордера %s: %w", order.ID, err)
	}
	e.logEntry().WithFields(map[string]interface{}{
		"order_id": order.ID,
		"status":   status,
		"price":    price.String(),
	}).Info("Статус sell ордера обновлён.")

	if status == models.OrderStatusFilled {
		return e.closeDeal(ctx, deal.ID)
	}
	return nil
}

// maybeCloseUnfilled закрывает сделку с нулевой прибылью, когда все buy
// ордера терминальны, ничего не исполнено и take-profit не создавался.
func (e *Engine) maybeCloseUnfilled(ctx context.Context, deal *models.Deal) {
	for i := range deal.Orders {
		o := &deal.Orders[i]
		if o.Side == models.OrderSideSell {
			return
		}
		if o.Status == models.OrderStatusFilled || !o.Status.Terminal() {
			return
		}
	}
	e.logEntry().WithField("deal_id", deal.ID).Info("Все buy ордера сняты без исполнений, закрываем сделку.")
	if err := e.closeDeal(ctx, deal.ID); err != nil {
		e.logEntry().WithError(err).WithField("deal_id", deal.ID).Warn("Не удалось закрыть сделку.")
	}
}
