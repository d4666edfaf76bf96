package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dcabot/internal/models"
)

func (e *Engine) startOrContinueDeal(ctx context.Context) (*models.Deal, error) {
	deal, err := e.repo.FindActiveDeal(ctx, e.cfg.DCA.Pair)
	if err != nil {
		return nil, fmt.Errorf("поиск активной сделки: %w", err)
	}
	if deal != nil {
		e.continueDeal(ctx, deal)
		return deal, nil
	}

	e.logEntry().Info("Активной сделки нет, создаём новую.")
	planned, err := e.planLadder(ctx)
	if err != nil {
		return nil, err
	}
	deal, err = e.createDeal(ctx, planned)
	if err != nil {
		return nil, err
	}
	if err := e.activateDeal(ctx, deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// planLadder считает сетку по текущей цене и проверяет, что свободного
// остатка котируемого актива хватает на весь суммарный объём.
func (e *Engine) planLadder(ctx context.Context) ([]models.PlannedOrder, error) {
	price, err := e.client.GetPrice(ctx, e.cfg.DCA.Pair)
	if err != nil {
		return nil, fmt.Errorf("запрос цены: %w", err)
	}
	e.logEntry().WithField("price", price.String()).Info("Текущая цена получена.")

	orders, err := ComputeLadder(price, e.cfg.DCA, e.filters)
	if err != nil {
		return nil, err
	}

	last := orders[len(orders)-1]
	free, err := e.client.GetFreeBalance(ctx, e.filters.QuoteAsset)
	if err != nil {
		return nil, fmt.Errorf("запрос баланса: %w", err)
	}
	if last.TotalVolume.GreaterThan(free) {
		return nil, fmt.Errorf("%w: нужно %s %s, доступно %s",
			ErrInsufficientFunds, last.TotalVolume, e.filters.QuoteAsset, free)
	}
	return orders, nil
}

// createDeal персистит сделку со снимком стратегии и всей сеткой buy
// ордеров в статусе CREATED.
func (e *Engine) createDeal(ctx context.Context, planned []models.PlannedOrder) (*models.Deal, error) {
	dca := e.cfg.DCA
	deal := &models.Deal{
		Status:  models.DealStatusCreated,
		Pair:    dca.Pair,
		StartAt: time.Now(),

		Strategy:                   models.Strategy(dca.Strategy),
		BaseOrderSize:              dca.BaseOrderSize,
		SafetyOrderSize:            dca.SafetyOrderSize,
		StartOrderType:             dca.StartOrderType,
		DealStartCondition:         dca.DealStartCondition,
		TargetProfitPercentage:     dca.TargetProfitPercentage,
		MaxSafetyTradesCount:       dca.MaxSafetyTradesCount,
		MaxActiveSafetyTradesCount: dca.MaxActiveSafetyTradesCount,
		PriceDeviationPercentage:   dca.PriceDeviationPercentage,
		SafetyOrderVolumeScale:     dca.SafetyOrderVolumeScale,
		SafetyOrderStepScale:       dca.SafetyOrderStepScale,
	}
	if err := e.repo.SaveDeal(ctx, deal); err != nil {
		return nil, fmt.Errorf("сохранение сделки: %w", err)
	}

	for _, po := range planned {
		order := models.Order{
			ID:            uuid.NewString(),
			DealID:        deal.ID,
			Sequence:      po.Sequence,
			Side:          models.OrderSideBuy,
			Status:        models.OrderStatusCreated,
			Price:         po.Price,
			Quantity:      po.Quantity,
			Volume:        po.Volume,
			Deviation:     po.Deviation,
			AveragePrice:  po.AveragePrice,
			ExitPrice:     po.ExitPrice,
			TotalQuantity: po.TotalQuantity,
		}
		if err := e.repo.SaveOrder(ctx, &order); err != nil {
			return nil, fmt.Errorf("сохранение ордера %d: %w", po.Sequence, err)
		}
		deal.Orders = append(deal.Orders, order)
	}

	e.logEntry().WithFields(map[string]interface{}{
		"deal_id": deal.ID,
		"orders":  len(deal.Orders),
	}).Info("Сделка создана.")
	return deal, nil
}

func (e *Engine) activateDeal(ctx context.Context, deal *models.Deal) error {
	deal.Status = models.DealStatusActive
	if err := e.repo.SaveDeal(ctx, deal); err != nil {
		return fmt.Errorf("активация сделки: %w", err)
	}
	e.placePendingOrders(ctx, deal)
	return nil
}

// placePendingOrders отправляет CREATED ордера без биржевого id по
// возрастанию sequence: сначала buy сетка, затем не ушедший take-profit.
// Ошибка отправки одного ордера не мешает следующим: частично отправленная
// сделка — штатное промежуточное состояние, добьёт следующий проход.
func (e *Engine) placePendingOrders(ctx context.Context, deal *models.Deal) {
	for i := range deal.Orders {
		o := &deal.Orders[i]
		if o.Status != models.OrderStatusCreated || o.Submitted() {
			continue
		}
		e.submitOrder(ctx, o)
	}
}

// continueDeal доводит активную сделку до согласованного состояния:
// доотправляет не ушедшие на биржу ордера и перепроверяет NEW ордера
// через ту же машину состояний, что и события WS.
func (e *Engine) continueDeal(ctx context.Context, deal *models.Deal) {
	e.placePendingOrders(ctx, deal)

	for i := 0; i < len(deal.Orders); i++ {
		o := &deal.Orders[i]
		if o.Status != models.OrderStatusNew || !o.Submitted() {
			continue
		}
		detail, err := e.client.GetOrder(ctx, deal.Pair, o.ExchangeOrderID)
		if err != nil {
			e.logEntry().WithError(err).WithField("order_id", o.ID).Warn("Не удалось перепроверить ордер.")
			continue
		}
		if detail.Status == o.Status {
			continue
		}
		if !models.KnownStatus(detail.Status) {
			e.logEntry().WithFields(map[string]interface{}{
				"order_id": o.ID,
				"status":   detail.Status,
			}).Error("Неизвестный статус ордера, пропуск.")
			continue
		}
		if o.Side == models.OrderSideBuy {
			e.applyBuyStatus(ctx, deal, o, detail.Status, o.ExchangeOrderID, detail.Price)
		} else {
			e.applySellStatus(ctx, deal, o, detail.Status, o.ExchangeOrderID, detail.Price)
		}
		if deal.Status != models.DealStatusActive {
			return
		}
	}
}

func (e *Engine) closeDeal(ctx context.Context, dealID int64) error {
	deal, err := e.repo.FindDeal(ctx, dealID)
	if err != nil {
		return fmt.Errorf("поиск сделки %d: %w", dealID, err)
	}
	if deal == nil {
		e.logEntry().WithField("deal_id", dealID).Error("Сделка не найдена.")
		return nil
	}
	if deal.Status == models.DealStatusClosed {
		return nil
	}

	for i := range deal.Orders {
		o := &deal.Orders[i]
		if o.Side == models.OrderSideBuy && !o.Status.Terminal() && o.Submitted() {
			e.cancelOrder(ctx, o)
		}
	}

	// Подтверждение отмены приходит асинхронно: ждём, пока ни один buy не
	// останется в NEW, перечитывая сделку и опрашивая биржу напрямую.
	deadline := time.Now().Add(e.closePollMax)
	for e.hasNewBuyOrder(deal) {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: сделка %d", ErrCloseTimeout, dealID)
		}
		e.syncPendingBuyOrders(ctx, deal)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.closePollInterval):
		}
		deal, err = e.repo.FindDeal(ctx, dealID)
		if err != nil {
			return fmt.Errorf("поиск сделки %d: %w", dealID, err)
		}
		if deal == nil {
			e.logEntry().WithField("deal_id", dealID).Error("Сделка не найдена.")
			return nil
		}
	}
	if deal.Status == models.DealStatusClosed {
		return nil
	}

	profit := decimal.Zero
	for i := range deal.Orders {
		o := &deal.Orders[i]
		if o.Status != models.OrderStatusFilled || !o.FilledPrice.Valid {
			continue
		}
		volume := o.FilledPrice.Decimal.Mul(o.Quantity)
		if o.Side == models.OrderSideSell {
			profit = profit.Add(volume)
		} else {
			profit = profit.Sub(volume)
		}
	}

	now := time.Now()
	deal.Status = models.DealStatusClosed
	deal.EndAt = &now
	deal.Profit = decimal.NewNullDecimal(profit)
	if err := e.repo.SaveDeal(ctx, deal); err != nil {
		return fmt.Errorf("сохранение сделки %d: %w", dealID, err)
	}

	e.logEntry().WithFields(map[string]interface{}{
		"deal_id": deal.ID,
		"profit":  profit.String(),
	}).Info("Сделка закрыта.")
	return nil
}

func (e *Engine) hasNewBuyOrder(deal *models.Deal) bool {
	for i := range deal.Orders {
		o := &deal.Orders[i]
		if o.Side == models.OrderSideBuy && o.Status == models.OrderStatusNew {
			return true
		}
	}
	return false
}

// syncPendingBuyOrders копирует статусы NEW buy ордеров с биржи без побочных
// эффектов машины состояний: внутри closeDeal интересует только факт
// подтверждения отмены или исполнения.
func (e *Engine) syncPendingBuyOrders(ctx context.Context, deal *models.Deal) {
	for i := range deal.Orders {
		o := &deal.Orders[i]
		if o.Side != models.OrderSideBuy || o.Status != models.OrderStatusNew || !o.Submitted() {
			continue
		}
		detail, err := e.client.GetOrder(ctx, deal.Pair, o.ExchangeOrderID)
		if err != nil {
			e.logEntry().WithError(err).WithField("order_id", o.ID).Warn("Не удалось перепроверить ордер.")
			continue
		}
		if detail.Status == o.Status || !models.KnownStatus(detail.Status) {
			continue
		}
		o.Status = detail.Status
		if detail.Status == models.OrderStatusFilled {
			o.FilledPrice = decimal.NewNullDecimal(detail.Price)
		}
		if err := e.repo.SaveOrder(ctx, o); err != nil {
			e.logEntry().WithError(err).WithField("order_id", o.ID).Error("Не удалось сохранить ордер.")
		}
	}
}
