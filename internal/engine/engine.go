package engine

import (
	"context"
	"strings"
	"time"

	"dcabot/internal/config"
	"dcabot/internal/exchange"
	"dcabot/internal/logger"
	"dcabot/internal/models"
	"dcabot/internal/storage"
)

type job struct {
	fn   func(ctx context.Context) error
	done chan error
}

// Engine владеет жизненным циклом сделки. Все мутации сделки и её ордеров
// проходят через одну очередь с единственным воркером: события биржи и
// периодическая сверка не перемежаются на уровне read-modify-write.
type Engine struct {
	cfg    *config.Config
	client exchange.Client
	repo   storage.Repository
	log    *logger.Logger

	filters exchange.Filters
	jobs    chan job

	closePollInterval time.Duration
	closePollMax      time.Duration
}

func New(cfg *config.Config, client exchange.Client, repo storage.Repository, log *logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: client,
		repo:   repo,
		log:    log,

		jobs:              make(chan job, 64),
		closePollInterval: 2 * time.Second,
		closePollMax:      60 * time.Second,
	}
}

// Start получает фильтры торговой пары и запускает воркер очереди.
// Блокируется до отмены контекста.
func (e *Engine) Start(ctx context.Context) error {
	filters, err := e.withRetryFilters(ctx, e.cfg.DCA.Pair)
	if err != nil {
		return err
	}
	e.filters = filters
	e.logEntry().WithFields(map[string]interface{}{
		"tick_size":   filters.Price.Tick.String(),
		"lot_step":    filters.Lot.Step.String(),
		"base_asset":  filters.BaseAsset,
		"quote_asset": filters.QuoteAsset,
	}).Info("Получены ограничения торговой пары.")

	e.run(ctx)
	return nil
}

func (e *Engine) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-e.jobs:
			j.done <- j.fn(ctx)
		}
	}
}

// do ставит работу в очередь и ждёт завершения. Работа выполняется с
// контекстом воркера: отмена вызывающего не прерывает уже начатую мутацию.
func (e *Engine) do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case e.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartOrContinueDeal — единая идемпотентная точка входа: вызывается по
// расписанию и после каждого побочного эффекта отправки ордеров.
func (e *Engine) StartOrContinueDeal(ctx context.Context) (*models.Deal, error) {
	var deal *models.Deal
	err := e.do(ctx, func(ctx context.Context) error {
		var err error
		deal, err = e.startOrContinueDeal(ctx)
		return err
	})
	return deal, err
}

// ApplyExecutionReport проводит отчёт биржи через машину состояний.
func (e *Engine) ApplyExecutionReport(ctx context.Context, report exchange.ExecutionReport) error {
	return e.do(ctx, func(ctx context.Context) error {
		return e.applyExecutionReport(ctx, report)
	})
}

// CloseDeal закрывает сделку: отменяет невыкупленные buy ордера, ждёт
// подтверждений и фиксирует прибыль.
func (e *Engine) CloseDeal(ctx context.Context, dealID int64) error {
	return e.do(ctx, func(ctx context.Context) error {
		return e.closeDeal(ctx, dealID)
	})
}

func (e *Engine) withRetryFilters(ctx context.Context, symbol string) (exchange.Filters, error) {
	var lastErr error
	backoff := 1 * time.Second
	for i := 0; i < 5; i++ {
		filters, err := e.client.GetFilters(ctx, symbol)
		if err == nil {
			return filters, nil
		}
		lastErr = err
		wait := backoff
		if isRateLimitError(err) {
			wait = backoff * 4
		}
		e.logEntry().WithError(lastErr).Warn("Ошибка, повторяем запрос.")
		select {
		case <-ctx.Done():
			return exchange.Filters{}, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return exchange.Filters{}, lastErr
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "-1003")
}
