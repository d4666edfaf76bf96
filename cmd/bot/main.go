package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"

	"dcabot/internal/config"
	"dcabot/internal/engine"
	"dcabot/internal/exchange/binance"
	"dcabot/internal/logger"
	"dcabot/internal/models"
	gormstore "dcabot/internal/storage/gorm"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logger.New(logger.Config{
		Level:      cfg.Runtime.LogLevel,
		Format:     cfg.Runtime.LogFormat,
		Output:     cfg.Runtime.LogFile,
		MaxSize:    cfg.Runtime.LogMaxSize,
		MaxBackups: cfg.Runtime.LogMaxBackups,
		MaxAge:     cfg.Runtime.LogMaxAge,
		Compress:   cfg.Runtime.LogCompress,
	})

	logger.Info("Бот запущен.")
	if cfg.Exchange.PaperTrading {
		logger.Warn("Включён режим бумажной торговли, ордера уходят на testnet.")
	}

	store, err := gormstore.Open(cfg.Database.DSN)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось подключиться к БД.")
	}
	if err := store.Migrate(); err != nil {
		logger.WithError(err).Fatal("Не удалось выполнить миграции.")
	}

	client := binance.New(cfg.Exchange.BaseUrl, cfg.Exchange.WSUrl, cfg.Exchange.ApiKey, cfg.Exchange.Secret, cfg.Exchange.PaperTrading, logger)
	eng := engine.New(cfg, client, store, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := eng.Start(ctx); err != nil {
			logger.WithError(err).Fatal("\"Двигатель\" завершился с ошибкой.")
		}
	}()

	stream := binance.NewStream(client, logger)
	if err := stream.Connect(ctx); err != nil {
		logger.WithError(err).Fatal("Не удалось подключиться к потоку биржи.")
	}
	defer stream.Close()

	go func() {
		for report := range stream.Events() {
			if err := eng.ApplyExecutionReport(ctx, report); err != nil {
				logger.WithError(err).Warn("Не удалось обработать отчёт биржи.")
			}
		}
	}()

	var lastDealID atomic.Int64
	reconcile := func() {
		deal, err := eng.StartOrContinueDeal(ctx)
		if err != nil {
			if errors.Is(err, engine.ErrInsufficientFunds) {
				logger.WithError(err).Warn("Недостаточно средств для открытия сделки.")
				return
			}
			logger.WithError(err).Error("Не удалось открыть или продолжить сделку.")
			return
		}
		if deal != nil && lastDealID.Swap(deal.ID) != deal.ID {
			models.FprintDealTable(os.Stdout, deal)
		}
	}

	reconcile()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Runtime.ReconcileSchedule, reconcile); err != nil {
		logger.WithError(err).Fatal("Некорректное расписание сверки.")
	}
	scheduler.Start()
	defer scheduler.Stop()

	<-sigCh

	cancel()

	logger.Info("Бот остановлен.")
}
