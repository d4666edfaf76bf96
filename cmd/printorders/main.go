package main

import (
	"context"
	"os"
	"time"

	"dcabot/internal/config"
	"dcabot/internal/engine"
	"dcabot/internal/exchange/binance"
	"dcabot/internal/logger"
	"dcabot/internal/models"
)

// Печатает планируемую сетку ордеров по текущей цене, ничего не размещая.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logger.New(logger.Config{
		Level:  cfg.Runtime.LogLevel,
		Format: cfg.Runtime.LogFormat,
	})

	client := binance.New(cfg.Exchange.BaseUrl, cfg.Exchange.WSUrl, cfg.Exchange.ApiKey, cfg.Exchange.Secret, cfg.Exchange.PaperTrading, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filters, err := client.GetFilters(ctx, cfg.DCA.Pair)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось получить фильтры инструмента.")
	}

	price, err := client.GetPrice(ctx, cfg.DCA.Pair)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось получить цену.")
	}

	planned, err := engine.ComputeLadder(price, cfg.DCA, filters)
	if err != nil {
		logger.WithError(err).Fatal("Не удалось рассчитать сетку ордеров.")
	}

	models.FprintPlannedOrders(os.Stdout, planned)
}
