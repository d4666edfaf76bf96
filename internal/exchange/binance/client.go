package binance

import (
	"net/http"
	"time"

	"dcabot/internal/logger"
)

const (
	mainnetBaseURL = "https://api.binance.com"
	mainnetWSURL   = "wss://stream.binance.com:9443"
	testnetBaseURL = "https://testnet.binance.vision"
	testnetWSURL   = "wss://testnet.binance.vision"
)

type Client struct {
	baseURL    string
	wsURL      string
	apiKey     string
	secret     string
	httpClient *http.Client
	log        *logger.Logger
}

// New создаёт REST клиент Binance. Пустые URL заменяются боевыми либо
// тестовыми, если включён режим бумажной торговли.
func New(baseURL, wsURL, apiKey, secret string, paperTrading bool, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = mainnetBaseURL
		if paperTrading {
			baseURL = testnetBaseURL
		}
	}
	if wsURL == "" {
		wsURL = mainnetWSURL
		if paperTrading {
			wsURL = testnetWSURL
		}
	}
	return &Client{
		baseURL: baseURL,
		wsURL:   wsURL,
		apiKey:  apiKey,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}
