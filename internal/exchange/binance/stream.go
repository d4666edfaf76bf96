package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"dcabot/internal/exchange"
	"dcabot/internal/logger"
	"dcabot/internal/models"
)

// Stream — пользовательский поток данных Binance: listenKey + WS
// соединение с периодическим продлением ключа.
type Stream struct {
	client       *Client
	conn         *websocket.Conn
	events       chan exchange.ExecutionReport
	stopCh       chan struct{}
	stopOnce     sync.Once
	listenKey    string
	reconnectMin time.Duration
	reconnectMax time.Duration
	log          *logger.Logger
}

func NewStream(client *Client, log *logger.Logger) *Stream {
	return &Stream{
		client:       client,
		events:       make(chan exchange.ExecutionReport, 100),
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
		log:          log,
	}
}

func (s *Stream) logEntry() *logrus.Entry {
	return s.log.WithComponent("binance_ws")
}

func (s *Stream) Connect(ctx context.Context) error {
	if err := s.openListenKey(ctx); err != nil {
		return err
	}

	wsURL := s.client.wsURL + "/ws/" + s.listenKey
	s.logEntry().WithField("url", s.client.wsURL).Info("Подключение к WS.")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}

	s.conn = conn
	s.conn.SetReadLimit(2 << 20)

	s.logEntry().Info("WS соединение установлено.")

	go s.readLoop()
	go s.keepAliveLoop()

	return nil
}

func (s *Stream) Events() <-chan exchange.ExecutionReport {
	return s.events
}

func (s *Stream) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Stream) openListenKey(ctx context.Context) error {
	var resp struct {
		ListenKey string `json:"listenKey"`
	}
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v3/userDataStream", nil, false, &resp); err != nil {
		return fmt.Errorf("Не удалось получить listenKey: %w", err)
	}
	if resp.ListenKey == "" {
		return fmt.Errorf("Биржа вернула пустой listenKey")
	}
	s.listenKey = resp.ListenKey
	return nil
}

// keepAliveLoop продлевает listenKey: Binance закрывает поток через 60
// минут без продления.
func (s *Stream) keepAliveLoop() {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			params := url.Values{}
			params.Set("listenKey", s.listenKey)
			err := s.client.doRequest(context.Background(), http.MethodPut, "/api/v3/userDataStream", params, false, nil)
			if err != nil {
				s.logEntry().WithError(err).Warn("Не удалось продлить listenKey.")
			}
		}
	}
}

type streamEvent struct {
	EventType         string `json:"e"`
	Symbol            string `json:"s"`
	ClientOrderID     string `json:"c"`
	OrigClientOrderID string `json:"C"`
	Side              string `json:"S"`
	Status            string `json:"X"`
	ExchangeOrderID   int64  `json:"i"`
	Price             string `json:"p"`
	Quantity          string `json:"q"`
}

func (s *Stream) readLoop() {
	defer close(s.events)

	s.logEntry().Debug("readLoop запущен.")

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logEntry().WithError(err).Warn("Ошибка чтения WS.")

			if !s.reconnect() {
				return
			}
			continue
		}

		var msg streamEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
			continue
		}

		if msg.EventType != "executionReport" {
			continue
		}

		s.handleExecutionReport(msg)
	}
}

func (s *Stream) handleExecutionReport(msg streamEvent) {
	s.logEntry().WithFields(map[string]interface{}{
		"symbol":          msg.Symbol,
		"side":            msg.Side,
		"status":          msg.Status,
		"client_order_id": msg.ClientOrderID,
		"order_id":        msg.ExchangeOrderID,
		"price":           msg.Price,
		"qty":             msg.Quantity,
	}).Debug("executionReport")

	// при отмене Binance кладёт исходный клиентский id в поле C, а в c —
	// id запроса на отмену
	clientOrderID := msg.ClientOrderID
	if msg.OrigClientOrderID != "" {
		clientOrderID = msg.OrigClientOrderID
	}

	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		s.logEntry().WithError(err).Warn("Некорректная цена в executionReport.")
		return
	}
	qty, err := decimal.NewFromString(msg.Quantity)
	if err != nil {
		s.logEntry().WithError(err).Warn("Некорректное количество в executionReport.")
		return
	}

	report := exchange.ExecutionReport{
		ClientOrderID:   clientOrderID,
		ExchangeOrderID: msg.ExchangeOrderID,
		Symbol:          msg.Symbol,
		Side:            models.OrderSide(msg.Side),
		Status:          models.OrderStatus(msg.Status),
		Price:           price,
		Quantity:        qty,
	}
	select {
	case s.events <- report:
	case <-s.stopCh:
	}
}

func (s *Stream) reconnect() bool {
	backoff := s.reconnectMin

	for {
		select {
		case <-s.stopCh:
			return false
		default:
		}

		s.logEntry().Info("Попытка переподключения к WS.")

		time.Sleep(backoff)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.openListenKey(ctx)
		cancel()
		if err != nil {
			s.logEntry().WithError(err).Warn("Не удалось обновить listenKey.")
			backoff = s.nextBackoff(backoff)
			continue
		}

		conn, _, err := websocket.DefaultDialer.Dial(s.client.wsURL+"/ws/"+s.listenKey, nil)
		if err != nil {
			s.logEntry().WithError(err).Warn("Не удалось переподключиться к WS.")
			backoff = s.nextBackoff(backoff)
			continue
		}

		if s.conn != nil {
			_ = s.conn.Close()
		}

		s.conn = conn
		s.conn.SetReadLimit(2 << 20)

		s.logEntry().Info("WS переподключён.")
		return true
	}
}

func (s *Stream) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > s.reconnectMax {
		return s.reconnectMax
	}
	return next
}
