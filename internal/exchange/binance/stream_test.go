package binance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dcabot/internal/logger"
)

func TestStreamCloseUnblocksPendingSend(t *testing.T) {
	log := logger.New(logger.Config{Level: "panic", Format: "text"})
	s := NewStream(New("", "", "", "", true, log), log)

	msg := streamEvent{
		EventType:     "executionReport",
		Symbol:        "BTCUSDT",
		ClientOrderID: "abc",
		Side:          "BUY",
		Status:        "NEW",
		Price:         "100",
		Quantity:      "1",
	}

	// забиваем буфер канала событий: подписчик ничего не читает
	for i := 0; i < cap(s.events); i++ {
		s.handleExecutionReport(msg)
	}

	done := make(chan struct{})
	go func() {
		s.handleExecutionReport(msg)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("отправка события не завершилась после Close")
	}
}

func TestStreamEventFieldMapping(t *testing.T) {
	log := logger.New(logger.Config{Level: "panic", Format: "text"})
	s := NewStream(New("", "", "", "", true, log), log)

	// при отмене исходный клиентский id лежит в C
	s.handleExecutionReport(streamEvent{
		EventType:         "executionReport",
		Symbol:            "BTCUSDT",
		ClientOrderID:     "cancel-req-id",
		OrigClientOrderID: "original-id",
		Side:              "BUY",
		Status:            "CANCELED",
		ExchangeOrderID:   42,
		Price:             "98.5",
		Quantity:          "0.5",
	})

	select {
	case report := <-s.Events():
		require.Equal(t, "original-id", report.ClientOrderID)
		require.Equal(t, int64(42), report.ExchangeOrderID)
		require.Equal(t, "98.5", report.Price.String())
	case <-time.After(time.Second):
		t.Fatal("событие не доставлено")
	}
}
