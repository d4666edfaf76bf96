package engine

import "errors"

var (
	// ErrInsufficientFunds: суммарный объём сетки больше свободного остатка
	// котируемого актива. Сделка не создаётся, повтор на следующем проходе.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCloseTimeout: подтверждение отмены buy ордеров не пришло за
	// отведённое время. Закрытие можно повторить, очередь не зависает.
	ErrCloseTimeout = errors.New("close deal timeout")
)
