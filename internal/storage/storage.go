package storage

import (
	"context"

	"dcabot/internal/models"
)

// Репозитории возвращают (nil, nil), если записи нет: отсутствие сделки или
// ордера — штатная ситуация, а не ошибка хранилища.

type DealRepository interface {
	SaveDeal(ctx context.Context, deal *models.Deal) error
	FindActiveDeal(ctx context.Context, pair string) (*models.Deal, error)
	FindDeal(ctx context.Context, id int64) (*models.Deal, error)
}

type OrderRepository interface {
	SaveOrder(ctx context.Context, order *models.Order) error
	// FindOrder ищет по клиентскому идентификатору ордера.
	FindOrder(ctx context.Context, id string) (*models.Order, error)
}

type Repository interface {
	DealRepository
	OrderRepository
}
