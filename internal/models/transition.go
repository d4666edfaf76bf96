package models

// KnownStatus сообщает, входит ли статус из отчёта биржи в модель;
// незнакомое значение — это нарушение протокола, а не новый статус.
func KnownStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusCreated, OrderStatusNew, OrderStatusPartiallyFilled,
		OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// Transition — единственная точка смены статуса buy ордера. Возвращает false,
// если переход по таблице запрещён: дубликат NEW и повторный FILLED по уже
// терминальному ордеру обязаны быть no-op.
func (o *Order) Transition(to OrderStatus) bool {
	switch to {
	case OrderStatusNew:
		if o.Status != OrderStatusCreated && o.Status != OrderStatusNew {
			return false
		}
	case OrderStatusFilled:
		if o.Status != OrderStatusCreated && o.Status != OrderStatusNew && o.Status != OrderStatusPartiallyFilled {
			return false
		}
	case OrderStatusPartiallyFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
	default:
		return false
	}
	o.Status = to
	return true
}
