package models

import "time"

// Order представляет один лимитный ордер одной ноги парной сделки.
// Создаётся координатором, после отправки мутируется только
// статусными событиями шлюза. Замена при восстановлении всегда
// порождает новый Order с новым ключом.
type Order struct {
	Key          string    `json:"key"`                     // уникальный ключ (uuid)
	Ref          string    `json:"ref"`                     // человекочитаемая ссылка: pair(<a>, b)
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`                    // buy, sell
	Role         string    `json:"role"`                    // leading, guard, close, chase
	Quantity     float64   `json:"quantity"`
	LimitPrice   float64   `json:"limit_price"`
	FilledQty    float64   `json:"filled_qty"`
	AvgFillPrice float64   `json:"avg_fill_price"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Статусы ордера
const (
	OrderStatusPendingSubmit   = "pending_submit"
	OrderStatusSubmitted       = "submitted"
	OrderStatusPartiallyFilled = "partially_filled"
	OrderStatusFilled          = "filled"
	OrderStatusCancelled       = "cancelled"
	OrderStatusRejected        = "rejected"
)

// Роли ордеров внутри парной сделки.
// Роль фиксируется явно при создании и не зависит от порядка заполнения.
const (
	RoleLeading = "leading" // ведущая нога входа
	RoleGuard   = "guard"   // страхующая нога входа
	RoleClose   = "close"   // закрытие экспозиции при восстановлении
	RoleChase   = "chase"   // перевыставление по агрессивной котировке
)

// IsActive сообщает, можно ли ещё отменить ордер
func (o *Order) IsActive() bool {
	switch o.Status {
	case OrderStatusPendingSubmit, OrderStatusSubmitted, OrderStatusPartiallyFilled:
		return true
	}
	return false
}

// IsTerminal сообщает, достиг ли ордер конечного статуса
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// SignedFilled возвращает заполненное количество со знаком:
// покупки положительные, продажи отрицательные
func (o *Order) SignedFilled() float64 {
	if o.Side == SideSell {
		return -o.FilledQty
	}
	return o.FilledQty
}
