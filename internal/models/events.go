package models

import "time"

// События шины. Публикуются мостами брокера и планировщиком,
// потребляются координатором и триггерами.

// QuoteEvent уведомляет об обновлении котировки инструмента
type QuoteEvent struct {
	Symbol string
	Quote  Quote
}

// OrderStatusEvent уведомляет о смене статуса ордера шлюзом.
// События по одному ключу применяются в порядке поступления.
type OrderStatusEvent struct {
	Key       string
	Status    string
	FilledQty float64
	AvgPrice  float64
}

// OrderRejectEvent уведомляет об отклонении ордера шлюзом
type OrderRejectEvent struct {
	Key    string
	Reason string
}

// CancelConfirmedEvent уведомляет о подтверждённой отмене ордера
type CancelConfirmedEvent struct {
	Key string
}

// TickEvent периодический тик планировщика
type TickEvent struct {
	At  time.Time
	Seq uint64
}
