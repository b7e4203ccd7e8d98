package models

import "time"

// FillRecord представляет запись об исполнении для сохранения в БД.
// Пишется как write-only sink, движком никогда не читается обратно.
type FillRecord struct {
	ID        int        `json:"id" db:"id"`
	PairID    string     `json:"pair_id" db:"pair_id"`
	OrderKey  string     `json:"order_key" db:"order_key"`
	OrderRef  string     `json:"order_ref" db:"order_ref"`
	Symbol    string     `json:"symbol" db:"symbol"`
	Side      string     `json:"side" db:"side"`
	Role      string     `json:"role" db:"role"`
	Quantity  float64    `json:"quantity" db:"quantity"`
	Price     float64    `json:"price" db:"price"`
	TradedAt  time.Time  `json:"traded_at" db:"traded_at"`
	CreatedAt *time.Time `json:"created_at,omitempty" db:"created_at"`
}
