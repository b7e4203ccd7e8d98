package models

import "time"

// Quote представляет лучшие bid/ask по инструменту.
// Обновляется только потоком маркет-даты; читатели получают копию.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	BidVolume float64   `json:"bid_volume"`
	AskVolume float64   `json:"ask_volume"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasBothSides сообщает, получены ли обе стороны котировки
func (q Quote) HasBothSides() bool {
	return q.Bid > 0 && q.Ask > 0
}
