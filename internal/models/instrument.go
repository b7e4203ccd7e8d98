package models

// Instrument представляет фьючерсный инструмент с метаданными контракта.
// После резолва через брокера структура неизменяема.
type Instrument struct {
	Symbol     string  `json:"symbol"`               // SR2601, rb2605 и т.д.
	Exchange   string  `json:"exchange"`             // биржа листинга (CZCE, SHFE, ...)
	Multiplier float64 `json:"multiplier"`           // множитель контракта для PNL
	TickSize   float64 `json:"tick_size"`            // минимальный шаг цены
}

// Направления парной сделки (покупка/продажа спреда)
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// Стороны ордера
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// OppositeSide возвращает противоположную сторону ордера
func OppositeSide(side string) string {
	if side == SideBuy {
		return SideSell
	}
	return SideBuy
}
