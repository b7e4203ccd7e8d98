package models

import "time"

// PairRequest представляет запрос на постановку парной сделки
type PairRequest struct {
	InstrumentA  Instrument    `json:"instrument_a"`
	InstrumentB  Instrument    `json:"instrument_b"`
	TargetSpread float64       `json:"target_spread"`
	Direction    string        `json:"direction"` // BUY, SELL
	Quantity     float64       `json:"quantity"`
	Tolerance    time.Duration `json:"tolerance"` // окно ожидания заполнения
}

// PairStatus представляет снимок состояния парной сделки для внешних потребителей
type PairStatus struct {
	ID           string     `json:"id"`
	State        string     `json:"state"`
	Direction    string     `json:"direction"`
	SymbolA      string     `json:"symbol_a"`
	SymbolB      string     `json:"symbol_b"`
	TargetSpread float64    `json:"target_spread"`
	Quantity     float64    `json:"quantity"`
	NetExposure  float64    `json:"net_exposure"`
	Pnl          float64    `json:"pnl"`
	InitTime     *time.Time `json:"init_time,omitempty"`
	Orders       []Order    `json:"orders,omitempty"`
}

// Состояния парной сделки (state machine)
const (
	PairStateCreated        = "CREATED"         // триггер зарегистрирован, ордеров нет
	PairStateAwaitingFill   = "AWAITING_FILL"   // обе ноги входа отправлены
	PairStateFullyFilled    = "FULLY_FILLED"    // обе ноги заполнены полностью
	PairStatePartialExposed = "PARTIAL_EXPOSED" // окно ожидания истекло при неполном заполнении
	PairStateRecovering     = "RECOVERING"      // протокол восстановления активен
	PairStateFinished       = "FINISHED"        // терминальное состояние
)
