package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ajmal017/dailyScript/internal/engine"
	"github.com/ajmal017/dailyScript/internal/models"
)

// TradeEngine операции координатора, нужные HTTP слою
type TradeEngine interface {
	PlacePairTrade(ctx context.Context, req models.PairRequest) (*engine.PairOrder, error)
	CancelPairTrade(id string) error
	RunningPairs() []models.PairStatus
	FinishedPairs() []models.PairStatus
	Status(id string) (models.PairStatus, error)
}

// FillStore отчётные выборки по сохранённым исполнениям
type FillStore interface {
	GetByPairID(ctx context.Context, pairID string) ([]*models.FillRecord, error)
	GetRecent(ctx context.Context, limit int) ([]*models.FillRecord, error)
}

// PairHandler управление парными сделками
//
// Endpoints:
// - POST /api/v1/pairs              - постановка парной сделки
// - GET /api/v1/pairs/running       - активные сделки
// - GET /api/v1/pairs/finished      - завершённые сделки
// - GET /api/v1/pairs/{id}          - снимок конкретной сделки
// - DELETE /api/v1/pairs/{id}       - принудительное завершение
// - GET /api/v1/pairs/{id}/fills    - исполнения сделки
type PairHandler struct {
	engine TradeEngine
	fills  FillStore // может быть nil если персистентность выключена
}

// NewPairHandler создает новый PairHandler с внедрением зависимостей
func NewPairHandler(eng TradeEngine, fills FillStore) *PairHandler {
	return &PairHandler{
		engine: eng,
		fills:  fills,
	}
}

// InstrumentPayload нога пары в запросе постановки
type InstrumentPayload struct {
	Symbol     string  `json:"symbol"`
	Exchange   string  `json:"exchange,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	TickSize   float64 `json:"tick_size,omitempty"`
}

// PlacePairRequest структура запроса на постановку парной сделки
type PlacePairRequest struct {
	InstrumentA  InstrumentPayload `json:"instrument_a"`
	InstrumentB  InstrumentPayload `json:"instrument_b"`
	TargetSpread float64           `json:"target_spread"`
	Direction    string            `json:"direction"` // BUY или SELL
	Quantity     float64           `json:"quantity"`
	ToleranceSec float64           `json:"tolerance_sec,omitempty"`
}

// PlacePairResponse ответ на постановку
type PlacePairResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

func (p InstrumentPayload) toModel() models.Instrument {
	return models.Instrument{
		Symbol:     p.Symbol,
		Exchange:   p.Exchange,
		Multiplier: p.Multiplier,
		TickSize:   p.TickSize,
	}
}

// PlacePair ставит парную сделку
// POST /api/v1/pairs
//
// Request Body:
//
//	{
//	  "instrument_a": {"symbol": "SR601", "exchange": "CZCE", "multiplier": 10, "tick_size": 1},
//	  "instrument_b": {"symbol": "SR605", "exchange": "CZCE", "multiplier": 10, "tick_size": 1},
//	  "target_spread": 80,
//	  "direction": "BUY",
//	  "quantity": 2,
//	  "tolerance_sec": 5
//	}
//
// Response:
// - 201 Created: сделка поставлена, триггер зарегистрирован
// - 400 Bad Request: невалидные параметры
func (h *PairHandler) PlacePair(w http.ResponseWriter, r *http.Request) {
	var req PlacePairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	pair, err := h.engine.PlacePairTrade(r.Context(), models.PairRequest{
		InstrumentA:  req.InstrumentA.toModel(),
		InstrumentB:  req.InstrumentB.toModel(),
		TargetSpread: req.TargetSpread,
		Direction:    req.Direction,
		Quantity:     req.Quantity,
		Tolerance:    time.Duration(req.ToleranceSec * float64(time.Second)),
	})
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, PlacePairResponse{
		ID:    pair.ID(),
		State: pair.State(),
	})
}

// GetRunning возвращает активные сделки в порядке постановки
// GET /api/v1/pairs/running
func (h *PairHandler) GetRunning(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.RunningPairs())
}

// GetFinished возвращает завершённые сделки в порядке завершения
// GET /api/v1/pairs/finished
func (h *PairHandler) GetFinished(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.FinishedPairs())
}

// GetPair возвращает снимок сделки: состояние, экспозицию, pnl и ордера
// GET /api/v1/pairs/{id}
//
// Response:
// - 200 OK: снимок сделки
// - 404 Not Found: сделка не найдена
func (h *PairHandler) GetPair(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	status, err := h.engine.Status(id)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// CancelPair принудительно завершает сделку
// DELETE /api/v1/pairs/{id}
//
// Для сделки без ордеров снимается триггер; для сделки с ордерами
// немедленно запускается восстановление, не дожидаясь окна.
//
// Response:
// - 202 Accepted: завершение запущено
// - 404 Not Found: сделка не найдена
func (h *PairHandler) CancelPair(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.engine.CancelPairTrade(id); err != nil {
		h.handleEngineError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, SuccessResponse{Message: "cancellation initiated"})
}

// GetPairFills возвращает сохранённые исполнения сделки
// GET /api/v1/pairs/{id}/fills
func (h *PairHandler) GetPairFills(w http.ResponseWriter, r *http.Request) {
	if h.fills == nil {
		respondWithError(w, http.StatusNotImplemented, "no_persistence", "Fill persistence is disabled", "")
		return
	}

	id := mux.Vars(r)["id"]
	fills, err := h.fills.GetByPairID(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Failed to load fills", err.Error())
		return
	}
	if fills == nil {
		fills = []*models.FillRecord{}
	}
	respondWithJSON(w, http.StatusOK, fills)
}

// handleEngineError транслирует ошибки движка в HTTP статусы
func (h *PairHandler) handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownPair):
		respondWithError(w, http.StatusNotFound, "not_found", "Pair order not found", err.Error())
	case errors.Is(err, engine.ErrInvalidDirection),
		errors.Is(err, engine.ErrInvalidQuantity),
		errors.Is(err, engine.ErrInvalidInstruments):
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid pair trade request", err.Error())
	case errors.Is(err, engine.ErrNotStarted):
		respondWithError(w, http.StatusServiceUnavailable, "not_started", "Engine is not running", err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Unexpected error", err.Error())
	}
}
