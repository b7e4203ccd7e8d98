package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// Ошибки парной сделки
var (
	ErrFinishedPair      = errors.New("pair order is finished and read-only")
	ErrUnknownOrderKey   = errors.New("order key does not belong to this pair order")
	ErrActiveOrderExists = errors.New("instrument already has an active order")
	ErrInvalidTransition = errors.New("invalid pair state transition")
)

// QuoteSource минимальный read-only доступ к таблице котировок
type QuoteSource interface {
	GetQuote(symbol string) (models.Quote, bool)
}

// PairOrder агрегат одной парной сделки: две ноги входа плюс ордера,
// выпущенные при восстановлении. Владеет учётом заполнений; экспозиция
// и PNL считаются по требованию и никогда не кешируются.
//
// Первичные ордера и ордера восстановления хранятся раздельно, обход
// всегда идёт по объединённому снимку в порядке вставки (сначала
// первичные). Ключи никогда не переиспользуются: замена ордера
// порождает новый ключ в карте extra, полная история сохраняется.
type PairOrder struct {
	mu sync.RWMutex

	id           string
	instA        models.Instrument
	instB        models.Instrument
	direction    string // BUY, SELL
	targetSpread float64
	quantity     float64
	tolerance    time.Duration

	createdAt time.Time
	initTime  *time.Time // выставляется ровно один раз

	state string

	primary     map[string]*models.Order
	primaryKeys []string // порядок вставки
	extra       map[string]*models.Order
	extraKeys   []string
}

// NewPairOrder создаёт парную сделку в состоянии Created
func NewPairOrder(req models.PairRequest) *PairOrder {
	return &PairOrder{
		id:           uuid.NewString(),
		instA:        req.InstrumentA,
		instB:        req.InstrumentB,
		direction:    req.Direction,
		targetSpread: req.TargetSpread,
		quantity:     req.Quantity,
		tolerance:    req.Tolerance,
		createdAt:    time.Now(),
		state:        models.PairStateCreated,
		primary:      make(map[string]*models.Order),
		extra:        make(map[string]*models.Order),
	}
}

// ============================================================
// Доступ к атрибутам
// ============================================================

// ID возвращает идентификатор сделки
func (p *PairOrder) ID() string { return p.id }

// Direction возвращает направление сделки
func (p *PairOrder) Direction() string { return p.direction }

// TargetSpread возвращает целевой спред
func (p *PairOrder) TargetSpread() float64 { return p.targetSpread }

// Quantity возвращает объём сделки
func (p *PairOrder) Quantity() float64 { return p.quantity }

// Tolerance возвращает окно ожидания заполнения
func (p *PairOrder) Tolerance() time.Duration { return p.tolerance }

// Instruments возвращает пару инструментов (A, B)
func (p *PairOrder) Instruments() (models.Instrument, models.Instrument) {
	return p.instA, p.instB
}

// InstrumentFor возвращает инструмент сделки по символу
func (p *PairOrder) InstrumentFor(symbol string) (models.Instrument, bool) {
	switch symbol {
	case p.instA.Symbol:
		return p.instA, true
	case p.instB.Symbol:
		return p.instB, true
	}
	return models.Instrument{}, false
}

// State возвращает текущее состояние
func (p *PairOrder) State() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// IsFinished сообщает, достигла ли сделка терминального состояния
func (p *PairOrder) IsFinished() bool {
	return p.State() == models.PairStateFinished
}

// ============================================================
// Переходы состояний
// ============================================================

// TransitionTo переводит сделку в новое состояние с проверкой допустимости
func (p *PairOrder) TransitionTo(to string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !CanTransition(p.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, to)
	}
	p.state = to
	return nil
}

// Finish идемпотентно переводит сделку в терминальное состояние.
// Возвращает true только при первом вызове.
func (p *PairOrder) Finish() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == models.PairStateFinished {
		return false
	}
	p.state = models.PairStateFinished
	return true
}

// ============================================================
// Временные метки
// ============================================================

// LatchInit фиксирует момент входа. Повторные вызовы игнорируются,
// первое значение никогда не перезаписывается.
func (p *PairOrder) LatchInit(t time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initTime != nil {
		return false
	}
	p.initTime = &t
	return true
}

// InitTime возвращает зафиксированный момент входа
func (p *PairOrder) InitTime() (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.initTime == nil {
		return time.Time{}, false
	}
	return *p.initTime, true
}

// IsExpired сообщает, истекло ли окно ожидания заполнения.
// До фиксации initTime и после завершения сделка не считается истёкшей.
func (p *PairOrder) IsExpired(now time.Time) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.initTime == nil || p.state == models.PairStateFinished {
		return false
	}
	return now.After(p.initTime.Add(p.tolerance))
}

// ============================================================
// Управление ордерами
// ============================================================

// AddPrimary добавляет первичную ногу входа
func (p *PairOrder) AddPrimary(order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(order, p.primary, &p.primaryKeys)
}

// AddExtra добавляет ордер восстановления под его собственным новым ключом
func (p *PairOrder) AddExtra(order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(order, p.extra, &p.extraKeys)
}

// addLocked общая вставка с инвариантом: не более одного активного
// ордера на инструмент. Вызывается только под mu.
func (p *PairOrder) addLocked(order *models.Order, dst map[string]*models.Order, keys *[]string) error {
	if p.state == models.PairStateFinished {
		return ErrFinishedPair
	}
	for _, existing := range p.primary {
		if existing.Symbol == order.Symbol && existing.IsActive() {
			return fmt.Errorf("%w: %s", ErrActiveOrderExists, order.Symbol)
		}
	}
	for _, existing := range p.extra {
		if existing.Symbol == order.Symbol && existing.IsActive() {
			return fmt.Errorf("%w: %s", ErrActiveOrderExists, order.Symbol)
		}
	}
	dst[order.Key] = order
	*keys = append(*keys, order.Key)
	return nil
}

// Owns сообщает, принадлежит ли ключ ордера этой сделке
func (p *PairOrder) Owns(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.primary[key]
	if !ok {
		_, ok = p.extra[key]
	}
	return ok
}

// Order возвращает копию ордера по ключу
func (p *PairOrder) Order(key string) (models.Order, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if o, ok := p.primary[key]; ok {
		return *o, true
	}
	if o, ok := p.extra[key]; ok {
		return *o, true
	}
	return models.Order{}, false
}

// OrdersSnapshot возвращает объединённый снимок всех ордеров
// в порядке вставки, первичные первыми
func (p *PairOrder) OrdersSnapshot() []models.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Order, 0, len(p.primaryKeys)+len(p.extraKeys))
	for _, k := range p.primaryKeys {
		out = append(out, *p.primary[k])
	}
	for _, k := range p.extraKeys {
		out = append(out, *p.extra[k])
	}
	return out
}

// ActiveOrders возвращает копии ордеров, которые ещё можно отменить
func (p *PairOrder) ActiveOrders() []models.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []models.Order
	for _, k := range p.primaryKeys {
		if o := p.primary[k]; o.IsActive() {
			out = append(out, *o)
		}
	}
	for _, k := range p.extraKeys {
		if o := p.extra[k]; o.IsActive() {
			out = append(out, *o)
		}
	}
	return out
}

// ============================================================
// Применение статусных событий
// ============================================================

// ApplyStatus применяет статусное событие шлюза к ордеру сделки.
// Заполнение монотонно: уменьшение filledQty игнорируется, терминальный
// статус ордера не регрессирует. Возвращает прирост заполнения.
func (p *PairOrder) ApplyStatus(evt models.OrderStatusEvent) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == models.PairStateFinished {
		return 0, ErrFinishedPair
	}

	order, ok := p.primary[evt.Key]
	if !ok {
		order, ok = p.extra[evt.Key]
	}
	if !ok {
		return 0, ErrUnknownOrderKey
	}

	// Терминальный ордер больше не мутирует
	if order.IsTerminal() {
		return 0, nil
	}

	var delta float64
	if evt.FilledQty > order.FilledQty {
		delta = evt.FilledQty - order.FilledQty
		order.FilledQty = evt.FilledQty
		if evt.AvgPrice > 0 {
			order.AvgFillPrice = evt.AvgPrice
		}
	}

	if evt.Status != "" {
		order.Status = evt.Status
	}
	order.UpdatedAt = time.Now()

	return delta, nil
}

// ============================================================
// Экспозиция и PNL
// ============================================================

// NetExposure возвращает знаковую сумму заполненных количеств по всем
// ордерам: покупки положительные, продажи отрицательные.
// Считается по требованию, без кеша.
func (p *PairOrder) NetExposure() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var net float64
	for _, o := range p.primary {
		net += o.SignedFilled()
	}
	for _, o := range p.extra {
		net += o.SignedFilled()
	}
	return net
}

// ExposureBySymbol возвращает знаковую экспозицию по каждому инструменту
func (p *PairOrder) ExposureBySymbol() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]float64, 2)
	for _, o := range p.primary {
		out[o.Symbol] += o.SignedFilled()
	}
	for _, o := range p.extra {
		out[o.Symbol] += o.SignedFilled()
	}
	return out
}

// HasAnyFill сообщает, было ли хоть одно заполнение
func (p *PairOrder) HasAnyFill() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, o := range p.primary {
		if o.FilledQty > 0 {
			return true
		}
	}
	for _, o := range p.extra {
		if o.FilledQty > 0 {
			return true
		}
	}
	return false
}

// BothPrimaryFilled сообщает, заполнены ли обе ноги входа полностью
func (p *PairOrder) BothPrimaryFilled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.primaryKeys) < 2 {
		return false
	}
	for _, k := range p.primaryKeys {
		if p.primary[k].Status != models.OrderStatusFilled {
			return false
		}
	}
	return true
}

// MarkToMarketPnL считает PNL по текущим котировкам: цена заполнения
// против противоположной стороны стакана (bid для лонга, ask для шорта),
// умноженная на множитель контракта. Нога без котировки вносит ноль.
func (p *PairOrder) MarkToMarketPnL(quotes QuoteSource) float64 {
	snapshot := p.OrdersSnapshot()

	var pnl float64
	for _, o := range snapshot {
		if o.FilledQty <= 0 {
			continue
		}
		quote, ok := quotes.GetQuote(o.Symbol)
		if !ok {
			continue
		}
		inst, _ := p.InstrumentFor(o.Symbol)

		if o.Side == models.SideBuy {
			pnl += utils.CalculatePNL("long", o.AvgFillPrice, quote.Bid, o.FilledQty, inst.Multiplier)
		} else {
			pnl += utils.CalculatePNL("short", o.AvgFillPrice, quote.Ask, o.FilledQty, inst.Multiplier)
		}
	}
	return pnl
}

// ============================================================
// Снимок состояния для внешних потребителей
// ============================================================

// Status возвращает снимок сделки с актуальными net/pnl
func (p *PairOrder) Status(quotes QuoteSource) models.PairStatus {
	net := p.NetExposure()
	var pnl float64
	if quotes != nil {
		pnl = p.MarkToMarketPnL(quotes)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	st := models.PairStatus{
		ID:           p.id,
		State:        p.state,
		Direction:    p.direction,
		SymbolA:      p.instA.Symbol,
		SymbolB:      p.instB.Symbol,
		TargetSpread: p.targetSpread,
		Quantity:     p.quantity,
		NetExposure:  net,
		Pnl:          pnl,
	}
	if p.initTime != nil {
		t := *p.initTime
		st.InitTime = &t
	}
	for _, k := range p.primaryKeys {
		st.Orders = append(st.Orders, *p.primary[k])
	}
	for _, k := range p.extraKeys {
		st.Orders = append(st.Orders, *p.extra[k])
	}
	return st
}
