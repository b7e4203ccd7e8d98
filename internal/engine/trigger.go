package engine

import (
	"sync/atomic"

	"github.com/ajmal017/dailyScript/internal/eventbus"
	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// SpreadTrigger следит за котировками двух инструментов и решает,
// когда выполняется условие входа. Срабатывает ровно один раз:
// после первого срабатывания подписка снимается с шины, так что
// пачка обновлений котировок не породит дублирующих входов.
//
// Условие:
//   - BUY:  spread = ask(A) - bid(B), срабатывание при spread <= target
//   - SELL: spread = bid(A) - ask(B), срабатывание при spread >= target
type SpreadTrigger struct {
	pairID       string
	symbolA      string
	symbolB      string
	direction    string
	targetSpread float64

	quotes QuoteSource
	bus    *eventbus.Bus[models.QuoteEvent]
	onFire func()

	fired atomic.Bool
}

// NewSpreadTrigger создаёт триггер для парной сделки.
// onFire вызывается ровно один раз при выполнении условия.
func NewSpreadTrigger(pair *PairOrder, quotes QuoteSource, bus *eventbus.Bus[models.QuoteEvent], onFire func()) *SpreadTrigger {
	instA, instB := pair.Instruments()
	return &SpreadTrigger{
		pairID:       pair.ID(),
		symbolA:      instA.Symbol,
		symbolB:      instB.Symbol,
		direction:    pair.Direction(),
		targetSpread: pair.TargetSpread(),
		quotes:       quotes,
		bus:          bus,
		onFire:       onFire,
	}
}

// SubscriptionKey возвращает ключ подписки триггера на шине котировок
func (t *SpreadTrigger) SubscriptionKey() string {
	return "trigger:" + t.pairID
}

// Register подписывает триггер на шину котировок
func (t *SpreadTrigger) Register() error {
	return t.bus.Subscribe(t.SubscriptionKey(), t.handleQuote)
}

// Deregister снимает подписку триггера
func (t *SpreadTrigger) Deregister() {
	t.bus.Unsubscribe(t.SubscriptionKey())
}

// Fired сообщает, сработал ли триггер
func (t *SpreadTrigger) Fired() bool {
	return t.fired.Load()
}

// handleQuote обрабатывает обновление котировки
func (t *SpreadTrigger) handleQuote(evt models.QuoteEvent) {
	// Чужие инструменты не трогаем
	if evt.Symbol != t.symbolA && evt.Symbol != t.symbolB {
		return
	}

	satisfied, _ := t.Evaluate()
	if !satisfied {
		return
	}

	// Ровно одно срабатывание на сделку
	if !t.fired.CompareAndSwap(false, true) {
		return
	}
	t.Deregister()
	if t.onFire != nil {
		t.onFire()
	}
}

// Evaluate проверяет условие входа по текущим котировкам.
// Отсутствие котировки любой из ног не ошибка: условие просто
// считается невыполненным.
func (t *SpreadTrigger) Evaluate() (satisfied bool, spread float64) {
	quoteA, okA := t.quotes.GetQuote(t.symbolA)
	quoteB, okB := t.quotes.GetQuote(t.symbolB)
	if !okA || !okB {
		return false, 0
	}

	switch t.direction {
	case models.DirectionBuy:
		spread = utils.PairSpread(quoteA.Ask, quoteB.Bid)
		return spread <= t.targetSpread, spread
	case models.DirectionSell:
		spread = utils.PairSpread(quoteA.Bid, quoteB.Ask)
		return spread >= t.targetSpread, spread
	}
	return false, 0
}
