package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ajmal017/dailyScript/internal/config"
	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// Ошибки координатора
var (
	ErrInvalidDirection   = errors.New("direction must be BUY or SELL")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidInstruments = errors.New("pair requires two distinct instruments")
	ErrUnknownPair        = errors.New("pair order not found")
	ErrNotStarted         = errors.New("coordinator is not started")
)

// Coordinator владеет наборами активных и завершённых парных сделок
// и управляет их жизненным циклом: регистрирует триггеры, отправляет
// ноги входа, маршрутизирует статусные события по ключу ордера и
// гоняет периодический проход восстановления.
//
// Все мутации состояния сделок выполняются одним логическим циклом
// (почтовый ящик mailbox): колбэки брокера и тики планировщика лишь
// кладут замыкания в очередь. Карты running/finished защищены mu
// для конкурентных читателей (HTTP API).
type Coordinator struct {
	log     *utils.Logger
	cfg     config.EngineConfig
	buses   *Buses
	feed    MarketDataFeed
	gateway OrderGateway
	sink    FillSink // может быть nil

	mu            sync.RWMutex
	running       map[string]*PairOrder
	runningOrder  []string
	finished      map[string]*PairOrder
	finishedOrder []string
	orderIndex    map[string]*PairOrder     // ключ ордера -> владеющая сделка
	triggers      map[string]*SpreadTrigger // id сделки -> триггер
	pendingCancel map[string]cancelAction   // ключ ордера -> one-shot действие
	pendingCount  map[string]int            // id сделки -> ожидаемые подтверждения

	mailbox  chan func()
	started  atomic.Bool
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// cancelAction одноразовое действие, выполняемое после подтверждения
// отмены конкретного ордера. Никогда не вызывается инлайн после
// запроса отмены: отмена асинхронна.
type cancelAction struct {
	pairID string
	fn     func(now time.Time)
}

// NewCoordinator создаёт координатор парных сделок
func NewCoordinator(cfg config.EngineConfig, buses *Buses, feed MarketDataFeed, gateway OrderGateway, sink FillSink, log *utils.Logger) *Coordinator {
	mailboxSize := cfg.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = 1024
	}
	return &Coordinator{
		log:           log.WithComponent("coordinator"),
		cfg:           cfg,
		buses:         buses,
		feed:          feed,
		gateway:       gateway,
		sink:          sink,
		running:       make(map[string]*PairOrder),
		finished:      make(map[string]*PairOrder),
		orderIndex:    make(map[string]*PairOrder),
		triggers:      make(map[string]*SpreadTrigger),
		pendingCancel: make(map[string]cancelAction),
		pendingCount:  make(map[string]int),
		mailbox:       make(chan func(), mailboxSize),
		loopDone:      make(chan struct{}),
	}
}

// ============================================================
// Запуск и остановка
// ============================================================

// Start подписывает координатор на шины и запускает цикл обработки
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	if err := c.buses.Status.Subscribe("coordinator:status", func(evt models.OrderStatusEvent) {
		c.enqueue(func(now time.Time) { c.onStatus(evt, now) })
	}); err != nil {
		return fmt.Errorf("subscribe status: %w", err)
	}
	if err := c.buses.Rejects.Subscribe("coordinator:reject", func(evt models.OrderRejectEvent) {
		c.enqueue(func(now time.Time) { c.onReject(evt, now) })
	}); err != nil {
		return fmt.Errorf("subscribe rejects: %w", err)
	}
	if err := c.buses.Cancels.Subscribe("coordinator:cancel", func(evt models.CancelConfirmedEvent) {
		c.enqueue(func(now time.Time) { c.onCancelConfirmed(evt, now) })
	}); err != nil {
		return fmt.Errorf("subscribe cancels: %w", err)
	}
	if err := c.buses.Ticks.Subscribe("coordinator:sweep", func(evt models.TickEvent) {
		c.enqueue(func(time.Time) { c.sweep(evt.At) })
	}); err != nil {
		return fmt.Errorf("subscribe ticks: %w", err)
	}

	go c.runLoop(loopCtx)

	c.log.Info("Coordinator started")
	return nil
}

// Stop останавливает цикл обработки. Текущее событие доводится
// до конца, проход восстановления не прерывается посередине.
func (c *Coordinator) Stop() {
	if !c.started.Load() || c.cancel == nil {
		return
	}

	c.buses.Status.Unsubscribe("coordinator:status")
	c.buses.Rejects.Unsubscribe("coordinator:reject")
	c.buses.Cancels.Unsubscribe("coordinator:cancel")
	c.buses.Ticks.Unsubscribe("coordinator:sweep")

	c.cancel()
	<-c.loopDone
	c.log.Info("Coordinator stopped")
}

// runLoop единственный цикл, применяющий события к сделкам
func (c *Coordinator) runLoop(ctx context.Context) {
	defer close(c.loopDone)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-c.mailbox:
			fn()
			MailboxDepth.Set(float64(len(c.mailbox)))
		}
	}
}

// enqueue кладёт действие в почтовый ящик цикла.
// При переполнении отправитель блокируется (backpressure на поток
// чтения брокера), факт переполнения логируется.
func (c *Coordinator) enqueue(fn func(now time.Time)) {
	wrapped := func() { fn(time.Now()) }
	select {
	case c.mailbox <- wrapped:
	default:
		c.log.Warn("Coordinator mailbox is full, blocking producer",
			utils.Int("capacity", cap(c.mailbox)))
		c.mailbox <- wrapped
	}
}

// ============================================================
// Постановка и отмена парных сделок
// ============================================================

// PlacePairTrade валидирует запрос, регистрирует триггер спреда и
// немедленно возвращает созданную сделку, не дожидаясь заполнения
func (c *Coordinator) PlacePairTrade(ctx context.Context, req models.PairRequest) (*PairOrder, error) {
	if !c.started.Load() {
		return nil, ErrNotStarted
	}
	if req.Direction != models.DirectionBuy && req.Direction != models.DirectionSell {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, req.Direction)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuantity, req.Quantity)
	}
	if req.InstrumentA.Symbol == "" || req.InstrumentB.Symbol == "" ||
		req.InstrumentA.Symbol == req.InstrumentB.Symbol {
		return nil, ErrInvalidInstruments
	}
	if req.Tolerance <= 0 {
		req.Tolerance = c.cfg.DefaultTolerance
	}

	if err := c.feed.Subscribe(ctx, req.InstrumentA.Symbol, req.InstrumentB.Symbol); err != nil {
		return nil, fmt.Errorf("subscribe market data: %w", err)
	}

	pair := NewPairOrder(req)

	// Срабатывание триггера лишь ставит вход в очередь цикла:
	// ордера никогда не отправляются из потока маркет-даты
	trigger := NewSpreadTrigger(pair, c.feed, c.buses.Quotes, func() {
		c.enqueue(func(now time.Time) { c.firePair(pair, now) })
	})
	if err := trigger.Register(); err != nil {
		return nil, fmt.Errorf("register trigger: %w", err)
	}

	c.mu.Lock()
	c.running[pair.ID()] = pair
	c.runningOrder = append(c.runningOrder, pair.ID())
	c.triggers[pair.ID()] = trigger
	runningCount := len(c.running)
	c.mu.Unlock()

	UpdateRunningPairs(runningCount)
	c.log.Info("Pair trade placed",
		utils.PairID(pair.ID()),
		utils.String("direction", req.Direction),
		utils.Symbol(req.InstrumentA.Symbol+"/"+req.InstrumentB.Symbol),
		utils.Spread(req.TargetSpread),
		utils.Volume(req.Quantity))

	return pair, nil
}

// CancelPairTrade принудительно завершает сделку: для сделки без
// ордеров снимает триггер, для сделки с ордерами немедленно запускает
// протокол восстановления, не дожидаясь истечения окна
func (c *Coordinator) CancelPairTrade(id string) error {
	if !c.started.Load() {
		return ErrNotStarted
	}

	c.mu.RLock()
	pair, ok := c.running[id]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPair, id)
	}

	c.enqueue(func(now time.Time) {
		if pair.IsFinished() {
			return
		}
		if pair.State() == models.PairStateCreated {
			c.finishPair(pair, "cancelled before entry")
			return
		}
		c.recoverPair(pair, now)
	})
	return nil
}

// ============================================================
// Вход в пару
// ============================================================

// firePair отправляет обе ноги входа. Выполняется в цикле обработки.
func (c *Coordinator) firePair(pair *PairOrder, now time.Time) {
	if pair.State() != models.PairStateCreated {
		return
	}

	instA, instB := pair.Instruments()
	quoteA, okA := c.feed.GetQuote(instA.Symbol)
	quoteB, okB := c.feed.GetQuote(instB.Symbol)
	if !okA || !okB {
		// Котировка пропала между срабатыванием триггера и входом
		c.log.Warn("Quote disappeared before entry, aborting pair",
			utils.PairID(pair.ID()))
		c.finishPair(pair, "quote unavailable at entry")
		return
	}

	// Покупка спреда: покупаем A по ask, продаём B по bid.
	// Продажа спреда - зеркально.
	leadingSide := models.SideBuy
	if pair.Direction() == models.DirectionSell {
		leadingSide = models.SideSell
	}
	guardSide := models.OppositeSide(leadingSide)

	leading := c.buildOrder(pair, instA, leadingSide, models.RoleLeading, pair.Quantity(), aggressivePrice(quoteA, leadingSide))
	guard := c.buildOrder(pair, instB, guardSide, models.RoleGuard, pair.Quantity(), aggressivePrice(quoteB, guardSide))
	entrySpread := utils.PairSpread(aggressivePrice(quoteA, leadingSide), aggressivePrice(quoteB, guardSide))
	leading.Ref = fmt.Sprintf("pair(<%s>, %s)", instA.Symbol, instB.Symbol)
	guard.Ref = fmt.Sprintf("pair(%s, <%s>)", instA.Symbol, instB.Symbol)

	if err := pair.AddPrimary(leading); err != nil {
		c.log.Error("Failed to record leading leg", utils.PairID(pair.ID()), utils.Err(err))
		c.finishPair(pair, "internal error at entry")
		return
	}
	if err := pair.AddPrimary(guard); err != nil {
		c.log.Error("Failed to record guard leg", utils.PairID(pair.ID()), utils.Err(err))
		c.finishPair(pair, "internal error at entry")
		return
	}

	c.mu.Lock()
	c.orderIndex[leading.Key] = pair
	c.orderIndex[guard.Key] = pair
	c.mu.Unlock()

	ctx := context.Background()
	if err := c.gateway.PlaceOrder(ctx, leading); err != nil {
		c.log.Error("Leading leg submission failed",
			utils.PairID(pair.ID()), utils.OrderID(leading.Key), utils.Err(err))
		pair.ApplyStatus(models.OrderStatusEvent{Key: leading.Key, Status: models.OrderStatusRejected})
		c.finishPair(pair, "leading leg rejected at submit")
		return
	}
	pair.ApplyStatus(models.OrderStatusEvent{Key: leading.Key, Status: models.OrderStatusSubmitted})
	RecordOrderPlaced(leading.Role, leading.Side)

	if err := c.gateway.PlaceOrder(ctx, guard); err != nil {
		c.log.Error("Guard leg submission failed, cancelling leading leg",
			utils.PairID(pair.ID()), utils.OrderID(guard.Key), utils.Err(err))
		pair.ApplyStatus(models.OrderStatusEvent{Key: guard.Key, Status: models.OrderStatusRejected})
		// Нога-одиночка не должна остаться на рынке
		c.requestCancel(pair, leading.Key, nil)
		c.finishPair(pair, "guard leg rejected at submit")
		return
	}
	pair.ApplyStatus(models.OrderStatusEvent{Key: guard.Key, Status: models.OrderStatusSubmitted})
	RecordOrderPlaced(guard.Role, guard.Side)

	// Момент входа фиксируется один раз, после отправки обеих ног
	pair.LatchInit(now)
	if err := pair.TransitionTo(models.PairStateAwaitingFill); err != nil {
		c.log.Error("Entry transition failed", utils.PairID(pair.ID()), utils.Err(err))
	}

	RecordTriggerFired(pair.Direction(), entrySpread)

	c.log.Info("Pair entry submitted",
		utils.PairID(pair.ID()),
		utils.OrderID(leading.Key),
		utils.OrderID(guard.Key),
		utils.Volume(pair.Quantity()))
}

// aggressivePrice возвращает немедленно исполнимую сторону котировки:
// ask для покупки, bid для продажи
func aggressivePrice(q models.Quote, side string) float64 {
	if side == models.SideBuy {
		return q.Ask
	}
	return q.Bid
}

// buildOrder собирает ордер ноги с новым уникальным ключом
func (c *Coordinator) buildOrder(pair *PairOrder, inst models.Instrument, side, role string, qty, price float64) *models.Order {
	// Цена приводится к сетке инструмента так, чтобы ордер
	// остался немедленно исполнимым
	if side == models.SideBuy {
		price = utils.RoundToTickUp(price, inst.TickSize)
	} else {
		price = utils.RoundToTick(price, inst.TickSize)
	}
	return &models.Order{
		Key:        uuid.NewString(),
		Symbol:     inst.Symbol,
		Side:       side,
		Role:       role,
		Quantity:   qty,
		LimitPrice: price,
		Status:     models.OrderStatusPendingSubmit,
		CreatedAt:  time.Now(),
	}
}

// ============================================================
// Обработка событий шлюза
// ============================================================

// onStatus применяет статусное событие к владеющей сделке
func (c *Coordinator) onStatus(evt models.OrderStatusEvent, now time.Time) {
	pair := c.pairForOrder(evt.Key)
	if pair == nil {
		return
	}

	delta, err := pair.ApplyStatus(evt)
	if err != nil {
		if !errors.Is(err, ErrFinishedPair) {
			c.log.Error("Failed to apply order status",
				utils.PairID(pair.ID()), utils.OrderID(evt.Key), utils.Err(err))
		}
		return
	}

	if delta > 0 {
		FillsApplied.Inc()
		c.persistFill(pair, evt, delta, now)
	}

	if evt.Status == models.OrderStatusCancelled {
		c.completeCancellation(evt.Key, now)
	}

	c.advancePair(pair, now)
}

// advancePair продвигает сделку по машине состояний после события
func (c *Coordinator) advancePair(pair *PairOrder, now time.Time) {
	switch pair.State() {
	case models.PairStateAwaitingFill:
		if pair.BothPrimaryFilled() {
			// Обе ноги входа заполнены: экспозиция нулевая по построению
			if err := pair.TransitionTo(models.PairStateFullyFilled); err == nil {
				c.finishPair(pair, "fully filled")
			}
		}
	case models.PairStateRecovering:
		// Восстановление завершено, когда экспозиция выровнена
		// и не осталось активных ордеров
		if pair.NetExposure() == 0 && len(pair.ActiveOrders()) == 0 && !c.hasPendingCancels(pair.ID()) {
			c.finishPair(pair, "recovery flattened exposure")
		}
	}
}

// onReject быстрый путь отклонения: вход не удался, остальные активные
// ордера снимаются, заполненная часть второй ноги защитно закрывается,
// сделка завершается без ожидания окна
func (c *Coordinator) onReject(evt models.OrderRejectEvent, now time.Time) {
	pair := c.pairForOrder(evt.Key)
	if pair == nil || pair.IsFinished() {
		return
	}

	OrdersRejected.Inc()
	pair.ApplyStatus(models.OrderStatusEvent{Key: evt.Key, Status: models.OrderStatusRejected})

	c.log.Warn("Order rejected, defensive unwind",
		utils.PairID(pair.ID()),
		utils.OrderID(evt.Key),
		utils.String("reason", evt.Reason),
		utils.PNL(pair.MarkToMarketPnL(c.feed)),
		utils.Float64("net", pair.NetExposure()))

	reason := "rejected: " + evt.Reason
	active := pair.ActiveOrders()
	if len(active) == 0 {
		c.flattenAndFinish(pair, reason)
		return
	}

	// Выравнивание подвешивается на подтверждение последней отмены:
	// пока снятая нога на рынке, встречный ордер по её инструменту
	// выставить нельзя
	remaining := len(active)
	for _, o := range active {
		c.requestCancel(pair, o.Key, func(time.Time) {
			remaining--
			if remaining == 0 {
				c.flattenAndFinish(pair, reason)
			}
		})
	}
}

// flattenAndFinish защитно закрывает заполненную экспозицию и завершает
// сделку, не дожидаясь заполнения закрывающих ордеров
func (c *Coordinator) flattenAndFinish(pair *PairOrder, reason string) {
	for symbol, exposure := range pair.ExposureBySymbol() {
		if exposure == 0 {
			continue
		}
		if err := c.placeFlattenOrder(pair, symbol, exposure, models.RoleClose); err != nil {
			c.log.Error("Defensive flatten failed",
				utils.PairID(pair.ID()), utils.Symbol(symbol), utils.Err(err))
		}
	}
	c.finishPair(pair, reason)
}

// onCancelConfirmed помечает ордер отменённым и выполняет отложенное
// one-shot действие, привязанное к этой отмене
func (c *Coordinator) onCancelConfirmed(evt models.CancelConfirmedEvent, now time.Time) {
	if pair := c.pairForOrder(evt.Key); pair != nil {
		pair.ApplyStatus(models.OrderStatusEvent{Key: evt.Key, Status: models.OrderStatusCancelled})
	}
	c.completeCancellation(evt.Key, now)
}

// completeCancellation извлекает и выполняет one-shot действие отмены
func (c *Coordinator) completeCancellation(key string, now time.Time) {
	c.mu.Lock()
	action, ok := c.pendingCancel[key]
	if ok {
		delete(c.pendingCancel, key)
		c.pendingCount[action.pairID]--
		if c.pendingCount[action.pairID] <= 0 {
			delete(c.pendingCount, action.pairID)
		}
	}
	c.mu.Unlock()

	if ok && action.fn != nil {
		action.fn(now)
	}
}

// hasPendingCancels сообщает, ждёт ли сделка подтверждений отмены
func (c *Coordinator) hasPendingCancels(pairID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingCount[pairID] > 0
}

// pairForOrder находит сделку-владельца по ключу ордера.
// Ордер принадлежит ровно одной сделке.
func (c *Coordinator) pairForOrder(key string) *PairOrder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orderIndex[key]
}

// persistFill отправляет запись об исполнении в sink, не блокируя цикл
func (c *Coordinator) persistFill(pair *PairOrder, evt models.OrderStatusEvent, delta float64, now time.Time) {
	if c.sink == nil {
		return
	}
	order, ok := pair.Order(evt.Key)
	if !ok {
		return
	}
	record := models.FillRecord{
		PairID:   pair.ID(),
		OrderKey: order.Key,
		OrderRef: order.Ref,
		Symbol:   order.Symbol,
		Side:     order.Side,
		Role:     order.Role,
		Quantity: delta,
		Price:    evt.AvgPrice,
		TradedAt: now,
	}
	go func() {
		if err := c.sink.RecordFill(context.Background(), record); err != nil {
			c.log.Error("Failed to persist fill",
				utils.PairID(record.PairID),
				utils.OrderID(record.OrderKey),
				utils.Err(err))
		}
	}()
}

// ============================================================
// Периодический проход
// ============================================================

// sweep один проход восстановления по всем активным сделкам.
// Ошибка или паника при обработке одной сделки изолируется и не
// прерывает проход по остальным.
func (c *Coordinator) sweep(now time.Time) {
	start := time.Now()

	c.mu.RLock()
	snapshot := make([]*PairOrder, 0, len(c.runningOrder))
	for _, id := range c.runningOrder {
		if p, ok := c.running[id]; ok {
			snapshot = append(snapshot, p)
		}
	}
	c.mu.RUnlock()

	totalExposure := 0.0
	for _, pair := range snapshot {
		c.sweepOne(pair, now)
		totalExposure += utils.Abs(pair.NetExposure())
	}

	UpdateNetExposure(totalExposure)
	RecordSweepDuration(float64(time.Since(start).Microseconds()) / 1000.0)
}

// sweepOne обрабатывает одну сделку с изоляцией паники
func (c *Coordinator) sweepOne(pair *PairOrder, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Panic during recovery sweep",
				utils.PairID(pair.ID()),
				utils.Float64("net", pair.NetExposure()),
				utils.State(pair.State()),
				utils.Any("panic", r))
		}
	}()

	if pair.IsFinished() {
		return
	}

	// Восстановление ждёт подтверждений отмены, повтор на следующем тике
	if c.hasPendingCancels(pair.ID()) {
		return
	}

	if pair.IsExpired(now) {
		c.recoverPair(pair, now)
	}
}

// ============================================================
// Завершение сделки
// ============================================================

// finishPair идемпотентно переводит сделку в Finished и переносит её
// из активного набора в завершённый. Повторный вызов не даёт второй
// вставки в завершённый набор.
func (c *Coordinator) finishPair(pair *PairOrder, reason string) {
	if !pair.Finish() {
		return
	}

	net := pair.NetExposure()
	pnl := pair.MarkToMarketPnL(c.feed)

	c.mu.Lock()
	delete(c.running, pair.ID())
	for i, id := range c.runningOrder {
		if id == pair.ID() {
			c.runningOrder = append(c.runningOrder[:i], c.runningOrder[i+1:]...)
			break
		}
	}
	if _, dup := c.finished[pair.ID()]; !dup {
		c.finished[pair.ID()] = pair
		c.finishedOrder = append(c.finishedOrder, pair.ID())
	}
	trigger := c.triggers[pair.ID()]
	delete(c.triggers, pair.ID())
	for _, o := range pair.OrdersSnapshot() {
		delete(c.orderIndex, o.Key)
		if action, ok := c.pendingCancel[o.Key]; ok && action.pairID == pair.ID() {
			delete(c.pendingCancel, o.Key)
		}
	}
	delete(c.pendingCount, pair.ID())
	runningCount := len(c.running)
	finishedCount := len(c.finished)
	c.mu.Unlock()

	if trigger != nil {
		trigger.Deregister()
	}

	PairsFinished.Inc()
	UpdateRunningPairs(runningCount)
	UpdateFinishedPairs(finishedCount)

	c.log.Info("Pair trade finished",
		utils.PairID(pair.ID()),
		utils.String("reason", reason),
		utils.Float64("net", net),
		utils.PNL(pnl))
}

// ============================================================
// Доступ для внешних потребителей
// ============================================================

// RunningPairs возвращает снимки активных сделок в порядке постановки
func (c *Coordinator) RunningPairs() []models.PairStatus {
	c.mu.RLock()
	pairs := make([]*PairOrder, 0, len(c.runningOrder))
	for _, id := range c.runningOrder {
		if p, ok := c.running[id]; ok {
			pairs = append(pairs, p)
		}
	}
	c.mu.RUnlock()

	out := make([]models.PairStatus, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Status(c.feed))
	}
	return out
}

// FinishedPairs возвращает снимки завершённых сделок в порядке завершения
func (c *Coordinator) FinishedPairs() []models.PairStatus {
	c.mu.RLock()
	pairs := make([]*PairOrder, 0, len(c.finishedOrder))
	for _, id := range c.finishedOrder {
		if p, ok := c.finished[id]; ok {
			pairs = append(pairs, p)
		}
	}
	c.mu.RUnlock()

	out := make([]models.PairStatus, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Status(c.feed))
	}
	return out
}

// Status возвращает снимок сделки по идентификатору
func (c *Coordinator) Status(id string) (models.PairStatus, error) {
	c.mu.RLock()
	pair, ok := c.running[id]
	if !ok {
		pair, ok = c.finished[id]
	}
	c.mu.RUnlock()

	if !ok {
		return models.PairStatus{}, fmt.Errorf("%w: %s", ErrUnknownPair, id)
	}
	return pair.Status(c.feed), nil
}
