package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// Ветки протокола восстановления
const (
	recoveryBranchClose      = "close"
	recoveryBranchCancelOnly = "cancel_only"
	recoveryBranchChase      = "chase"
)

// recoverPair запускает протокол восстановления для истёкшей сделки.
// Решение принимается по net и pnl на момент вызова, не на момент
// заполнения. Политика по порядку:
//
//  1. pnl > 0: отменить активные ордера, после подтверждения отмен
//     закрыть экспозицию встречным ордером по текущей противоположной
//     котировке и завершить, не дожидаясь заполнения закрытия.
//  2. net == 0: только отменить активные ордера и завершить.
//  3. иначе: отменить и перевыставить abs(net) той же стороной по
//     текущей агрессивной котировке, догоняя рынок. Повторяется
//     на каждом тике, пока экспозиция не выровнена.
//
// Действия после отмены всегда подвешиваются one-shot слушателями
// подтверждения отмены и никогда не выполняются инлайн.
func (c *Coordinator) recoverPair(pair *PairOrder, now time.Time) {
	if pair.IsFinished() {
		return
	}

	// Истечение окна: AwaitingFill -> PartialExposed -> Recovering
	if pair.State() == models.PairStateAwaitingFill {
		if err := pair.TransitionTo(models.PairStatePartialExposed); err != nil {
			c.log.Error("Expiry transition failed", utils.PairID(pair.ID()), utils.Err(err))
			return
		}
	}
	if pair.State() == models.PairStatePartialExposed {
		if err := pair.TransitionTo(models.PairStateRecovering); err != nil {
			c.log.Error("Recovery transition failed", utils.PairID(pair.ID()), utils.Err(err))
			return
		}
	}
	if pair.State() != models.PairStateRecovering {
		return
	}

	net := pair.NetExposure()
	pnl := pair.MarkToMarketPnL(c.feed)
	active := pair.ActiveOrders()

	c.log.Info("Recovery decision",
		utils.PairID(pair.ID()),
		utils.Float64("net", net),
		utils.PNL(pnl),
		utils.Int("active_orders", len(active)))

	switch {
	case pnl > 0:
		RecordRecoveryBranch(recoveryBranchClose)
		c.recoverClose(pair, active)

	case net == 0:
		RecordRecoveryBranch(recoveryBranchCancelOnly)
		for _, o := range active {
			c.requestCancel(pair, o.Key, nil)
		}
		c.finishPair(pair, "cancelled with flat exposure")

	default:
		RecordRecoveryBranch(recoveryBranchChase)
		c.recoverChase(pair, active)
	}
}

// recoverClose ветка фиксации прибыли: после подтверждения последней
// отмены закрывается вся оставшаяся экспозиция сделки
func (c *Coordinator) recoverClose(pair *PairOrder, active []models.Order) {
	if len(active) == 0 {
		c.closeExposureAndFinish(pair)
		return
	}

	remaining := len(active)
	for _, o := range active {
		c.requestCancel(pair, o.Key, func(time.Time) {
			// Замыкание выполняется только в цикле обработки
			remaining--
			if remaining == 0 {
				c.closeExposureAndFinish(pair)
			}
		})
	}
}

// closeExposureAndFinish выставляет закрывающие ордера по каждому
// инструменту с ненулевой экспозицией и завершает сделку, не дожидаясь
// их заполнения. Если закрытие выставить не удалось, сделка остаётся
// в Recovering и повторит попытку на следующем тике.
func (c *Coordinator) closeExposureAndFinish(pair *PairOrder) {
	allIssued := true
	for symbol, exposure := range pair.ExposureBySymbol() {
		if exposure == 0 {
			continue
		}
		if err := c.placeFlattenOrder(pair, symbol, exposure, models.RoleClose); err != nil {
			allIssued = false
			c.log.Error("Failed to issue closing order",
				utils.PairID(pair.ID()), utils.Symbol(symbol), utils.Err(err))
		}
	}
	if allIssued {
		c.finishPair(pair, "profitable exposure closed")
	}
}

// recoverChase ветка перевыставления: после подтверждения отмены
// заявка той же стороны перевыставляется на abs(net) по текущей
// агрессивной котировке
func (c *Coordinator) recoverChase(pair *PairOrder, active []models.Order) {
	if len(active) == 0 {
		// Активных ордеров нет: экспозиция гасится встречными ордерами
		for symbol, exposure := range pair.ExposureBySymbol() {
			if exposure == 0 {
				continue
			}
			if err := c.placeFlattenOrder(pair, symbol, exposure, models.RoleChase); err != nil {
				c.log.Error("Failed to issue chase flatten order",
					utils.PairID(pair.ID()), utils.Symbol(symbol), utils.Err(err))
			}
		}
		return
	}

	for _, o := range active {
		cancelled := o // копия для замыкания
		c.requestCancel(pair, cancelled.Key, func(time.Time) {
			c.resubmitChase(pair, cancelled)
		})
	}
}

// resubmitChase перевыставляет отменённую заявку по агрессивной цене
func (c *Coordinator) resubmitChase(pair *PairOrder, cancelled models.Order) {
	if pair.IsFinished() {
		return
	}

	net := pair.NetExposure()
	if net == 0 {
		if len(pair.ActiveOrders()) == 0 && !c.hasPendingCancels(pair.ID()) {
			c.finishPair(pair, "recovery flattened exposure")
		}
		return
	}

	// Перевыставляется только нога, сторона которой гасит экспозицию:
	// продажа при лонге, покупка при шорте. Перевыставление второй ноги
	// наращивало бы |net| вместо выравнивания, и при заполнении обеих
	// экспозиция не сходилась бы никогда.
	flattening := models.SideSell
	if net < 0 {
		flattening = models.SideBuy
	}
	if cancelled.Side != flattening {
		return
	}

	inst, ok := pair.InstrumentFor(cancelled.Symbol)
	if !ok {
		return
	}
	quote, ok := c.feed.GetQuote(cancelled.Symbol)
	if !ok {
		// Без котировки не перевыставляем, повтор на следующем тике
		c.log.Warn("No quote for chase resubmit",
			utils.PairID(pair.ID()), utils.Symbol(cancelled.Symbol))
		return
	}

	order := c.buildOrder(pair, inst, cancelled.Side, models.RoleChase, utils.Abs(net), aggressivePrice(quote, cancelled.Side))
	order.Ref = fmt.Sprintf("chase(%s)", cancelled.Symbol)

	if err := c.submitExtraOrder(pair, order); err != nil {
		c.log.Error("Chase resubmit failed",
			utils.PairID(pair.ID()), utils.Symbol(cancelled.Symbol), utils.Err(err))
	}
}

// placeFlattenOrder выставляет встречный ордер, гасящий экспозицию
// по инструменту: продажа по bid для лонга, покупка по ask для шорта
func (c *Coordinator) placeFlattenOrder(pair *PairOrder, symbol string, exposure float64, role string) error {
	inst, ok := pair.InstrumentFor(symbol)
	if !ok {
		return fmt.Errorf("instrument %s does not belong to pair %s", symbol, pair.ID())
	}
	quote, ok := c.feed.GetQuote(symbol)
	if !ok {
		return fmt.Errorf("no quote available for %s", symbol)
	}

	side := models.SideSell
	if exposure < 0 {
		side = models.SideBuy
	}

	order := c.buildOrder(pair, inst, side, role, utils.Abs(exposure), aggressivePrice(quote, side))
	order.Ref = fmt.Sprintf("%s(%s)", role, symbol)

	return c.submitExtraOrder(pair, order)
}

// submitExtraOrder регистрирует ордер восстановления в карте extra
// под его новым ключом и отправляет его в шлюз
func (c *Coordinator) submitExtraOrder(pair *PairOrder, order *models.Order) error {
	if err := pair.AddExtra(order); err != nil {
		return err
	}

	c.mu.Lock()
	c.orderIndex[order.Key] = pair
	c.mu.Unlock()

	if err := c.gateway.PlaceOrder(context.Background(), order); err != nil {
		pair.ApplyStatus(models.OrderStatusEvent{Key: order.Key, Status: models.OrderStatusRejected})
		return fmt.Errorf("place %s order: %w", order.Role, err)
	}
	pair.ApplyStatus(models.OrderStatusEvent{Key: order.Key, Status: models.OrderStatusSubmitted})
	RecordOrderPlaced(order.Role, order.Side)

	c.log.Info("Recovery order submitted",
		utils.PairID(pair.ID()),
		utils.OrderID(order.Key),
		utils.Symbol(order.Symbol),
		utils.Side(order.Side),
		utils.String("role", order.Role),
		utils.Volume(order.Quantity),
		utils.Price(order.LimitPrice))
	return nil
}

// requestCancel запрашивает отмену ордера и подвешивает one-shot
// действие на её подтверждение. Повторный запрос по тому же ключу
// игнорируется.
func (c *Coordinator) requestCancel(pair *PairOrder, key string, fn func(now time.Time)) {
	c.mu.Lock()
	if _, exists := c.pendingCancel[key]; exists {
		c.mu.Unlock()
		return
	}
	c.pendingCancel[key] = cancelAction{pairID: pair.ID(), fn: fn}
	c.pendingCount[pair.ID()]++
	c.mu.Unlock()

	if err := c.gateway.CancelOrder(context.Background(), key); err != nil {
		c.log.Error("Cancel request failed",
			utils.PairID(pair.ID()), utils.OrderID(key), utils.Err(err))
		// Ожидание снимается, следующий тик попробует снова
		c.mu.Lock()
		delete(c.pendingCancel, key)
		c.pendingCount[pair.ID()]--
		if c.pendingCount[pair.ID()] <= 0 {
			delete(c.pendingCount, pair.ID())
		}
		c.mu.Unlock()
	}
}
