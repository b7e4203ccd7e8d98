package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ajmal017/dailyScript/internal/config"
	"github.com/ajmal017/dailyScript/internal/eventbus"
	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/crypto"
	"github.com/ajmal017/dailyScript/pkg/ratelimit"
	"github.com/ajmal017/dailyScript/pkg/retry"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// ErrQueueFull очередь отложенных запросов шлюза переполнена
var ErrQueueFull = errors.New("trade gateway queue is full")

// TradeBuses шины, на которые торговый клиент публикует события шлюза
type TradeBuses struct {
	Status  *eventbus.Bus[models.OrderStatusEvent]
	Rejects *eventbus.Bus[models.OrderRejectEvent]
	Cancels *eventbus.Bus[models.CancelConfirmedEvent]
	Ticks   *eventbus.Bus[models.TickEvent]
}

// TradeClient торговая сессия моста брокера.
// Выставление и отмена ордеров проходят через token bucket: при
// исчерпании токенов кадр откладывается в очередь и отправляется
// на ближайшем тике планировщика, когда токены восстановятся.
// Отмены ставятся в голову очереди.
type TradeClient struct {
	log     *utils.Logger
	ws      *WSConn
	buses   TradeBuses
	limiter *ratelimit.RateLimiter

	mu        sync.Mutex
	pending   []Frame
	queueSize int

	retryCfg retry.Config
}

// NewTradeClient создаёт торговый клиент. Ключ шифрования из sec
// используется для расшифровки пароля брокера, если тот зашифрован.
func NewTradeClient(cfg config.BrokerConfig, sec config.SecurityConfig, buses TradeBuses, log *utils.Logger) (*TradeClient, error) {
	password := cfg.Password
	if cfg.PasswordEnc {
		decrypted, err := crypto.DecryptWithKeyString(cfg.Password, sec.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decrypt broker password: %w", err)
		}
		password = decrypted
	}

	wsCfg := DefaultWSConfig()
	if cfg.WSReconnectDelay > 0 {
		wsCfg.InitialDelay = cfg.WSReconnectDelay
	}
	if cfg.WSPingInterval > 0 {
		wsCfg.PingInterval = cfg.WSPingInterval
	}

	clog := log.WithComponent("td-client")

	retryCfg := retry.NetworkConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryBackoff > 0 {
		retryCfg.InitialDelay = cfg.RetryBackoff
	}
	retryCfg.RetryIf = retry.RetryIfNotContext
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		clog.Warn("Trade session retry",
			utils.Int("attempt", attempt), utils.Any("delay", delay.String()), utils.Err(err))
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	c := &TradeClient{
		log:       clog,
		buses:     buses,
		limiter:   ratelimit.NewRateLimiter(float64(cfg.OrderRatePerSec), float64(cfg.OrderBurst)),
		queueSize: queueSize,
		retryCfg:  retryCfg,
	}

	c.ws = NewWSConn("td", cfg.TradeURL, wsCfg, log)
	c.ws.SetOnMessage(c.handleMessage)

	login := LoginRequest{UserID: cfg.UserID, Password: password}
	c.ws.SetAuthFunc(func(conn *websocket.Conn) error {
		frame, err := encodeFrame(opLogin, login)
		if err != nil {
			return err
		}
		return conn.WriteJSON(frame)
	})

	return c, nil
}

// Connect устанавливает торговую сессию с retry и подписывает
// дренаж очереди на тики планировщика
func (c *TradeClient) Connect(ctx context.Context) error {
	if err := retry.Do(ctx, c.ws.Connect, c.retryCfg); err != nil {
		return err
	}
	if c.buses.Ticks != nil {
		if err := c.buses.Ticks.Subscribe("tdclient:drain", func(models.TickEvent) {
			c.drainPending()
		}); err != nil && !errors.Is(err, eventbus.ErrDuplicateHandler) {
			return fmt.Errorf("subscribe ticks: %w", err)
		}
	}
	return nil
}

// Close закрывает торговую сессию
func (c *TradeClient) Close() error {
	if c.buses.Ticks != nil {
		c.buses.Ticks.Unsubscribe("tdclient:drain")
	}
	return c.ws.Close()
}

// ============================================================
// Шлюз ордеров
// ============================================================

// PlaceOrder выставляет лимитный ордер. При исчерпании лимита
// потока кадр откладывается и будет отправлен на ближайшем тике.
func (c *TradeClient) PlaceOrder(_ context.Context, order *models.Order) error {
	frame, err := encodeFrame(opOrderInsert, OrderInsertRequest{
		Key:      order.Key,
		Symbol:   order.Symbol,
		Side:     order.Side,
		Price:    order.LimitPrice,
		Quantity: order.Quantity,
		Ref:      order.Ref,
	})
	if err != nil {
		return err
	}
	return c.sendOrDefer(frame, false)
}

// CancelOrder запрашивает отмену ордера по клиентскому ключу.
// Отложенные отмены имеют приоритет над отложенными выставлениями.
func (c *TradeClient) CancelOrder(_ context.Context, key string) error {
	frame, err := encodeFrame(opOrderCancel, OrderCancelRequest{Key: key})
	if err != nil {
		return err
	}
	return c.sendOrDefer(frame, true)
}

// sendOrDefer отправляет кадр при наличии токена, иначе откладывает
func (c *TradeClient) sendOrDefer(frame Frame, front bool) error {
	if c.limiter.Allow() {
		if err := c.ws.Send(frame); err != nil {
			return fmt.Errorf("send %s: %w", frame.Op, err)
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) >= c.queueSize {
		return fmt.Errorf("%w: %d frames deferred", ErrQueueFull, len(c.pending))
	}
	if front {
		c.pending = append([]Frame{frame}, c.pending...)
	} else {
		c.pending = append(c.pending, frame)
	}
	c.log.Warn("Order flow limit reached, frame deferred",
		utils.String("op", frame.Op),
		utils.Int("queued", len(c.pending)))
	return nil
}

// drainPending отправляет отложенные кадры, пока есть токены.
// Вызывается на каждом тике планировщика.
func (c *TradeClient) drainPending() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.mu.Unlock()
			return
		}
		if !c.limiter.Allow() {
			c.mu.Unlock()
			return
		}
		frame := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()

		if err := c.ws.Send(frame); err != nil {
			c.log.Error("Deferred frame send failed",
				utils.String("op", frame.Op), utils.Err(err))
			return
		}
	}
}

// PendingCount возвращает размер очереди отложенных кадров
func (c *TradeClient) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ============================================================
// Входящие события шлюза
// ============================================================

// handleMessage разбирает кадр шлюза и публикует событие на
// соответствующую шину. Вызывается из горутины чтения WS.
func (c *TradeClient) handleMessage(raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.log.Warn("Malformed trade frame", utils.Err(err))
		return
	}

	switch frame.Op {
	case opOrderStatus:
		var msg OrderStatusMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			c.log.Warn("Malformed order status payload", utils.Err(err))
			return
		}
		c.buses.Status.Publish(models.OrderStatusEvent{
			Key:       msg.Key,
			Status:    msg.Status,
			FilledQty: msg.FilledQty,
			AvgPrice:  msg.AvgPrice,
		})

	case opOrderReject:
		var msg OrderRejectMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			c.log.Warn("Malformed reject payload", utils.Err(err))
			return
		}
		c.buses.Rejects.Publish(models.OrderRejectEvent{Key: msg.Key, Reason: msg.Reason})

	case opCancelAck:
		var msg CancelAckMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			c.log.Warn("Malformed cancel ack payload", utils.Err(err))
			return
		}
		c.buses.Cancels.Publish(models.CancelConfirmedEvent{Key: msg.Key})
	}
}
