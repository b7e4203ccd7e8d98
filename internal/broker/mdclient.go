package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ajmal017/dailyScript/internal/config"
	"github.com/ajmal017/dailyScript/internal/eventbus"
	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/retry"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// MarketDataClient поток котировок моста брокера.
// Ведёт доску последних котировок для чтения по требованию и
// публикует каждое обновление на шину событий котировок.
type MarketDataClient struct {
	log *utils.Logger
	ws  *WSConn
	bus *eventbus.Bus[models.QuoteEvent]

	mu         sync.RWMutex
	board      map[string]models.Quote
	subscribed map[string]struct{}

	retryCfg retry.Config
}

// NewMarketDataClient создаёт клиент маркет-даты
func NewMarketDataClient(cfg config.BrokerConfig, bus *eventbus.Bus[models.QuoteEvent], log *utils.Logger) *MarketDataClient {
	wsCfg := DefaultWSConfig()
	if cfg.WSReconnectDelay > 0 {
		wsCfg.InitialDelay = cfg.WSReconnectDelay
	}
	if cfg.WSPingInterval > 0 {
		wsCfg.PingInterval = cfg.WSPingInterval
	}

	clog := log.WithComponent("md-client")

	retryCfg := retry.NetworkConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryBackoff > 0 {
		retryCfg.InitialDelay = cfg.RetryBackoff
	}
	retryCfg.RetryIf = retry.RetryIfNotContext
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		clog.Warn("Market data session retry",
			utils.Int("attempt", attempt), utils.Any("delay", delay.String()), utils.Err(err))
	}

	c := &MarketDataClient{
		log:        clog,
		bus:        bus,
		board:      make(map[string]models.Quote),
		subscribed: make(map[string]struct{}),
		retryCfg:   retryCfg,
	}
	c.ws = NewWSConn("md", cfg.MarketDataURL, wsCfg, log)
	c.ws.SetOnMessage(c.handleMessage)
	return c
}

// Connect устанавливает сессию маркет-даты с retry
func (c *MarketDataClient) Connect(ctx context.Context) error {
	return retry.Do(ctx, c.ws.Connect, c.retryCfg)
}

// Close закрывает сессию
func (c *MarketDataClient) Close() error {
	return c.ws.Close()
}

// Subscribe подписывается на котировки инструментов.
// Повторная подписка на уже подписанный инструмент не отправляется.
// Кадр подписки воспроизводится после каждого переподключения.
func (c *MarketDataClient) Subscribe(ctx context.Context, symbols ...string) error {
	c.mu.Lock()
	fresh := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := c.subscribed[s]; ok {
			continue
		}
		c.subscribed[s] = struct{}{}
		fresh = append(fresh, s)
	}
	c.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}

	frame, err := encodeFrame(opSubscribe, SubscribeRequest{Symbols: fresh})
	if err != nil {
		return err
	}
	c.ws.AddReplay(frame)

	if err := c.ws.Send(frame); err != nil {
		return fmt.Errorf("subscribe %v: %w", fresh, err)
	}
	c.log.Info("Market data subscribed", utils.Any("symbols", fresh))
	return nil
}

// GetQuote возвращает последнюю котировку инструмента
func (c *MarketDataClient) GetQuote(symbol string) (models.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.board[symbol]
	return q, ok
}

// handleMessage разбирает кадр моста, обновляет доску котировок
// и публикует событие. Вызывается из горутины чтения WS.
func (c *MarketDataClient) handleMessage(raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.log.Warn("Malformed market data frame", utils.Err(err))
		return
	}
	if frame.Op != opQuote {
		return
	}

	var msg QuoteMessage
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		c.log.Warn("Malformed quote payload", utils.Err(err))
		return
	}
	if msg.Symbol == "" {
		return
	}

	quote := models.Quote{
		Symbol:    msg.Symbol,
		Bid:       msg.Bid,
		Ask:       msg.Ask,
		BidVolume: msg.BidVolume,
		AskVolume: msg.AskVolume,
		UpdatedAt: time.UnixMilli(msg.Ts),
	}

	c.mu.Lock()
	c.board[msg.Symbol] = quote
	c.mu.Unlock()

	c.bus.Publish(models.QuoteEvent{Symbol: msg.Symbol, Quote: quote})
}
