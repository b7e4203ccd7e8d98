package engine

import (
	"context"

	"github.com/ajmal017/dailyScript/internal/eventbus"
	"github.com/ajmal017/dailyScript/internal/models"
)

// MarketDataFeed поставщик котировок. Реализуется мостом маркет-даты;
// движок держит только read-only доступ к таблице котировок.
type MarketDataFeed interface {
	// Subscribe подписывает поток на инструменты
	Subscribe(ctx context.Context, symbols ...string) error

	// GetQuote возвращает последнюю котировку инструмента.
	// Отсутствие котировки не является ошибкой.
	GetQuote(symbol string) (models.Quote, bool)
}

// OrderGateway торговый шлюз. Принимает заявки и отмены,
// статусы приходят асинхронно через шину событий.
type OrderGateway interface {
	// PlaceOrder отправляет ордер. Ордер уже содержит ключ и цену.
	PlaceOrder(ctx context.Context, order *models.Order) error

	// CancelOrder запрашивает отмену по ключу ордера.
	// Подтверждение отмены приходит отдельным событием.
	CancelOrder(ctx context.Context, key string) error
}

// FillSink приёмник записей об исполнениях (write-only)
type FillSink interface {
	RecordFill(ctx context.Context, fill models.FillRecord) error
}

// Buses набор типизированных шин движка
type Buses struct {
	Quotes  *eventbus.Bus[models.QuoteEvent]
	Status  *eventbus.Bus[models.OrderStatusEvent]
	Rejects *eventbus.Bus[models.OrderRejectEvent]
	Cancels *eventbus.Bus[models.CancelConfirmedEvent]
	Ticks   *eventbus.Bus[models.TickEvent]
}

// NewBuses создаёт набор шин движка
func NewBuses() *Buses {
	return &Buses{
		Quotes:  eventbus.New[models.QuoteEvent](),
		Status:  eventbus.New[models.OrderStatusEvent](),
		Rejects: eventbus.New[models.OrderRejectEvent](),
		Cancels: eventbus.New[models.CancelConfirmedEvent](),
		Ticks:   eventbus.New[models.TickEvent](),
	}
}
