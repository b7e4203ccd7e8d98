package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// ============================================================
// Фейковые коллабораторы для тестов движка
// ============================================================

// fakeFeed таблица котировок, управляемая тестом
type fakeFeed struct {
	mu         sync.RWMutex
	quotes     map[string]models.Quote
	subscribed []string
	subErr     error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{quotes: make(map[string]models.Quote)}
}

func (f *fakeFeed) Subscribe(_ context.Context, symbols ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return f.subErr
	}
	f.subscribed = append(f.subscribed, symbols...)
	return nil
}

func (f *fakeFeed) GetQuote(symbol string) (models.Quote, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quotes[symbol]
	return q, ok
}

func (f *fakeFeed) setQuote(symbol string, bid, ask float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[symbol] = models.Quote{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		UpdatedAt: time.Now(),
	}
}

func (f *fakeFeed) dropQuote(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.quotes, symbol)
}

// fakeGateway запоминает отправленные ордера и запрошенные отмены
type fakeGateway struct {
	mu        sync.Mutex
	placed    []models.Order
	cancelled []string
	placeErr  error
	cancelErr error
	failOnNth int // нумерация с 1: N-я отправка вернёт ошибку
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{}
}

func (g *fakeGateway) PlaceOrder(_ context.Context, order *models.Order) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.placeErr != nil {
		return g.placeErr
	}
	if g.failOnNth > 0 && len(g.placed)+1 == g.failOnNth {
		return errGatewayDown
	}
	g.placed = append(g.placed, *order)
	return nil
}

func (g *fakeGateway) CancelOrder(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, key)
	return nil
}

func (g *fakeGateway) placedOrders() []models.Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.Order, len(g.placed))
	copy(out, g.placed)
	return out
}

func (g *fakeGateway) cancelledKeys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.cancelled))
	copy(out, g.cancelled)
	return out
}

func (g *fakeGateway) lastPlaced() (models.Order, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.placed) == 0 {
		return models.Order{}, false
	}
	return g.placed[len(g.placed)-1], true
}

// fakeSink собирает записи об исполнениях
type fakeSink struct {
	mu      sync.Mutex
	records []models.FillRecord
	err     error
}

func (s *fakeSink) RecordFill(_ context.Context, fill models.FillRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, fill)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var errGatewayDown = errors.New("gateway unavailable")

// testLogger тихий логгер для тестов
func testLogger() *utils.Logger {
	return utils.InitLogger(utils.LogConfig{Level: "error", Output: "/dev/null"})
}
