package eventbus

import (
	"errors"
	"runtime"
	"sync"
)

// Ошибки шины событий
var (
	ErrDuplicateHandler = errors.New("handler already subscribed with this key")
	ErrInvalidHandler   = errors.New("handler must be non-nil and key must be non-empty")
)

// HandlerFunc обработчик события типа T
type HandlerFunc[T any] func(event T)

// subscription одна подписка на шине
type subscription[T any] struct {
	key     string
	handler HandlerFunc[T]
	weak    bool
	dead    bool // слабая подписка, владелец которой собран GC
}

// Bus типизированная шина событий с синхронной доставкой.
// Обработчики вызываются в порядке регистрации; высокоприоритетные
// подписки встают в начало очереди. Доставка идёт по снимку списка,
// поэтому отписка обработчика во время publish не влияет на текущую
// рассылку.
type Bus[T any] struct {
	mu    sync.Mutex
	subs  []*subscription[T]
	index map[string]*subscription[T]
}

// New создаёт пустую шину событий
func New[T any]() *Bus[T] {
	return &Bus[T]{
		index: make(map[string]*subscription[T]),
	}
}

// ============================================================
// Опции подписки
// ============================================================

type subscribeOptions struct {
	hiPriority bool
	weakOwner  any
}

// SubscribeOption настраивает подписку
type SubscribeOption func(*subscribeOptions)

// WithHiPriority ставит подписку в начало очереди доставки
func WithHiPriority() SubscribeOption {
	return func(o *subscribeOptions) { o.hiPriority = true }
}

// WithWeakOwner привязывает время жизни подписки к владельцу:
// когда owner собирается GC, подписка снимается автоматически.
// Момент снятия не специфицирован, поэтому слабые подписки годятся
// только для некритичных наблюдателей (метрики, логирование).
// owner должен быть указателем.
func WithWeakOwner(owner any) SubscribeOption {
	return func(o *subscribeOptions) { o.weakOwner = owner }
}

// ============================================================
// Операции шины
// ============================================================

// Subscribe регистрирует обработчик под уникальным ключом.
// Повторная регистрация того же ключа возвращает ErrDuplicateHandler.
func (b *Bus[T]) Subscribe(key string, handler HandlerFunc[T], opts ...SubscribeOption) error {
	if handler == nil || key == "" {
		return ErrInvalidHandler
	}

	var options subscribeOptions
	for _, opt := range opts {
		opt(&options)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.index[key]; exists {
		return ErrDuplicateHandler
	}

	sub := &subscription[T]{
		key:     key,
		handler: handler,
		weak:    options.weakOwner != nil,
	}

	if options.hiPriority {
		b.subs = append([]*subscription[T]{sub}, b.subs...)
	} else {
		b.subs = append(b.subs, sub)
	}
	b.index[key] = sub

	if options.weakOwner != nil {
		runtime.SetFinalizer(options.weakOwner, func(any) {
			b.markDead(key, sub)
		})
	}

	return nil
}

// markDead помечает слабую подписку мёртвой; удаление отложено до Publish
func (b *Bus[T]) markDead(key string, sub *subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.index[key]; ok && cur == sub {
		sub.dead = true
	}
}

// Unsubscribe снимает подписку. Отсутствующий ключ - no-op.
func (b *Bus[T]) Unsubscribe(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.index[key]
	if !ok {
		return
	}
	delete(b.index, key)
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

// Publish синхронно доставляет событие всем текущим подписчикам
// в порядке очереди. Мёртвые слабые подписки вычищаются перед доставкой.
func (b *Bus[T]) Publish(event T) {
	b.mu.Lock()
	b.sweepDeadLocked()
	snapshot := make([]*subscription[T], len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, sub := range snapshot {
		sub.handler(event)
	}
}

// sweepDeadLocked удаляет подписки собранных GC владельцев.
// Вызывается только под mu.
func (b *Bus[T]) sweepDeadLocked() {
	kept := b.subs[:0]
	for _, s := range b.subs {
		if s.dead {
			delete(b.index, s.key)
			continue
		}
		kept = append(kept, s)
	}
	b.subs = kept
}

// Len возвращает количество живых подписок
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweepDeadLocked()
	return len(b.subs)
}

// Has сообщает, зарегистрирован ли ключ
func (b *Bus[T]) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.index[key]
	return ok && !sub.dead
}
