package engine

import (
	"sync/atomic"
	"time"

	"github.com/ajmal017/dailyScript/internal/eventbus"
	"github.com/ajmal017/dailyScript/internal/models"
	"github.com/ajmal017/dailyScript/pkg/utils"
)

// MinSweepInterval нижняя граница периода тика
const MinSweepInterval = time.Second

// Scheduler единственный периодический таймер торговой сессии.
// Публикует тики на шину; тики потребляют проход восстановления
// координатора и дренаж отложенных запросов шлюза.
type Scheduler struct {
	log      *utils.Logger
	interval time.Duration
	bus      *eventbus.Bus[models.TickEvent]

	seq     atomic.Uint64
	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// NewScheduler создаёт планировщик. Интервал меньше секунды
// поднимается до MinSweepInterval.
func NewScheduler(interval time.Duration, bus *eventbus.Bus[models.TickEvent], log *utils.Logger) *Scheduler {
	if interval < MinSweepInterval {
		interval = MinSweepInterval
	}
	return &Scheduler{
		log:      log.WithComponent("scheduler"),
		interval: interval,
		bus:      bus,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Interval возвращает действующий период тика
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start запускает цикл тиков. Повторный запуск игнорируется.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.log.Info("Scheduler started", utils.Any("interval", s.interval.String()))
	go s.run()
}

// run публикует тики до остановки. Публикация синхронная:
// начатая рассылка тика всегда доводится до конца перед выходом.
func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.bus.Publish(models.TickEvent{
				At:  now,
				Seq: s.seq.Add(1),
			})
		}
	}
}

// Stop останавливает планировщик и дожидается завершения
// текущей рассылки тика
func (s *Scheduler) Stop() {
	if !s.started.Load() {
		return
	}
	select {
	case <-s.stop:
		// уже остановлен
	default:
		close(s.stop)
	}
	<-s.done
	s.log.Info("Scheduler stopped", utils.Int64("ticks", int64(s.seq.Load())))
}
