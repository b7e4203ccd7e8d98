package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики движка парных сделок
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах

// ============ Счётчики жизненного цикла ============

// TriggersFired - срабатывания триггеров спреда
var TriggersFired = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "triggers_fired_total",
		Help:      "Number of spread trigger firings",
	},
	[]string{"direction"},
)

// OrdersPlaced - отправленные ордера по ролям
var OrdersPlaced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "orders_placed_total",
		Help:      "Number of orders submitted to the gateway",
	},
	[]string{"role", "side"},
)

// OrdersRejected - отклонённые шлюзом ордера
var OrdersRejected = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "orders_rejected_total",
		Help:      "Number of orders rejected by the gateway",
	},
)

// FillsApplied - применённые приросты заполнения
var FillsApplied = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "fills_applied_total",
		Help:      "Number of fill increments applied to pair orders",
	},
)

// RecoveryBranches - выбор ветки протокола восстановления
var RecoveryBranches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "recovery_branches_total",
		Help:      "Recovery protocol branch decisions",
	},
	[]string{"branch"}, // close, cancel_only, chase
)

// PairsFinished - завершённые парные сделки
var PairsFinished = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "pairs_finished_total",
		Help:      "Number of pair orders moved to the finished set",
	},
)

// ============ Метрики состояния ============

// RunningPairsGauge - текущее количество активных парных сделок
var RunningPairsGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "running_pairs",
		Help:      "Current number of running pair orders",
	},
)

// FinishedPairsGauge - размер завершённого набора
var FinishedPairsGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "finished_pairs",
		Help:      "Current size of the finished pair order set",
	},
)

// NetExposureGauge - суммарная абсолютная экспозиция активных сделок,
// обновляется на каждом проходе восстановления
var NetExposureGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "net_exposure_abs",
		Help:      "Sum of absolute net exposure across running pair orders",
	},
)

// ============ Метрики производительности ============

// SweepDuration - длительность одного прохода восстановления
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "sweep_duration_ms",
		Help:      "Duration of one recovery sweep in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
	},
)

// MailboxDepth - заполненность почтового ящика координатора
var MailboxDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "mailbox_depth",
		Help:      "Current depth of the coordinator mailbox",
	},
)

// SpreadObserved - наблюдаемые спреды при срабатывании триггера
var SpreadObserved = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "pairtrader",
		Subsystem: "engine",
		Name:      "spread_observed",
		Help:      "Spread values observed at trigger evaluation",
		Buckets:   []float64{-10, -5, -2, -1, 0, 1, 2, 5, 10, 20},
	},
	[]string{"direction"},
)

// ============ Вспомогательные функции ============

// RecordTriggerFired записывает срабатывание триггера
func RecordTriggerFired(direction string, spread float64) {
	TriggersFired.WithLabelValues(direction).Inc()
	SpreadObserved.WithLabelValues(direction).Observe(spread)
}

// RecordOrderPlaced записывает отправку ордера
func RecordOrderPlaced(role, side string) {
	OrdersPlaced.WithLabelValues(role, side).Inc()
}

// RecordRecoveryBranch записывает выбранную ветку восстановления
func RecordRecoveryBranch(branch string) {
	RecoveryBranches.WithLabelValues(branch).Inc()
}

// RecordSweepDuration записывает длительность прохода
func RecordSweepDuration(ms float64) {
	SweepDuration.Observe(ms)
}

// UpdateRunningPairs обновляет счётчик активных сделок
func UpdateRunningPairs(count int) {
	RunningPairsGauge.Set(float64(count))
}

// UpdateFinishedPairs обновляет размер завершённого набора
func UpdateFinishedPairs(count int) {
	FinishedPairsGauge.Set(float64(count))
}

// UpdateNetExposure обновляет суммарную абсолютную экспозицию
func UpdateNetExposure(total float64) {
	NetExposureGauge.Set(total)
}
