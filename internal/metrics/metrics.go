package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for registrations, store transactions,
// cache refreshes and background tasks.
type Metrics struct {
	Registrations         *prometheus.CounterVec
	TxAttempts            prometheus.Counter
	TxContention          prometheus.Counter
	TxDuration            prometheus.Histogram
	AnnouncementRefreshes *prometheus.CounterVec
	TasksEnqueued         *prometheus.CounterVec
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer
// in the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "conference_registrations_total",
			Help: "Register/unregister calls by action and outcome",
		}, []string{"action", "outcome"}),
		TxAttempts: f.NewCounter(prometheus.CounterOpts{
			Name: "conference_tx_attempts_total",
			Help: "Store transaction attempts, including retries",
		}),
		TxContention: f.NewCounter(prometheus.CounterOpts{
			Name: "conference_tx_contention_total",
			Help: "Store transaction attempts that lost a race and were retried",
		}),
		TxDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "conference_tx_duration_seconds",
			Help:    "Duration of a transaction including all retries",
			Buckets: durationBuckets,
		}),
		AnnouncementRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "conference_announcement_refreshes_total",
			Help: "Announcement refreshes by result (set, cleared, error)",
		}, []string{"result"}),
		TasksEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "conference_tasks_enqueued_total",
			Help: "Background tasks handed to the dispatcher by type and result",
		}, []string{"type", "result"}),
	}
}

// Noop returns metrics bound to a private registry, for tests and tools
// that never expose them.
func Noop() *Metrics { return New(prometheus.NewRegistry()) }

// IncrementRegistration records one ledger call.
func (m *Metrics) IncrementRegistration(action, outcome string) {
	m.Registrations.WithLabelValues(action, outcome).Inc()
}

// ObserveTx records the duration of a transaction.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTx(start time.Time) {
	m.TxDuration.Observe(time.Since(start).Seconds())
}

// IncrementTask records a dispatch attempt.
func (m *Metrics) IncrementTask(taskType, result string) {
	m.TasksEnqueued.WithLabelValues(taskType, result).Inc()
}
