package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	NoticesDispatched prometheus.Counter
	NoticesExpired    prometheus.Counter
	StaleTasksDropped prometheus.Counter
	EventsDropped     prometheus.Counter
	QueueDepth        prometheus.GaugeFunc
	Subscribers       prometheus.GaugeFunc
}

// New registers all instruments with the given Prometheus registerer.
// Queue depth and subscriber count are read on scrape via the supplied
// functions rather than updated on every mutation.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer, queueDepth, subscribers func() float64) *Metrics {
	m := &Metrics{
		NoticesDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notices_dispatched_total",
			Help: "Total number of notices handed to the broadcaster.",
		}),
		NoticesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notices_expired_total",
			Help: "Total number of notices expired by the dispatcher at pop time.",
		}),
		StaleTasksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stale_dispatch_tasks_total",
			Help: "Total number of queue entries discarded because their notice was deleted or no longer published.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "subscriber_events_dropped_total",
			Help: "Total number of events dropped for individual subscribers (full buffer or rate limit).",
		}),
		QueueDepth: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Current number of queued dispatch tasks, stale entries included.",
		}, queueDepth),
		Subscribers: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "subscribers_current",
			Help: "Current number of live subscribers.",
		}, subscribers),
	}

	reg.MustRegister(
		m.NoticesDispatched,
		m.NoticesExpired,
		m.StaleTasksDropped,
		m.EventsDropped,
		m.QueueDepth,
		m.Subscribers,
	)

	return m
}

// DispatcherHooks returns the metric callbacks expected by the dispatcher.
// Centralises the prometheus observation calls so dispatcher.go stays
// import-free.
func (m *Metrics) DispatcherHooks() (onDispatched, onExpired, onStale func()) {
	return m.NoticesDispatched.Inc, m.NoticesExpired.Inc, m.StaleTasksDropped.Inc
}
