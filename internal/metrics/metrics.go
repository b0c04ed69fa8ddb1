package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/orderpulse/notification-service/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	DeliveryLatency     *prometheus.HistogramVec
	EventsConsumed      *prometheus.CounterVec
	EventsMalformed     prometheus.Counter
	ConsumerReconnects  prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of successfully delivered notifications.",
		}, []string{"type"}),

		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifications that reached the failed terminal status.",
		}, []string{"type"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_delivery_seconds",
			Help:    "Delivery latency from dispatch to transport ack, including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),

		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of broker events decoded and acknowledged. Unrecognized types are counted as unknown.",
		}, []string{"event_type"}),

		EventsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "events_malformed_total",
			Help: "Total number of undecodable events parked on the dead-letter queue.",
		}),

		ConsumerReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consumer_reconnects_total",
			Help: "Total number of broker reconnect attempts after a connection loss.",
		}),
	}

	reg.MustRegister(
		m.NotificationsSent,
		m.NotificationsFailed,
		m.DeliveryLatency,
		m.EventsConsumed,
		m.EventsMalformed,
		m.ConsumerReconnects,
	)

	return m
}

// DispatcherHooks returns the metric callback functions expected by
// dispatcher.MetricHooks. Centralises the prometheus observation calls so
// the dispatcher stays import-free.
func (m *Metrics) DispatcherHooks() (
	onSent func(domain.NotificationType, time.Duration),
	onFailed func(domain.NotificationType),
) {
	onSent = func(t domain.NotificationType, latency time.Duration) {
		m.NotificationsSent.WithLabelValues(string(t)).Inc()
		m.DeliveryLatency.WithLabelValues(string(t)).Observe(latency.Seconds())
	}
	onFailed = func(t domain.NotificationType) {
		m.NotificationsFailed.WithLabelValues(string(t)).Inc()
	}
	return
}

// ConsumerHooks returns the metric callbacks expected by consumer.MetricHooks.
func (m *Metrics) ConsumerHooks() (
	onConsumed func(eventType string),
	onMalformed func(),
	onReconnect func(),
) {
	onConsumed = func(eventType string) {
		m.EventsConsumed.WithLabelValues(eventType).Inc()
	}
	onMalformed = func() {
		m.EventsMalformed.Inc()
	}
	onReconnect = func() {
		m.ConsumerReconnects.Inc()
	}
	return
}
