// Package telemetry exposes the server's Prometheus metrics.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the server registers. All observe methods
// are safe on a nil receiver so wiring code can leave telemetry out.
type Metrics struct {
	broadcastEvents   *prometheus.CounterVec
	broadcastSends    prometheus.Counter
	broadcastPruned   prometheus.Counter
	subscribers       *prometheus.GaugeVec
	reservations      *prometheus.CounterVec
	contributions     *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	websocketUpgrades prometheus.Counter
}

// New registers the server's collectors with reg, or with the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		broadcastEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "giftwell_broadcast_events_total",
			Help: "Events published to realtime topics, by event type.",
		}, []string{"event"}),
		broadcastSends: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftwell_broadcast_deliveries_total",
			Help: "Individual event deliveries that succeeded.",
		}),
		broadcastPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftwell_broadcast_pruned_subscribers_total",
			Help: "Subscribers detached because a send failed.",
		}),
		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "giftwell_realtime_subscribers",
			Help: "Currently attached websocket subscribers, by topic family.",
		}, []string{"family"}),
		reservations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "giftwell_reservations_total",
			Help: "Reservation attempts, by outcome.",
		}, []string{"outcome"}),
		contributions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "giftwell_contributions_total",
			Help: "Contribution attempts, by outcome.",
		}, []string{"outcome"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "giftwell_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		websocketUpgrades: factory.NewCounter(prometheus.CounterOpts{
			Name: "giftwell_websocket_upgrades_total",
			Help: "Successful websocket upgrades.",
		}),
	}
}

// Reservation and contribution outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeReplayed  = "replayed"
	OutcomeConflict  = "conflict"
	OutcomeDuplicate = "duplicate"
)

func (m *Metrics) ObserveBroadcast(event string, delivered, pruned int) {
	if m == nil {
		return
	}
	m.broadcastEvents.WithLabelValues(event).Inc()
	if delivered > 0 {
		m.broadcastSends.Add(float64(delivered))
	}
	if pruned > 0 {
		m.broadcastPruned.Add(float64(pruned))
	}
}

func (m *Metrics) SubscriberAttached(family string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(family).Inc()
	m.websocketUpgrades.Inc()
}

func (m *Metrics) SubscriberDetached(family string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(family).Dec()
}

func (m *Metrics) ReservationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ContributionOutcome(outcome string) {
	if m == nil {
		return
	}
	m.contributions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
