package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the hub. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	activeConnections prometheus.Gauge
	activeRooms       prometheus.Gauge
	joins             prometheus.Counter
	passwordFailures  prometheus.Counter
	kicks             prometheus.Counter
	roomsDeleted      prometheus.Counter
	messagesAccepted  *prometheus.CounterVec
	messagesDropped   *prometheus.CounterVec
	broadcastFanout   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_active_connections",
			Help: "Current number of live connections",
		}),
		activeRooms: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_active_rooms",
			Help: "Current number of rooms with at least one member",
		}),
		joins: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_joins_total",
			Help: "Total number of successful room joins",
		}),
		passwordFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_password_failures_total",
			Help: "Total number of joins rejected for a wrong password",
		}),
		kicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_kicks_total",
			Help: "Total number of members kicked by a host",
		}),
		roomsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_rooms_deleted_total",
			Help: "Total number of rooms deleted by their host",
		}),
		messagesAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_messages_accepted_total",
			Help: "Total number of chat messages accepted by type",
		}, []string{"type"}),
		messagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_messages_dropped_total",
			Help: "Total number of chat messages dropped by reason",
		}, []string{"reason"}),
		broadcastFanout: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "roomchat_broadcast_fanout",
			Help:    "Number of members that received each broadcast",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *Metrics) connectionOpened() {
	if m != nil {
		m.activeConnections.Inc()
	}
}

func (m *Metrics) connectionClosed() {
	if m != nil {
		m.activeConnections.Dec()
	}
}

func (m *Metrics) roomCreated() {
	if m != nil {
		m.activeRooms.Inc()
	}
}

func (m *Metrics) roomRemoved(deletedByHost bool) {
	if m == nil {
		return
	}
	m.activeRooms.Dec()
	if deletedByHost {
		m.roomsDeleted.Inc()
	}
}

func (m *Metrics) joined() {
	if m != nil {
		m.joins.Inc()
	}
}

func (m *Metrics) passwordRejected() {
	if m != nil {
		m.passwordFailures.Inc()
	}
}

func (m *Metrics) kicked() {
	if m != nil {
		m.kicks.Inc()
	}
}

func (m *Metrics) messageAccepted(kind MessageKind) {
	if m != nil {
		m.messagesAccepted.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) messageDropped(reason string) {
	if m != nil {
		m.messagesDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) broadcast(recipients int) {
	if m != nil {
		m.broadcastFanout.Observe(float64(recipients))
	}
}
