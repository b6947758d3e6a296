package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects the relay's operational counters. All helpers are
// nil-safe so the engine can run without a registry in tests.
type Metrics struct {
	activeConns   prometheus.Gauge
	onlineUsers   prometheus.Gauge
	activeRooms   prometheus.Gauge
	connsTotal    prometheus.Counter
	eventsRouted  *prometheus.CounterVec
	eventsDropped *prometheus.CounterVec
	authFailures  prometheus.Counter
}

// NewMetrics builds and registers the relay collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		activeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_connections_active",
			Help: "Current number of open relay connections.",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_users_online",
			Help: "Current number of distinct online users.",
		}),
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_rooms_active",
			Help: "Current number of rooms with at least one subscriber.",
		}),
		connsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_connections_total",
			Help: "Total connections accepted since start.",
		}),
		eventsRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_routed_total",
			Help: "Events routed to room members, by event name.",
		}, []string{"event"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_dropped_total",
			Help: "Inbound events dropped, by reason.",
		}, []string{"reason"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_auth_failures_total",
			Help: "Handshakes rejected for missing or invalid tokens.",
		}),
	}

	reg.MustRegister(
		m.activeConns,
		m.onlineUsers,
		m.activeRooms,
		m.connsTotal,
		m.eventsRouted,
		m.eventsDropped,
		m.authFailures,
	)
	return m
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
	m.connsTotal.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.activeConns.Dec()
}

func (m *Metrics) setOnlineUsers(n int) {
	if m == nil {
		return
	}
	m.onlineUsers.Set(float64(n))
}

func (m *Metrics) setActiveRooms(n int) {
	if m == nil {
		return
	}
	m.activeRooms.Set(float64(n))
}

func (m *Metrics) recordRouted(event string) {
	if m == nil {
		return
	}
	m.eventsRouted.WithLabelValues(event).Inc()
}

func (m *Metrics) recordDropped(reason string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(reason).Inc()
}

// RecordAuthFailure counts a rejected handshake. Exposed for the auth
// middleware, which runs before a connection reaches the engine.
func (m *Metrics) RecordAuthFailure() {
	if m == nil {
		return
	}
	m.authFailures.Inc()
}
