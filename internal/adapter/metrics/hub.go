package metrics

import "github.com/prometheus/client_golang/prometheus"

// HubMetrics holds Prometheus metrics for connections, fan-out and commands.
type HubMetrics struct {
	ActiveConnections prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	RejectedUpgrades  *prometheus.CounterVec // reason
	Broadcasts        *prometheus.CounterVec // message type
	Unicasts          *prometheus.CounterVec // message type
	Deliveries        *prometheus.CounterVec // result: delivered, evicted
	Ticks             *prometheus.CounterVec // outcome: broadcast, skipped
	Commands          *prometheus.CounterVec // kind, result
	EmergencyStops    prometheus.Counter
}

// NewHubMetrics creates and registers hub metrics on the given registry.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "active_connections",
			Help:      "Number of connections currently in the registry.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "connections_total",
			Help:      "Total number of accepted WebSocket connections.",
		}),
		RejectedUpgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "rejected_upgrades_total",
			Help:      "Upgrade requests refused before a connection was registered.",
		}, []string{"reason"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "messages_total",
			Help:      "Messages serialized for fan-out to every connection.",
		}, []string{"type"}),
		Unicasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "unicasts_total",
			Help:      "Messages sent to a single connection.",
		}, []string{"type"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "deliveries_total",
			Help:      "Per-connection delivery attempts by result.",
		}, []string{"result"}),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticker",
			Name:      "ticks_total",
			Help:      "Ticker fires by outcome.",
		}, []string{"outcome"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "handled_total",
			Help:      "Inbound control messages by kind and result.",
		}, []string{"kind", "result"}),
		EmergencyStops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "emergency_stops_total",
			Help:      "Emergency stop alerts broadcast.",
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.ConnectionsTotal,
		m.RejectedUpgrades,
		m.Broadcasts,
		m.Unicasts,
		m.Deliveries,
		m.Ticks,
		m.Commands,
		m.EmergencyStops,
	)
	return m
}

// RegisterConnectionSlots exposes the number of held connection slots,
// which counts upgrades still in flight on top of registered connections.
func RegisterConnectionSlots(reg prometheus.Registerer, held func() int64) prometheus.GaugeFunc {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "connection_slots_held",
		Help:      "Connection slots taken from the global cap.",
	}, func() float64 { return float64(held()) })
	reg.MustRegister(g)
	return g
}
