package cubewire

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by connections and servers.
// A nil *Metrics records nothing.
type Metrics struct {
	packetsSent         *prometheus.CounterVec
	packetsReceived     prometheus.Counter
	packetsDropped      prometheus.Counter
	bytesSent           prometheus.Counter
	rejectedConnections prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cubewire",
			Name:      "packets_sent_total",
			Help:      "Total number of packets written to connections",
		}, []string{"reliability"}),

		packetsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cubewire",
			Name:      "packets_received_total",
			Help:      "Total number of packets decoded from connections",
		}),

		packetsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cubewire",
			Name:      "packets_dropped_total",
			Help:      "Unreliable packets dropped because the send buffer was full",
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cubewire",
			Name:      "bytes_sent_total",
			Help:      "Total number of framed bytes written to connections",
		}),

		rejectedConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cubewire",
			Name:      "rejected_connections_total",
			Help:      "Connections closed because the peer matched the access list",
		}),
	}
}

func reliabilityLabel(reliable bool) string {
	if reliable {
		return "reliable"
	}
	return "unreliable"
}

func (m *Metrics) packetSent(reliable bool, bytes int) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(reliabilityLabel(reliable)).Inc()
	m.bytesSent.Add(float64(bytes))
}

func (m *Metrics) packetReceived() {
	if m == nil {
		return
	}
	m.packetsReceived.Inc()
}

func (m *Metrics) packetDropped() {
	if m == nil {
		return
	}
	m.packetsDropped.Inc()
}

func (m *Metrics) connectionRejected() {
	if m == nil {
		return
	}
	m.rejectedConnections.Inc()
}
