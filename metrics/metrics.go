// Package metrics exposes Prometheus instrumentation for the dispatch
// and streaming paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors shared by coordinator, stream manager
// and gateway.
type Metrics struct {
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	ActiveStreams    prometheus.Gauge
	StreamChunks     prometheus.Counter
	ConnectedClients prometheus.Gauge
}

// New registers the collectors on reg. A nil Registerer falls back to a
// private registry, which keeps tests and optional wiring free of
// global-registry collisions.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)

	return &Metrics{
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swarmgate_dispatches_total",
			Help: "Dispatch invocations by agent and outcome status.",
		}, []string{"agent_id", "status"}),
		DispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swarmgate_dispatch_duration_seconds",
			Help:    "Backend invocation latency by agent.",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent_id"}),
		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "swarmgate_active_streams",
			Help: "Streaming sessions currently in flight.",
		}),
		StreamChunks: factory.NewCounter(prometheus.CounterOpts{
			Name: "swarmgate_stream_chunks_total",
			Help: "Chunks delivered across all streaming sessions.",
		}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "swarmgate_connected_clients",
			Help: "Websocket clients currently connected.",
		}),
	}
}

// ObserveDispatch records one dispatch outcome.
func (m *Metrics) ObserveDispatch(agentID, status string, dur time.Duration) {
	m.DispatchTotal.WithLabelValues(agentID, status).Inc()
	m.DispatchDuration.WithLabelValues(agentID).Observe(dur.Seconds())
}
