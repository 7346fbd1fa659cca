// Package metrics exposes Prometheus instrumentation for the session
// runtime.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voicecore"

var (
	// EventsRouted counts inbound transport events by frame type.
	EventsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_routed_total",
			Help:      "Total number of transport events routed into the turn log",
		},
		[]string{"type"},
	)

	// ConfigsPushed counts session configurations sent to the transport.
	ConfigsPushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "configs_pushed_total",
			Help:      "Total number of session configurations pushed to the transport",
		},
	)

	// ConfigsCoalesced counts pending pushes superseded before sending.
	ConfigsCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "configs_coalesced_total",
			Help:      "Total number of pending configuration pushes replaced by a newer one",
		},
	)

	// PersistenceFailures counts failed backend writes by operation.
	PersistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Total number of non-fatal persistence failures",
		},
		[]string{"op"},
	)

	// MemoryRecomputations counts relevance recomputation outcomes.
	MemoryRecomputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_recomputations_total",
			Help:      "Total number of relevant-memory recomputations by outcome",
		},
		[]string{"status"}, // status: applied, stale, error
	)
)

var allMetrics = []prometheus.Collector{
	EventsRouted,
	ConfigsPushed,
	ConfigsCoalesced,
	PersistenceFailures,
	MemoryRecomputations,
}

// MustRegister registers every runtime metric with the given registry.
func MustRegister(reg *prometheus.Registry) {
	for _, c := range allMetrics {
		reg.MustRegister(c)
	}
}
