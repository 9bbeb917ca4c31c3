// Package metrics holds the Prometheus collectors for a workspace session.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	GateDecisions   *prometheus.CounterVec
	GateScore       prometheus.Histogram
	GateMismatches  prometheus.Counter
	Transitions     *prometheus.CounterVec
	GeneratorCalls  *prometheus.CounterVec
	GeneratorTime   *prometheus.HistogramVec
	StorageFailures prometheus.Counter
	Events          prometheus.Counter
}

// New registers every collector on a fresh registry. Each session owns its
// registry so tests and parallel sessions do not collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "architect",
			Name:      "gate_decisions_total",
			Help:      "Decision gate outcomes by decision.",
		}, []string{"decision"}),
		GateScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "architect",
			Name:      "gate_total_score",
			Help:      "Total scores computed by the decision gate.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		GateMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "architect",
			Name:      "gate_decision_mismatches_total",
			Help:      "Evaluations where the generator's decision differed from the local formula.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "architect",
			Name:      "idea_transitions_total",
			Help:      "Idea status changes by target status.",
		}, []string{"to"}),
		GeneratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "architect",
			Name:      "generator_calls_total",
			Help:      "Generator calls by operation and result.",
		}, []string{"op", "result"}),
		GeneratorTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "architect",
			Name:      "generator_call_seconds",
			Help:      "Generator call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		StorageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "architect",
			Name:      "storage_failures_total",
			Help:      "Snapshot saves that failed.",
		}),
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "architect",
			Name:      "events_appended_total",
			Help:      "Events appended to the log.",
		}),
	}
	reg.MustRegister(
		m.GateDecisions, m.GateScore, m.GateMismatches, m.Transitions,
		m.GeneratorCalls, m.GeneratorTime, m.StorageFailures, m.Events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
