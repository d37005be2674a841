// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	nodeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "babsim_node_latency_ms",
		Help:    "Latency of pipeline node executions in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	}, []string{"node"})

	fallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "babsim_fallback_total",
		Help: "Adapter failures replaced by a fallback value",
	}, []string{"node", "kind"})

	runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "babsim_runs_total",
		Help: "Completed pipeline runs",
	}, []string{"intent", "forced_accept"})

	refinements = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "babsim_refinements",
		Help:    "Refinement cycles per text run",
		Buckets: []float64{0, 1, 2, 3, 5},
	})

	runLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "babsim_run_latency_ms",
		Help:    "End-to-end latency of pipeline runs in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
	}, []string{"intent"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(nodeLatency, fallbacks, runs, refinements, runLatency)
	})
}

// ObserveNode records how long a node took.
func ObserveNode(e *domain.NodeEvent) {
	ensureRegistered()
	nodeLatency.WithLabelValues(string(e.NodeID)).Observe(float64(e.Duration.Milliseconds()))
}

// IncFallback counts a fallback substitution.
func IncFallback(e *domain.FallbackEvent) {
	ensureRegistered()
	fallbacks.WithLabelValues(string(e.NodeID), e.Kind.String()).Inc()
}

// ObserveRun records a finished run.
func ObserveRun(e *domain.RunEvent) {
	ensureRegistered()
	intent := string(e.Intent)
	runs.WithLabelValues(intent, strconv.FormatBool(e.ForcedAccept)).Inc()
	runLatency.WithLabelValues(intent).Observe(float64(e.Duration.Milliseconds()))
	if e.Intent == domain.IntentText {
		refinements.Observe(float64(e.Refinements))
	}
}

// Hooks returns lifecycle hooks that feed the collectors.
func Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) { ObserveNode(e) },
		OnFallback:  func(_ context.Context, e *domain.FallbackEvent) { IncFallback(e) },
		OnRunComplete: func(_ context.Context, e *domain.RunEvent) {
			ObserveRun(e)
		},
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
