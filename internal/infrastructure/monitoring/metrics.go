package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/constants"
)

// Metrics holds the Prometheus collectors for the governance layer and
// implements the domain's service.Metrics interface.
type Metrics struct {
	AllocationAttempts *prometheus.HistogramVec
	Allocations        *prometheus.CounterVec
	RecomputeRuns      *prometheus.CounterVec
	RecomputeLatency   *prometheus.HistogramVec
	Transitions        *prometheus.CounterVec
	CacheAccesses      *prometheus.CounterVec
}

var _ service.Metrics = (*Metrics)(nil)

// NewMetrics creates and registers the Prometheus collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Allocations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxis_code_allocations_total",
				Help: "Total number of code allocations by entity class and result.",
			},
			[]string{"class", "result"},
		),
		AllocationAttempts: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "praxis_code_allocation_attempts",
				Help:    "Reserve attempts one allocation needed before it succeeded.",
				Buckets: []float64{1, 2, 3, 4, 5, 10, 25, 50},
			},
			[]string{"class"},
		),
		RecomputeRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxis_residual_recomputes_total",
				Help: "Total number of residual recomputation runs.",
			},
			[]string{"tenant_id", "result"},
		),
		RecomputeLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "praxis_residual_recompute_seconds",
				Help:    "Latency of residual recomputation runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tenant_id"},
		),
		Transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxis_guarded_transitions_total",
				Help: "Total number of guarded transition attempts by field and outcome.",
			},
			[]string{"field", "result"},
		),
		CacheAccesses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxis_residual_cache_accesses_total",
				Help: "Residual cache lookups by outcome.",
			},
			[]string{"result"},
		),
	}
}

// RecordAllocation records one code allocation outcome.
func (m *Metrics) RecordAllocation(class constants.EntityClass, result string, attempts int) {
	m.Allocations.WithLabelValues(string(class), result).Inc()
	m.AllocationAttempts.WithLabelValues(string(class)).Observe(float64(attempts))
}

// RecordRecompute records one residual recomputation run.
func (m *Metrics) RecordRecompute(tenantID string, success bool, duration time.Duration) {
	result := "ok"
	if !success {
		result = "error"
	}
	m.RecomputeRuns.WithLabelValues(tenantID, result).Inc()
	m.RecomputeLatency.WithLabelValues(tenantID).Observe(duration.Seconds())
}

// RecordTransition records one guarded transition attempt.
func (m *Metrics) RecordTransition(field constants.ProtectedField, result string) {
	m.Transitions.WithLabelValues(string(field), result).Inc()
}

// RecordCacheAccess records a residual cache hit or miss.
func (m *Metrics) RecordCacheAccess(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccesses.WithLabelValues(result).Inc()
}
