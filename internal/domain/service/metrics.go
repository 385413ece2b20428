// Package service implements the domain services of the governance
// consistency layer: code allocation, effectiveness aggregation, residual
// recomputation, and guarded transitions.
package service

import (
	"time"

	"github.com/praxisgrc/praxis/pkg/constants"
)

// Metrics defines the interface for collecting business metrics. The
// abstraction keeps the domain independent of the monitoring implementation.
type Metrics interface {
	// RecordAllocation records one code allocation, its outcome
	// ("ok", "fallback", "error") and how many reserve attempts it took.
	RecordAllocation(class constants.EntityClass, result string, attempts int)

	// RecordRecompute records one residual recomputation run.
	RecordRecompute(tenantID string, success bool, duration time.Duration)

	// RecordTransition records one guarded transition attempt and its
	// outcome ("ok" or the rejection code).
	RecordTransition(field constants.ProtectedField, result string)

	// RecordCacheAccess records a residual cache hit or miss.
	RecordCacheAccess(hit bool)
}

// NoopMetrics discards every observation. Used in tests.
type NoopMetrics struct{}

func (NoopMetrics) RecordAllocation(class constants.EntityClass, result string, attempts int) {}
func (NoopMetrics) RecordRecompute(tenantID string, success bool, duration time.Duration)     {}
func (NoopMetrics) RecordTransition(field constants.ProtectedField, result string)            {}
func (NoopMetrics) RecordCacheAccess(hit bool)                                                {}
