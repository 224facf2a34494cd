// Package metrics keeps the process-wide response-time instrumentation used
// by the /metrics snapshot endpoint. The registry is an explicitly-owned,
// injectable component rather than package-level state so tests can isolate
// it and multi-instance deployments can swap in an aggregating variant.
//
// Samples are append-only for the process lifetime; a production variant
// would cap or rotate the slice.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Sample records the outcome of one completed request. Exactly one sample is
// appended per request, including requests whose failure was converted by the
// instrumentation middleware.
type Sample struct {
	Path           string    `json:"path"`
	Method         string    `json:"method"`
	StatusCode     int       `json:"status_code"`
	ResponseTimeMS float64   `json:"response_time_ms"` // rounded to 2 decimals
	Timestamp      time.Time `json:"timestamp"`
	CorrelationID  string    `json:"correlation_id"`
}

// Snapshot is the JSON shape served by GET /metrics.
type Snapshot struct {
	TotalRequests     int               `json:"total_requests"`
	ResponseTimeStats SnapshotTimeStats `json:"response_time_stats"`
}

// SnapshotTimeStats aggregates response-time statistics.
type SnapshotTimeStats struct {
	AvgMS             float64 `json:"avg_ms"`
	MaxMS             float64 `json:"max_ms"`
	MinMS             float64 `json:"min_ms"`
	RequestsOver200MS int     `json:"requests_over_200ms"`
}

// Registry is a concurrency-safe, append-only store of response-time samples.
// The zero value is not usable; construct with NewRegistry.
type Registry struct {
	mu      sync.Mutex
	samples []Sample
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Record appends one sample. Safe for concurrent use.
func (r *Registry) Record(s Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

// Len returns the number of recorded samples.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Snapshot computes the aggregate view served at /metrics. With no samples it
// returns zero statistics rather than NaN.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{TotalRequests: len(r.samples)}
	if len(r.samples) == 0 {
		return snap
	}

	var sum float64
	min := math.MaxFloat64
	max := 0.0
	over := 0
	for _, s := range r.samples {
		sum += s.ResponseTimeMS
		if s.ResponseTimeMS < min {
			min = s.ResponseTimeMS
		}
		if s.ResponseTimeMS > max {
			max = s.ResponseTimeMS
		}
		if s.ResponseTimeMS > 200 {
			over++
		}
	}
	snap.ResponseTimeStats = SnapshotTimeStats{
		AvgMS:             RoundMS(sum / float64(len(r.samples))),
		MaxMS:             max,
		MinMS:             min,
		RequestsOver200MS: over,
	}
	return snap
}

// RoundMS rounds a millisecond value to two decimal places.
func RoundMS(ms float64) float64 {
	return math.Round(ms*100) / 100
}
