package systems

import (
	"sync"
	"time"
)

// System is a scheduled processor the host drives once per activation.
type System interface {
	Name() string
	IsEnabled() bool
	GetMetrics() Metrics
}

// Metrics provides runtime metrics for a system or one of its passes.
type Metrics struct {
	ExecutionCount       uint64        `json:"execution_count"`
	TotalExecutionTime   time.Duration `json:"total_execution_time"`
	AverageExecutionTime time.Duration `json:"average_execution_time"`
	MaxExecutionTime     time.Duration `json:"max_execution_time"`
	MinExecutionTime     time.Duration `json:"min_execution_time"`
	LastExecutionTime    time.Time     `json:"last_execution_time,omitzero"`
	EntitiesProcessed    uint64        `json:"entities_processed"`
	LastProcessed        int           `json:"last_processed"`
}

// Recorder accumulates Metrics. The zero value is ready to use and safe
// for concurrent Observe and Snapshot calls.
type Recorder struct {
	mu sync.Mutex
	m  Metrics
}

// Observe records one execution.
func (r *Recorder) Observe(start time.Time, took time.Duration, processed int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.m.ExecutionCount++
	r.m.TotalExecutionTime += took
	r.m.AverageExecutionTime = r.m.TotalExecutionTime / time.Duration(r.m.ExecutionCount)
	if took > r.m.MaxExecutionTime {
		r.m.MaxExecutionTime = took
	}
	if r.m.ExecutionCount == 1 || took < r.m.MinExecutionTime {
		r.m.MinExecutionTime = took
	}
	r.m.LastExecutionTime = start
	if processed > 0 {
		r.m.EntitiesProcessed += uint64(processed)
	}
	r.m.LastProcessed = processed
}

func (r *Recorder) Snapshot() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m
}
