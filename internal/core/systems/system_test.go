package systems

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorderAggregates(t *testing.T) {
	var r Recorder
	start := time.Now()

	r.Observe(start, 4*time.Millisecond, 20)
	r.Observe(start.Add(time.Second), 2*time.Millisecond, 0)

	m := r.Snapshot()
	assert.Equal(t, uint64(2), m.ExecutionCount)
	assert.Equal(t, 6*time.Millisecond, m.TotalExecutionTime)
	assert.Equal(t, 3*time.Millisecond, m.AverageExecutionTime)
	assert.Equal(t, 4*time.Millisecond, m.MaxExecutionTime)
	assert.Equal(t, 2*time.Millisecond, m.MinExecutionTime)
	assert.Equal(t, uint64(20), m.EntitiesProcessed)
	assert.Zero(t, m.LastProcessed)
	assert.Equal(t, start.Add(time.Second), m.LastExecutionTime)
}
