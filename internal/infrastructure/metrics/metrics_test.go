package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveSweep(t *testing.T) {
	m := New()

	m.ObserveSweep(time.Millisecond, 2)
	m.ObserveSweep(time.Millisecond, 0)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.sweepsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.markedOverdueTotal))
}

func TestMetrics_SetTaskCounts(t *testing.T) {
	m := New()

	m.SetTaskCounts(map[string]int{"scheduled": 3, "overdue": 1})
	assert.Equal(t, float64(3), testutil.ToFloat64(m.tasks.WithLabelValues("scheduled")))

	m.SetTaskCounts(map[string]int{"overdue": 2})
	assert.Equal(t, 1, testutil.CollectAndCount(m.tasks))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.tasks.WithLabelValues("overdue")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSweep(time.Second, 1)
		m.IncTransition("completed")
		m.SetTaskCounts(map[string]int{"scheduled": 1})
		m.SetBurialRecordCounts(map[string]int{"pending": 1})
		m.IncSnapshotWriteFailure()
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
}
