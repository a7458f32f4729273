package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/trainings/:id/enroll", "POST", 201, time.Millisecond)
	m.RecordRequest("/api/trainings/:id/enroll", "POST", 201, time.Millisecond)
	m.RecordError("/api/trainings/:id/enroll", "POST", "TRAINING_FULL")
	m.RecordEnrollment("confirmed")

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap["requests"]["/api/trainings/:id/enroll|POST|201"])
	require.Equal(t, int64(1), snap["errors"]["/api/trainings/:id/enroll|POST|TRAINING_FULL"])
	require.Equal(t, int64(1), snap["enrollments"]["confirmed"])

	snap["enrollments"]["confirmed"] = 99
	require.Equal(t, int64(1), m.Snapshot()["enrollments"]["confirmed"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordEnrollment("confirmed")
	require.Nil(t, m.Snapshot())
}
