package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("locations:generate").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("locations:generate").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("locations:generate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("locations:generate", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("locations:generate")))

	m.SetOvercommitted(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.overcommitted))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NoError(t, m.Track("x").End(nil))
	m.SetOvercommitted(1)
	m.SetLocations(750)
}
