package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	_ = metrics.Track("sessions:sweep").End(nil)
	err := metrics.Track("sessions:sweep").End(errors.New("boom"))
	assert.EqualError(t, err, "boom")

	assert.Equal(t, 1.0, counterValue(t, reg, "octabox_jobs_total", map[string]string{"job": "sessions:sweep", "status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "octabox_jobs_failures_total", map[string]string{"job": "sessions:sweep"}))
}

func TestAddSwept(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.AddSwept("sessions", 4)
	metrics.AddSwept("sessions", 0)
	assert.Equal(t, 4.0, counterValue(t, reg, "octabox_jobs_swept_rows_total", map[string]string{"kind": "sessions"}))
}

func TestNilMetricsTracker(t *testing.T) {
	var metrics *Metrics
	assert.NoError(t, metrics.Track("x").End(nil))
	metrics.AddSwept("sessions", 1)
}
