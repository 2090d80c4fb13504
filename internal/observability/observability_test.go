package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.PollCycles.WithLabelValues("dashboard", "success").Inc()
	m.AlertsRaised.Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(m.PollCycles.WithLabelValues("dashboard", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertsRaised), 0)
}
