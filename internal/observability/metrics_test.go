package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.MessagesConsumed.Inc()
	assert.Equal(t, 1.0, counterValue(t, a.MessagesConsumed))
	assert.Equal(t, 0.0, counterValue(t, b.MessagesConsumed))
}

func TestMetrics_CollectorsRegister(t *testing.T) {
	m := NewMetricsForTesting()
	m.ObserveStage("ffmc", 3*time.Millisecond)
	m.ObserveStage("ffmc", time.Millisecond)
	m.ObserveStage("fwi", time.Millisecond)
	m.EngineCache.WithLabelValues("hit").Inc()

	reg := prometheus.NewRegistry()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	stages := byName["fwi_etl_stage_duration_seconds"]
	require.NotNil(t, stages)
	assert.Len(t, stages.GetMetric(), 2)
	for _, metric := range stages.GetMetric() {
		if metric.GetLabel()[0].GetValue() == "ffmc" {
			assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
		}
	}

	assert.Contains(t, byName, "fwi_etl_engine_cache_total")
	assert.Contains(t, byName, "fwi_etl_messages_consumed_total")
}
