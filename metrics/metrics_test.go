package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.WithLabelValues(labels...).Write(m))
	return m.GetGauge().GetValue()
}

func TestJobsInFlightTracksSetCalls(t *testing.T) {
	m := Default
	m.JobsInFlight.WithLabelValues("generation").Set(3)
	require.Equal(t, float64(3), gaugeValue(t, m.JobsInFlight, "generation"))
}

func TestObserveResolutionIncrementsCounter(t *testing.T) {
	m := Default
	m.ObserveResolution("llm", "Free", "ollama", "resolved")
	m.ObserveResolution("llm", "Free", "ollama", "resolved")

	out := &dto.Metric{}
	require.NoError(t, m.ProviderResolutions.WithLabelValues("llm", "Free", "ollama", "resolved").Write(out))
	require.Equal(t, float64(2), out.GetCounter().GetValue())
}

func TestSubprocessCountersStartAtZero(t *testing.T) {
	m := Default
	out := &dto.Metric{}
	require.NoError(t, m.SubprocessesKilled.Write(out))
	require.Equal(t, float64(0), out.GetCounter().GetValue())
}
