// Package metrics holds the process-wide Prometheus collectors, built once
// at package init via promauto, covering job lifecycle, provider
// resolution, and subprocess surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/auracorp/aurastudio/config"
)

// StudioMetrics collects the counters and gauges exposed on /metrics.
type StudioMetrics struct {
	Version string

	JobsInFlight         *prometheus.GaugeVec
	JobsSubmitted        *prometheus.CounterVec
	JobDurationSec       *prometheus.HistogramVec
	StageDurationSec     *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	ProviderResolutions *prometheus.CounterVec
	ProviderRetries     *prometheus.CounterVec

	SubprocessesLaunched prometheus.Counter
	SubprocessesKilled   prometheus.Counter
	SubprocessesActive   prometheus.Gauge
}

var jobLabels = []string{"kind"}
var stageLabels = []string{"stage"}
var providerLabels = []string{"capability", "tier", "provider", "outcome"}

// New constructs a fresh StudioMetrics registered against the default
// registry. Call it once at process startup.
func New() *StudioMetrics {
	m := &StudioMetrics{
		Version: config.Version,

		JobsInFlight: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aurastudio_jobs_in_flight",
			Help: "Number of jobs currently queued or running, by kind",
		}, jobLabels),
		JobsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurastudio_jobs_submitted_total",
			Help: "Total number of jobs admitted to the queue, by kind",
		}, jobLabels),
		JobDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aurastudio_job_duration_seconds",
			Help:    "Time from job admission to a terminal state",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, jobLabels),
		StageDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aurastudio_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{.5, 1, 5, 15, 30, 60, 120, 300},
		}, stageLabels),
		HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aurastudio_http_requests_in_flight",
			Help: "A count of the http requests in flight",
		}),

		ProviderResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurastudio_provider_resolutions_total",
			Help: "Provider resolution outcomes by capability, tier, and chosen provider",
		}, providerLabels),
		ProviderRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurastudio_provider_retries_total",
			Help: "Number of stage retries triggered by a provider/subprocess error",
		}, jobLabels),

		SubprocessesLaunched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurastudio_subprocesses_launched_total",
			Help: "Total number of encoder subprocesses launched",
		}),
		SubprocessesKilled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aurastudio_subprocesses_killed_total",
			Help: "Total number of encoder subprocesses force-killed (timeout or shutdown)",
		}),
		SubprocessesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aurastudio_subprocesses_active",
			Help: "Number of encoder subprocesses currently running",
		}),
	}
	return m
}

// ObserveResolution records one provider resolution outcome. outcome is
// "resolved" or "exhausted".
func (m *StudioMetrics) ObserveResolution(capability, tier, provider, outcome string) {
	m.ProviderResolutions.WithLabelValues(capability, tier, provider, outcome).Inc()
}

// Default is the process-wide instance; the HTTP middleware records
// in-flight requests against it.
var Default = New()
