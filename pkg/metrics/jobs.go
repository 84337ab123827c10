package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records metadata for scheduled worker jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	expiring *prometheus.GaugeVec
}

// NewJobMetrics registers the worker job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	expiring := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quotes_expiring_soon",
		Help: "Quotes inside the expiry warning window, by kind.",
	}, []string{"kind"})
	reg.MustRegister(duration, success, failure, expiring)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		expiring: expiring,
	}
}

// ObserveDuration records the duration for the named job.
func (j *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (j *JobMetrics) IncSuccess(job string) {
	if j == nil || j.success == nil {
		return
	}
	j.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (j *JobMetrics) IncFailure(job string) {
	if j == nil || j.failure == nil {
		return
	}
	j.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SetExpiringSoon publishes how many quotes of a kind sit inside the
// warning window as of the latest scan.
func (j *JobMetrics) SetExpiringSoon(kind string, count int) {
	if j == nil || j.expiring == nil {
		return
	}
	j.expiring.WithLabelValues(normalizeLabel(kind)).Set(float64(count))
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
