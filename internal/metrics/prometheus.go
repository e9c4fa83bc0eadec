package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds the login audit metrics.
type Registry struct {
	// Recorder
	AttemptsRecorded *prometheus.CounterVec
	RecordFailures   *prometheus.CounterVec
	RecordRetries    prometheus.Counter

	// Retention
	SweepRuns     *prometheus.CounterVec
	SweepDeleted  prometheus.Counter
	SweepDuration prometheus.Histogram

	// HTTP
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.AttemptsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginlog_attempts_recorded_total",
		Help: "Login attempts persisted, by status",
	}, []string{"status"})

	r.RecordFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginlog_record_failures_total",
		Help: "Login attempts that could not be persisted",
	}, []string{"status"})

	r.RecordRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loginlog_record_retries_total",
		Help: "Insert retries after transient storage errors",
	})

	r.SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginlog_sweep_runs_total",
		Help: "Retention sweeps, by result",
	}, []string{"result"})

	r.SweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loginlog_sweep_deleted_total",
		Help: "Attempt records removed by retention sweeps",
	})

	r.SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loginlog_sweep_duration_seconds",
		Help:    "Retention sweep latency",
		Buckets: prometheus.DefBuckets,
	})

	r.APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginlog_api_requests_total",
		Help: "Total API requests",
	}, []string{"method", "path", "status"})

	r.APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loginlog_api_request_duration_seconds",
		Help:    "API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	return r
}

// RecordAttempt counts one persisted or failed attempt.
func (r *Registry) RecordAttempt(status string, err error) {
	if err != nil {
		r.RecordFailures.WithLabelValues(status).Inc()
		return
	}
	r.AttemptsRecorded.WithLabelValues(status).Inc()
}

// RecordSweep records the outcome of one sweep. Disabled sweeps are
// counted as skipped.
func (r *Registry) RecordSweep(enabled bool, deleted int64, seconds float64, err error) {
	switch {
	case err != nil:
		r.SweepRuns.WithLabelValues("error").Inc()
	case !enabled:
		r.SweepRuns.WithLabelValues("skipped").Inc()
		return
	default:
		r.SweepRuns.WithLabelValues("ok").Inc()
	}
	r.SweepDeleted.Add(float64(deleted))
	r.SweepDuration.Observe(seconds)
}

// RecordAPIRequest records an API request.
func (r *Registry) RecordAPIRequest(method, path string, status int, duration float64) {
	r.APIRequests.WithLabelValues(method, path, statusString(status)).Inc()
	r.APILatency.WithLabelValues(method, path).Observe(duration)
}

func statusString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	}
	return strconv.Itoa(status)
}
