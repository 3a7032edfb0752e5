package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	requestsTotal      *prometheus.CounterVec
	latencySeconds     *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec
	archivesRejected   *prometheus.CounterVec
	runsEnqueuedTotal  prometheus.Counter
	runsCompletedTotal prometheus.Counter
	runsFailedTotal    prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the API and
// the correction pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradecore_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradecore_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradecore_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		archivesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradecore_archives_rejected_total",
			Help: "Number of submission archives rejected at intake.",
		}, []string{"reason"})

		runsEnqueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradecore_runs_enqueued_total",
			Help: "Number of evaluation runs dispatched to the queue.",
		})

		runsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradecore_runs_completed_total",
			Help: "Number of evaluation runs finished successfully.",
		})

		runsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradecore_runs_failed_total",
			Help: "Number of evaluation runs that ended in failure.",
		})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal,
			archivesRejected, runsEnqueuedTotal, runsCompletedTotal, runsFailedTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// ArchivesRejected exposes the counter for rejected submission archives.
func ArchivesRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return archivesRejected
}

// RunsEnqueued exposes the counter for dispatched runs.
func RunsEnqueued() prometheus.Counter {
	RegisterMetrics()
	return runsEnqueuedTotal
}

// RunsCompleted exposes the counter for successful runs.
func RunsCompleted() prometheus.Counter {
	RegisterMetrics()
	return runsCompletedTotal
}

// RunsFailed exposes the counter for failed runs.
func RunsFailed() prometheus.Counter {
	RegisterMetrics()
	return runsFailedTotal
}
