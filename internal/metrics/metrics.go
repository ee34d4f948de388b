// Package metrics exposes the scheduler's Prometheus gauges and counters,
// named after this engine's execution-state vocabulary
// (scheduler_job_pickup_latency_seconds, scheduler_worker_jobs_in_flight,
// scheduler_jobs_completed_total, scheduler_http_*).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobPickupLatency is the time from an execution row's creation
	// (SCHEDULED) to a worker claiming it (RUNNING).
	JobPickupLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "job_pickup_latency_seconds",
		Help:      "Time from an execution's SCHEDULED write to its RUNNING write.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	// JobExecutionDuration is labeled by terminal execution state rather
	// than HTTP status, since job bodies are opaque Go calls, not webhooks.
	JobExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "job_execution_duration_seconds",
		Help:      "Duration of a job body's Run call, labeled by terminal state.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"state"})

	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "worker_jobs_in_flight",
		Help:      "Number of firings currently executing on the worker pool.",
	})

	JobsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "jobs_completed_total",
		Help:      "Total firings finished, labeled by terminal state.",
	}, []string{"state"})

	// MisfiresTotal counts firings abandoned because they were picked up
	// past misfire_grace_sec, or skipped because max_instances was reached.
	MisfiresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "misfires_total",
		Help:      "Total firings written as SCHEDULED_ERROR before Run was called, labeled by reason.",
	}, []string{"reason"})

	// StaleRunningExecutions surfaces RUNNING rows whose updated_time is
	// implausibly old. Nothing auto-transitions a stuck firing; this is
	// observability only.
	StaleRunningExecutions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "stale_running_executions",
		Help:      "Count of RUNNING executions whose worker has likely died without completing.",
	})

	WorkerStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduler",
		Name:      "worker_start_time_seconds",
		Help:      "Unix timestamp when the scheduler process started.",
	})

	WorkerShutdownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "worker_shutdowns_total",
		Help:      "Number of times the scheduler has shut down.",
	})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scheduler",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduler",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Register registers every metric with the default Prometheus registry.
// Safe to call once at startup.
func Register() {
	prometheus.MustRegister(
		JobPickupLatency,
		JobExecutionDuration,
		JobsInFlight,
		JobsCompletedTotal,
		MisfiresTotal,
		StaleRunningExecutions,
		WorkerStartTime,
		WorkerShutdownsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer returns the standalone Prometheus exposition server, kept on
// its own operator-facing port, separate from the public API port.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
