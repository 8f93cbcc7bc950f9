package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	runsTotal      *prometheus.CounterVec
	runDuration    prometheus.Histogram
	runTrades      prometheus.Histogram
	sweepsTotal    *prometheus.CounterVec
	sweepGridSize  prometheus.Histogram
	fetchesTotal   *prometheus.CounterVec
	jobsActive     *prometheus.GaugeVec
	archivedRuns   prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Pipeline metrics
	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairwise_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pairwise_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.runTrades = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pairwise_run_trades",
			Help:    "Number of trades produced per run",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
	r.sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairwise_sweeps_total",
			Help: "Total number of threshold sweeps",
		},
		[]string{"status"},
	)
	r.sweepGridSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pairwise_sweep_grid_size",
			Help:    "Grid points per sweep",
			Buckets: []float64{1, 4, 9, 16, 25, 50, 100, 250},
		},
	)
	r.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairwise_price_fetches_total",
			Help: "Total number of price fetches",
		},
		[]string{"provider", "status"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pairwise_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)
	r.archivedRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pairwise_archived_runs_total",
			Help: "Total number of runs written to the archive",
		},
	)

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.runTrades)
	reg.MustRegister(r.sweepsTotal)
	reg.MustRegister(r.sweepGridSize)
	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.jobsActive)
	reg.MustRegister(r.archivedRuns)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordRun records a pipeline run completion.
func (r *Registry) RecordRun(status string, duration float64, trades int) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
	if status == "ok" {
		r.runTrades.Observe(float64(trades))
	}
}

// RecordSweep records a sweep completion.
func (r *Registry) RecordSweep(status string, gridSize int) {
	r.sweepsTotal.WithLabelValues(status).Inc()
	r.sweepGridSize.Observe(float64(gridSize))
}

// RecordFetch records a price fetch.
func (r *Registry) RecordFetch(provider, status string) {
	r.fetchesTotal.WithLabelValues(provider, status).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

// RecordArchivedRun counts a run written to the archive.
func (r *Registry) RecordArchivedRun() {
	r.archivedRuns.Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
