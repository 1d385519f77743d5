package core

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records ingestion, generation and HTTP counters on a private
// Prometheus registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ingests        *prometheus.CounterVec
	ingestRows     *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	generations    *prometheus.CounterVec
	ledgerPruned   prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_ingests_total",
			Help: "Uploads processed, by file type and outcome.",
		}, []string{"file_type", "outcome"}),
		ingestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_ingest_rows_total",
			Help: "Rows seen during ingestion, by file type and result.",
		}, []string{"file_type", "result"}),
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slate_ingest_duration_seconds",
			Help:    "Time spent processing one upload.",
			Buckets: prometheus.DefBuckets,
		}, []string{"file_type"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slate_generations_total",
			Help: "Lineup generation requests, by outcome.",
		}, []string{"outcome"}),
		ledgerPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slate_ledger_pruned_total",
			Help: "Processed ledger entries removed by retention.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests, by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ingests, m.ingestRows, m.ingestDuration,
		m.generations, m.ledgerPruned,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordIngest records one finished upload.
func (m *Metrics) RecordIngest(fileType FileType, res *IngestResult, err error) {
	if m == nil {
		return
	}
	ft := string(fileType)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.ingests.WithLabelValues(ft, outcome).Inc()
	if res == nil {
		return
	}
	m.ingestRows.WithLabelValues(ft, "merged").Add(float64(res.Merged))
	m.ingestRows.WithLabelValues(ft, "dropped").Add(float64(res.Dropped))
	m.ingestRows.WithLabelValues(ft, "collapsed").Add(float64(res.Collapsed))
	m.ingestRows.WithLabelValues(ft, "parse_error").Add(float64(res.ParseErrors))
	m.ingestDuration.WithLabelValues(ft).Observe(res.Duration.Seconds())
}

// RecordGeneration records one generation request outcome.
func (m *Metrics) RecordGeneration(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case isValidation(err):
		outcome = "invalid"
	case isPool(err):
		outcome = "pool_insufficient"
	case isOptimizer(err):
		outcome = "optimizer_error"
	default:
		outcome = "error"
	}
	m.generations.WithLabelValues(outcome).Inc()
}

// RecordPrune records entries removed by the retention job.
func (m *Metrics) RecordPrune(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ledgerPruned.Add(float64(n))
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

func isValidation(err error) bool {
	_, ok := AsValidationError(err)
	return ok
}

func isPool(err error) bool {
	_, ok := AsPoolInsufficientError(err)
	return ok
}

func isOptimizer(err error) bool {
	_, ok := AsOptimizerError(err)
	return ok
}
