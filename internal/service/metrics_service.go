package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/fitness-score-api/internal/scoring"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	recordsScored   *prometheus.CounterVec
	scoringDuration prometheus.Observer
	bmiFailures     prometheus.Counter
	recalcJobs      *prometheus.CounterVec
	recalcDuration  prometheus.Observer
	catalogReloads  prometheus.Counter
	catalogIssues   prometheus.Gauge
}

// NewMetricsService registers the service's collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "statistics_cache_lookups_total",
		Help: "Statistics cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "statistics_cache_latency_seconds",
		Help:    "Latency of statistics cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	recordsScored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_records_scored_total",
		Help: "Test records scored, by grade label",
	}, []string{"grade"})

	scoringDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fitness_scoring_duration_seconds",
		Help:    "Time spent evaluating one record",
		Buckets: []float64{.00005, .0001, .0005, .001, .005, .01},
	})

	bmiFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fitness_bmi_derivation_failures_total",
		Help: "Submissions whose height or weight could not produce a BMI",
	})

	recalcJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitness_recalculation_jobs_total",
		Help: "Recalculation job runs by outcome",
	}, []string{"outcome"})

	recalcDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fitness_recalculation_duration_seconds",
		Help:    "Duration of recalculation job runs",
		Buckets: prometheus.DefBuckets,
	})

	catalogReloads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fitness_catalog_reloads_total",
		Help: "Successful scoring catalog loads",
	})

	catalogIssues := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fitness_catalog_issues",
		Help: "Integrity issues found in the active scoring catalog",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, recordsScored, scoringDuration,
		bmiFailures, recalcJobs, recalcDuration, catalogReloads, catalogIssues, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		recordsScored:   recordsScored,
		scoringDuration: scoringDuration,
		bmiFailures:     bmiFailures,
		recalcJobs:      recalcJobs,
		recalcDuration:  recalcDuration,
		catalogReloads:  catalogReloads,
		catalogIssues:   catalogIssues,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a statistics cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveScoring records one evaluated record.
func (m *MetricsService) ObserveScoring(grade scoring.Grade, duration time.Duration) {
	if m == nil {
		return
	}
	m.recordsScored.WithLabelValues(string(grade)).Inc()
	m.scoringDuration.Observe(duration.Seconds())
}

// RecordBMIFailure counts a submission whose BMI could not be derived.
func (m *MetricsService) RecordBMIFailure() {
	if m == nil {
		return
	}
	m.bmiFailures.Inc()
}

// ObserveRecalculation records one recalculation job run.
func (m *MetricsService) ObserveRecalculation(err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.recalcJobs.WithLabelValues(outcome).Inc()
	m.recalcDuration.Observe(duration.Seconds())
}

// ObserveCatalog records a successful catalog load and its issue count.
func (m *MetricsService) ObserveCatalog(issues int) {
	if m == nil {
		return
	}
	m.catalogReloads.Inc()
	m.catalogIssues.Set(float64(issues))
}
