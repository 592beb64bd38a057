package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is the aggregated view served by the JSON metrics endpoint.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	RosterOperations         uint64    `json:"roster_operations"`
	RosterFailures           uint64    `json:"roster_failures"`
	RepeatPairs              uint64    `json:"repeat_pairs"`
	CacheInvalidationErrors  uint64    `json:"cache_invalidation_errors"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheInvalidate prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	rosterOps       *prometheus.CounterVec
	shuffleDuration *prometheus.HistogramVec
	repeatPairs     *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	rosterOpCount        uint64
	rosterFailureCount   uint64
	repeatPairCount      uint64
	invalidateErrorCount uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	cacheInvalidate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_invalidation_errors_total",
		Help: "Cache invalidations that failed and may have left stale keys",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_store_duration_seconds",
		Help:    "Duration of roster snapshot loads and saves",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	rosterOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_operations_total",
		Help: "Roster operations by name and outcome",
	}, []string{"operation", "outcome"})

	shuffleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_shuffle_duration_seconds",
		Help:    "Duration of shuffle algorithms",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
	}, []string{"mode"})

	repeatPairs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_repeat_pairs_total",
		Help: "Pairs that fell back onto a previous partner",
	}, []string{"mode"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		cacheInvalidate, storeDuration, rosterOps, shuffleDuration, repeatPairs, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheInvalidate: cacheInvalidate,
		storeDuration:   storeDuration,
		rosterOps:       rosterOps,
		shuffleDuration: shuffleDuration,
		repeatPairs:     repeatPairs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordCacheInvalidationError counts an invalidation that did not reach the cache.
func (m *MetricsService) RecordCacheInvalidationError() {
	if m == nil {
		return
	}
	m.cacheInvalidate.Inc()
	atomic.AddUint64(&m.invalidateErrorCount, 1)
}

// ObserveStore records roster snapshot load/save timing.
func (m *MetricsService) ObserveStore(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRosterOperation counts a roster operation; failed operations are labelled by error code.
func (m *MetricsService) RecordRosterOperation(operation string, outcome string) {
	if m == nil {
		return
	}
	m.rosterOps.WithLabelValues(operation, outcome).Inc()
	atomic.AddUint64(&m.rosterOpCount, 1)
	if outcome != "ok" {
		atomic.AddUint64(&m.rosterFailureCount, 1)
	}
}

// ObserveShuffle records one shuffle run.
func (m *MetricsService) ObserveShuffle(mode string, duration time.Duration, repeatPairs int) {
	if m == nil {
		return
	}
	m.shuffleDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if repeatPairs > 0 {
		m.repeatPairs.WithLabelValues(mode).Add(float64(repeatPairs))
		atomic.AddUint64(&m.repeatPairCount, uint64(repeatPairs))
	}
}

// Snapshot returns aggregated metrics suitable for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		RosterOperations:         atomic.LoadUint64(&m.rosterOpCount),
		RosterFailures:           atomic.LoadUint64(&m.rosterFailureCount),
		RepeatPairs:              atomic.LoadUint64(&m.repeatPairCount),
		CacheInvalidationErrors:  atomic.LoadUint64(&m.invalidateErrorCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
