// Package metrics provides Prometheus instrumentation for the dispatch
// pipeline. All recording methods are nil-receiver safe, so a client built
// without metrics pays no instrumentation cost.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector tracks the gateway's request lifecycle and reliability layers.
// It is safe for concurrent use.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge

	retriesTotal *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   prometheus.Gauge

	dedupHits *prometheus.CounterVec

	rateLimitWaits *prometheus.CounterVec

	batchJobsTotal *prometheus.CounterVec

	streamEvents  *prometheus.CounterVec
	streamSkipped *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewCollector creates a collector on the default registerer.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector using the supplied registerer.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	return &Collector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_requests_total",
				Help: "Total number of dispatches by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmgate_request_duration_seconds",
				Help:    "Duration of dispatches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsInFlight: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "llmgate_requests_in_flight",
				Help: "Number of dispatches currently in flight",
			},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"operation"},
		),
		cacheHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"operation"},
		),
		cacheMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"operation"},
		),
		cacheSize: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "llmgate_cache_size",
				Help: "Current number of entries in the response cache",
			},
		),
		dedupHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_deduplication_hits_total",
				Help: "Total number of dispatches coalesced onto an in-flight call",
			},
			[]string{"operation"},
		),
		rateLimitWaits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_rate_limit_waits_total",
				Help: "Total number of dispatches that waited on the rate limiter",
			},
			[]string{"operation"},
		),
		batchJobsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_batch_jobs_total",
				Help: "Total number of batch jobs by outcome",
			},
			[]string{"outcome"},
		),
		streamEvents: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_stream_events_total",
				Help: "Total number of decoded stream events",
			},
			[]string{"model"},
		),
		streamSkipped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_stream_skipped_lines_total",
				Help: "Total number of malformed stream lines skipped",
			},
			[]string{"model"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmgate_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type", "operation"},
		),
	}
}

// RecordRequest records a completed dispatch. A failed dispatch reports its
// status code as the outcome when one is known, "error" otherwise.
func (c *Collector) RecordRequest(operation string, statusCode int, failed bool, duration time.Duration) {
	if c == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "error"
		if statusCode != 0 {
			outcome = strconv.Itoa(statusCode)
		}
	}
	c.requestsTotal.WithLabelValues(operation, outcome).Inc()
	c.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRequestStart marks a dispatch as in flight.
func (c *Collector) RecordRequestStart() {
	if c == nil {
		return
	}
	c.requestsInFlight.Inc()
}

// RecordRequestEnd marks a dispatch as concluded.
func (c *Collector) RecordRequestEnd() {
	if c == nil {
		return
	}
	c.requestsInFlight.Dec()
}

// RecordRetry records one retry attempt.
func (c *Collector) RecordRetry(operation string) {
	if c == nil {
		return
	}
	c.retriesTotal.WithLabelValues(operation).Inc()
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(operation string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(operation string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(operation).Inc()
}

// RecordCacheSize records the current cache entry count.
func (c *Collector) RecordCacheSize(size int) {
	if c == nil {
		return
	}
	c.cacheSize.Set(float64(size))
}

// RecordDeduplicationHit records a dispatch served by an in-flight twin.
func (c *Collector) RecordDeduplicationHit(operation string) {
	if c == nil {
		return
	}
	c.dedupHits.WithLabelValues(operation).Inc()
}

// RecordRateLimitWait records a dispatch that had to wait for a slot.
func (c *Collector) RecordRateLimitWait(operation string) {
	if c == nil {
		return
	}
	c.rateLimitWaits.WithLabelValues(operation).Inc()
}

// RecordBatchJob records a completed batch job.
func (c *Collector) RecordBatchJob(succeeded bool) {
	if c == nil {
		return
	}
	outcome := "success"
	if !succeeded {
		outcome = "error"
	}
	c.batchJobsTotal.WithLabelValues(outcome).Inc()
}

// RecordStreamEvent records one decoded stream event.
func (c *Collector) RecordStreamEvent(model string) {
	if c == nil {
		return
	}
	c.streamEvents.WithLabelValues(model).Inc()
}

// RecordStreamSkipped records one skipped malformed stream line.
func (c *Collector) RecordStreamSkipped(model string) {
	if c == nil {
		return
	}
	c.streamSkipped.WithLabelValues(model).Inc()
}

// RecordError records a failure by taxonomy type.
func (c *Collector) RecordError(errType, operation string) {
	if c == nil {
		return
	}
	c.errorsTotal.WithLabelValues(errType, operation).Inc()
}
