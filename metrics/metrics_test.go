package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.RecordRequest("chat", 200, false, time.Millisecond)
	c.RecordRequestStart()
	c.RecordRequestEnd()
	c.RecordRetry("chat")
	c.RecordCacheHit("chat")
	c.RecordCacheMiss("chat")
	c.RecordCacheSize(3)
	c.RecordDeduplicationHit("chat")
	c.RecordRateLimitWait("chat")
	c.RecordBatchJob(true)
	c.RecordStreamEvent("m")
	c.RecordStreamSkipped("m")
	c.RecordError("transport", "chat")
}

func TestRecordRequestOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(registry)

	c.RecordRequest("chat", 200, false, 10*time.Millisecond)
	c.RecordRequest("chat", 200, false, 20*time.Millisecond)
	c.RecordRequest("chat", 503, true, 5*time.Millisecond)
	c.RecordRequest("chat", 0, true, 5*time.Millisecond)

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("chat", "success")); got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("chat", "503")); got != 1 {
		t.Errorf("expected 1 status-coded failure, got %v", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("chat", "error")); got != 1 {
		t.Errorf("expected 1 statusless failure, got %v", got)
	}
}

func TestInFlightGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(registry)

	c.RecordRequestStart()
	c.RecordRequestStart()
	c.RecordRequestEnd()

	if got := testutil.ToFloat64(c.requestsInFlight); got != 1 {
		t.Errorf("expected 1 in flight, got %v", got)
	}
}

func TestCacheAndDedupCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollectorWithRegistry(registry)

	c.RecordCacheHit("chat")
	c.RecordCacheMiss("chat")
	c.RecordCacheMiss("chat")
	c.RecordDeduplicationHit("chat")

	if got := testutil.ToFloat64(c.cacheHits.WithLabelValues("chat")); got != 1 {
		t.Errorf("expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheMisses.WithLabelValues("chat")); got != 2 {
		t.Errorf("expected 2 cache misses, got %v", got)
	}
	if got := testutil.ToFloat64(c.dedupHits.WithLabelValues("chat")); got != 1 {
		t.Errorf("expected 1 dedup hit, got %v", got)
	}
}
