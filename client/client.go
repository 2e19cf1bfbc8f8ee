// Package client is the gateway facade: one Client object orchestrating
// rate limiting, caching, retry, middleware, streaming, bounded-concurrency
// batching, and cooperative cancellation around a provider Transport.
package client

import (
	"github.com/rs/zerolog"

	"github.com/aschepis/llmgate/cache"
	"github.com/aschepis/llmgate/config"
	"github.com/aschepis/llmgate/cost"
	"github.com/aschepis/llmgate/llm"
	"github.com/aschepis/llmgate/metrics"
	"github.com/aschepis/llmgate/middleware"
	"github.com/aschepis/llmgate/ratelimit"
)

// Client orchestrates dispatches against a single Transport. All methods
// are safe for concurrent use; concurrent dispatches share the cache and
// the rate limiter's window.
type Client struct {
	transport llm.Transport
	cfg       config.Config
	cache     cache.Cache
	limiter   *ratelimit.Limiter
	pipeline  *middleware.Pipeline
	inflight  *registry
	dedup     *dedupTracker
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// Option configures a Client at construction.
type Option func(*Client)

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(c *Client) { c.cfg = cfg }
}

// WithLogger attaches a structured logger. The default is a Nop logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithCache replaces the default in-memory response cache.
func WithCache(cc cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

// WithRateLimiter replaces the limiter built from the configuration.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client around the given transport.
func New(transport llm.Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		cfg:       config.Default(),
		pipeline:  middleware.NewPipeline(),
		inflight:  newRegistry(),
		dedup:     newDedupTracker(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewInMemory(c.cfg.ResponseTTL())
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(c.cfg.RateLimit(), c.logger)
	}
	return c
}

// Use appends a middleware hook to the dispatch pipeline.
func (c *Client) Use(h middleware.Hook) {
	c.pipeline.Use(h)
}

// ClearMiddleware removes all registered hooks.
func (c *Client) ClearMiddleware() {
	c.pipeline.Clear()
}

// CancelAll signals cancellation to every in-flight dispatch. Each dispatch
// observes its token at its next suspension point and aborts with a
// cancellation-typed error.
func (c *Client) CancelAll() {
	c.inflight.cancelAll()
}

// InFlight reports the number of currently registered dispatch handles.
func (c *Client) InFlight() int {
	return c.inflight.len()
}

// EstimateCost computes the price of a call from per-1000-token pricing
// strings. Pure; never touches the network.
func (c *Client) EstimateCost(pricing cost.Pricing, promptTokens, completionTokens int64) cost.Estimate {
	return cost.ForUsage(pricing, promptTokens, completionTokens)
}
