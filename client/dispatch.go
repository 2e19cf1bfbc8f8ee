package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/aschepis/llmgate/cache"
	"github.com/aschepis/llmgate/llm"
	"github.com/aschepis/llmgate/retry"
)

// ErrHandled is returned when an error hook suppresses a dispatch failure
// by returning nil. The dispatch produced no response, so the suppression
// surfaces as this sentinel instead of a silent nil pair.
var ErrHandled = errors.New("dispatch error handled by middleware")

// applyError runs the error-hook chain and maps a suppressed failure to
// ErrHandled, so callers always receive either a response or an error.
func (c *Client) applyError(ctx context.Context, req *llm.Request, err error) error {
	if transformed := c.pipeline.ApplyError(ctx, req, err); transformed != nil {
		return transformed
	}
	return ErrHandled
}

// Execute runs one dispatch through the full pipeline: validation, cache
// lookup, in-flight registration, throttle, pre-middleware, transport with
// retry, post-middleware, cache store. Every failure passes through the
// error-middleware chain before propagating.
func (c *Client) Execute(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		c.metrics.RecordError(string(llm.ErrorTypeValidation), operationLabel(req))
		return nil, c.applyError(ctx, req, err)
	}
	op := string(req.Operation)

	key := requestKey(req)
	cacheable := c.cfg.CachingEnabled() && req.Cacheable()

	if cacheable {
		if resp, ok := c.cache.Get(key); ok {
			c.metrics.RecordCacheHit(op)
			c.metrics.RecordRequest(op, 0, false, time.Since(start))
			c.logger.Debug().Str("operation", op).Str("key", key[:12]).Msg("Serving dispatch from cache")
			return resp, nil
		}
		c.metrics.RecordCacheMiss(op)
	}

	// The handle must exist before the first suspension point so CancelAll
	// reaches a dispatch waiting on the throttle.
	hctx, release := c.inflight.register(ctx, c.cfg.CallTimeout())
	defer release()

	c.metrics.RecordRequestStart()
	defer c.metrics.RecordRequestEnd()

	var resp *llm.Response
	var err error
	if cacheable && c.cfg.DeduplicationEnabled() {
		entry, owner := c.dedup.claim(key)
		if owner {
			resp, err = c.perform(hctx, req, key, cacheable)
			c.dedup.complete(key, resp, err)
		} else {
			c.metrics.RecordDeduplicationHit(op)
			c.logger.Debug().Str("operation", op).Str("key", key[:12]).Msg("Coalescing onto in-flight dispatch")
			resp, err = entry.wait(hctx)
		}
	} else {
		resp, err = c.perform(hctx, req, key, cacheable)
	}

	duration := time.Since(start)
	if err != nil {
		status := 0
		errType := llm.ErrorTypeUnknown
		var cerr *llm.Error
		if errors.As(err, &cerr) {
			status = cerr.StatusCode
			errType = cerr.Type
		}
		c.metrics.RecordError(string(errType), op)
		c.metrics.RecordRequest(op, status, true, duration)
		c.logger.Debug().Err(err).Str("operation", op).Dur("duration", duration).Msg("Dispatch failed")
		return nil, c.applyError(hctx, req, err)
	}

	c.metrics.RecordRequest(op, 0, false, duration)
	return resp, nil
}

// perform runs the suspension-point section of a dispatch: throttle,
// pre-middleware, transport with retry, post-middleware, cache store.
func (c *Client) perform(ctx context.Context, req *llm.Request, key string, cacheable bool) (*llm.Response, error) {
	op := string(req.Operation)

	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if wait := time.Since(waitStart); wait > time.Millisecond {
		c.metrics.RecordRateLimitWait(op)
	}

	preq, err := c.pipeline.ApplyBefore(ctx, req)
	if err != nil {
		return nil, err
	}

	attempts := 0
	resp, err := retry.Do(ctx, c.retryConfig(), func(ctx context.Context) (*llm.Response, error) {
		attempts++
		if attempts > 1 {
			c.metrics.RecordRetry(op)
		}
		return c.transport.Send(ctx, preq)
	})
	if err != nil {
		return nil, err
	}

	resp, err = c.pipeline.ApplyAfter(ctx, preq, resp)
	if err != nil {
		return nil, err
	}

	if cacheable {
		c.cache.Set(key, resp, 0)
		if im, ok := c.cache.(*cache.InMemory); ok {
			c.metrics.RecordCacheSize(im.Len())
		}
	}
	return resp, nil
}

func (c *Client) retryConfig() retry.Config {
	return retry.Config{
		MaxRetries: c.cfg.RetryLimit(),
		BaseDelay:  c.cfg.RetryDelay(),
		Logger:     c.logger,
	}
}

// requestKey derives the deterministic cache and deduplication key from the
// operation and the canonical JSON payload.
func requestKey(req *llm.Request) string {
	payload, _ := req.ToJSON()
	h := sha256.New()
	h.Write([]byte(req.Operation))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func operationLabel(req *llm.Request) string {
	if req == nil {
		return "unknown"
	}
	return string(req.Operation)
}
