// Package retry wraps an operation with bounded, classified retries.
// Failures carrying a fatal HTTP-like status (4xx except 429), validation
// failures, and cancellations propagate immediately; everything else retries
// with exponential backoff, half-jitter, and a hard delay ceiling.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/aschepis/llmgate/llm"
)

// MaxDelay is the hard ceiling on any single backoff wait.
const MaxDelay = 30 * time.Second

// Config controls a retry loop.
type Config struct {
	// MaxRetries bounds the number of re-attempts after the first try.
	MaxRetries int

	// BaseDelay seeds the exponential schedule. Attempt n waits
	// min(BaseDelay * 2^n * U(0.5, 1.0), MaxDelay).
	BaseDelay time.Duration

	Logger zerolog.Logger
}

// Do runs op until it succeeds, fails fatally, or exhausts the retry budget.
// The last error propagates unchanged. Cancellation is observed during every
// backoff wait.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) (T, error) {
	var zero T

	logger := cfg.Logger.With().Str("component", "retry").Logger()
	b := newBackOff(cfg.BaseDelay)

	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			if llm.IsCancellation(err) {
				return zero, err
			}
			return zero, llm.FromContext(ctx)
		}

		if !llm.IsRetryable(err) {
			logger.Debug().Err(err).Int("attempt", attempt).Msg("Failure is fatal, not retrying")
			return zero, err
		}

		if attempt >= cfg.MaxRetries {
			logger.Warn().Err(err).Int("max_retries", cfg.MaxRetries).Msg("Retry budget exhausted")
			return zero, err
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop || delay > MaxDelay {
			delay = MaxDelay
		}
		// A 429 carrying a server-provided hint overrides the computed delay.
		if ra := llm.ExtractRetryAfter(err); ra != nil && *ra > 0 {
			delay = *ra
			if delay > MaxDelay {
				delay = MaxDelay
			}
		}

		logger.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", cfg.MaxRetries).
			Dur("delay", delay).
			Msg("Retrying after delay")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, llm.FromContext(ctx)
		case <-timer.C:
		}
	}
}

// newBackOff builds the exponential schedule. InitialInterval and
// RandomizationFactor are chosen so each randomized delay lands in
// [0.5, 1.0] * BaseDelay * 2^attempt: 3/4 * (1 +/- 1/3) spans exactly that
// range.
func newBackOff(base time.Duration) *backoff.ExponentialBackOff {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base * 3 / 4
	b.RandomizationFactor = 1.0 / 3.0
	b.Multiplier = 2.0
	b.MaxInterval = MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
