// Package ratelimit provides a rolling-window request limiter: at most N
// admissions within any trailing window. Admission timestamps are recorded
// only after a caller is admitted, so a waiting caller never occupies a slot.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aschepis/llmgate/llm"
)

// Window is the rolling interval the per-minute limit applies to.
const Window = 60 * time.Second

// Limiter admits at most limit calls per rolling window. A limit of zero
// disables throttling entirely.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	logger zerolog.Logger

	now func() time.Time
}

// New creates a limiter admitting limit calls per rolling minute.
func New(limit int, logger zerolog.Logger) *Limiter {
	return NewWithWindow(limit, Window, logger)
}

// NewWithWindow creates a limiter with an explicit window length.
func NewWithWindow(limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		logger: logger.With().Str("component", "ratelimit").Logger(),
		now:    time.Now,
	}
}

// Wait suspends the caller until it is admissible under the limit, then
// records the admission. Concurrent waiters race for freed slots, so the
// check loops after every sleep rather than trusting a single wakeup.
// Cancellation is observed during the wait and surfaces as a
// cancellation-typed error.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limit <= 0 {
		return nil
	}

	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		l.logger.Debug().Dur("wait", wait).Int("limit", l.limit).Msg("Throttling until a window slot frees")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return llm.FromContext(ctx)
		case <-timer.C:
		}
	}
}

// prune drops timestamps that have left the trailing window. Callers hold
// the mutex.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.stamps) && !l.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[idx:]...)
	}
}

// Pending reports how many admissions currently occupy the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return len(l.stamps)
}
