package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aschepis/llmgate/llm"
)

func TestZeroLimitDisablesThrottling(t *testing.T) {
	l := New(0, zerolog.Nop())
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("disabled limiter should not delay, took %v", elapsed)
	}
}

func TestBurstBeyondLimitIsDelayed(t *testing.T) {
	window := 200 * time.Millisecond
	l := NewWithWindow(3, window, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
		if i == 2 {
			// First three must be admitted without measurable delay.
			if elapsed := time.Since(start); elapsed > window/2 {
				t.Fatalf("first %d calls should be immediate, took %v", i+1, elapsed)
			}
		}
	}

	// Calls 4 and 5 each had to wait for a slot to leave the window.
	if elapsed := time.Since(start); elapsed < window {
		t.Errorf("calls beyond the limit should be delayed past the window, took %v", elapsed)
	}
	if l.Pending() > 3 {
		t.Errorf("window should never hold more than the limit, has %d", l.Pending())
	}
}

func TestConcurrentWaitersRespectLimit(t *testing.T) {
	window := 150 * time.Millisecond
	l := NewWithWindow(2, window, zerolog.Nop())

	var mu sync.Mutex
	var admitted []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			admitted = append(admitted, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(admitted) != 6 {
		t.Fatalf("expected 6 admissions, got %d", len(admitted))
	}

	// No rolling window may contain more than 2 admissions.
	for i := range admitted {
		count := 0
		for j := range admitted {
			diff := admitted[j].Sub(admitted[i])
			if diff >= 0 && diff < window {
				count++
			}
		}
		if count > 2 {
			t.Errorf("found %d admissions within one window", count)
		}
	}
}

func TestWaitObservesCancellation(t *testing.T) {
	l := NewWithWindow(1, time.Minute, zerolog.Nop())
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first admission failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Wait(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !llm.IsCancellation(err) {
			t.Errorf("expected cancellation error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return promptly after cancellation")
	}
}
