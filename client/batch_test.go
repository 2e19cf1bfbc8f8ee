package client

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"

	"github.com/aschepis/llmgate/llm"
)

func batchRequests(n int) []*llm.Request {
	reqs := make([]*llm.Request, n)
	for i := range reqs {
		reqs[i] = chatRequest("batch item " + strconv.Itoa(i))
	}
	return reqs
}

func TestBatchResultsAreIndexAligned(t *testing.T) {
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			return &llm.Response{
				Operation: req.Operation,
				Model:     req.Model,
				Content:   req.Messages[0].Content,
			}, nil
		},
	}
	c := New(transport, WithConfig(testConfig()))

	results := c.Batch(context.Background(), batchRequests(5), 2)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d carries index %d", i, r.Index)
		}
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
			continue
		}
		want := "batch item " + strconv.Itoa(i)
		if r.Response.Content != want {
			t.Errorf("result %d holds %q, want %q", i, r.Response.Content, want)
		}
	}
}

func TestBatchFailureIsIsolatedToItsSlot(t *testing.T) {
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			if req.Messages[0].Content == "batch item 1" {
				return nil, llm.NewTransportError(400, "bad item", nil)
			}
			return &llm.Response{Operation: req.Operation, Content: "ok"}, nil
		},
	}
	c := New(transport, WithConfig(testConfig()))

	results := c.Batch(context.Background(), batchRequests(5), 2)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if i == 1 {
			if r.Err == nil {
				t.Error("result 1 should carry the failure")
			}
			if r.Response != nil {
				t.Error("failed slot must not also carry a response")
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("result %d: sibling failure leaked: %v", i, r.Err)
		}
	}
}

func TestBatchHonorsConcurrencyBound(t *testing.T) {
	var active, peak atomic.Int64
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return &llm.Response{Operation: req.Operation}, nil
		},
	}
	cfg := testConfig()
	cfg.EnableCaching = lo.ToPtr(false)
	c := New(transport, WithConfig(cfg))

	c.Batch(context.Background(), batchRequests(8), 2)
	if p := peak.Load(); p > 2 {
		t.Errorf("observed %d concurrent dispatches, bound is 2", p)
	}
}

func TestBatchEmptyAndNonPositiveConcurrency(t *testing.T) {
	transport := &fakeTransport{}
	c := New(transport, WithConfig(testConfig()))

	if got := c.Batch(context.Background(), nil, 2); len(got) != 0 {
		t.Errorf("empty request list: expected empty results, got %d", len(got))
	}
	if got := c.Batch(context.Background(), batchRequests(3), 0); len(got) != 0 {
		t.Errorf("zero concurrency: expected empty results, got %d", len(got))
	}
	if got := c.Batch(context.Background(), batchRequests(3), -1); len(got) != 0 {
		t.Errorf("negative concurrency: expected empty results, got %d", len(got))
	}
	if transport.sends.Load() != 0 {
		t.Error("degenerate batches must not dispatch")
	}
}

func TestCancelAllAbortsInFlightDispatches(t *testing.T) {
	started := make(chan struct{}, 3)
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			started <- struct{}{}
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	cfg := testConfig()
	cfg.EnableCaching = lo.ToPtr(false)
	cfg.MaxRetries = lo.ToPtr(0)
	c := New(transport, WithConfig(cfg))

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = c.Execute(context.Background(), chatRequest("blocked "+strconv.Itoa(n)))
		}(i)
	}
	for i := 0; i < 3; i++ {
		<-started
	}
	if got := c.InFlight(); got != 3 {
		t.Fatalf("expected 3 in-flight handles, got %d", got)
	}

	c.CancelAll()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatches did not abort after CancelAll")
	}

	for i, err := range errs {
		var cerr *llm.Error
		if !errors.As(err, &cerr) || cerr.Type != llm.ErrorTypeCancelled {
			t.Errorf("dispatch %d: expected cancellation-typed error, got %v", i, err)
		}
	}
	if got := c.InFlight(); got != 0 {
		t.Errorf("handles leaked after conclusion: %d", got)
	}
}

func TestCancelAllDoesNotAffectLaterDispatches(t *testing.T) {
	transport := &fakeTransport{}
	c := New(transport, WithConfig(testConfig()))

	c.CancelAll()

	if _, err := c.Execute(context.Background(), chatRequest("after cancel")); err != nil {
		t.Errorf("dispatch after CancelAll should succeed: %v", err)
	}
}
