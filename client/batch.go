package client

import (
	"context"
	"sync"

	"github.com/aschepis/llmgate/llm"
)

// BatchResult pairs a request's original index with its outcome. Exactly one
// of Response and Err is set.
type BatchResult struct {
	Index    int
	Response *llm.Response
	Err      error
}

// Batch dispatches requests through a bounded worker pool and returns one
// result per request, index-aligned regardless of completion order. A single
// request's failure is captured in its slot and never aborts siblings.
// A non-positive concurrency or an empty request list returns an empty
// slice with no dispatch performed.
func (c *Client) Batch(ctx context.Context, requests []*llm.Request, concurrency int) []BatchResult {
	if concurrency <= 0 || len(requests) == 0 {
		return []BatchResult{}
	}

	workers := concurrency
	if workers > len(requests) {
		workers = len(requests)
	}

	results := make([]BatchResult, len(requests))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				resp, err := c.Execute(ctx, requests[i])
				// Each index is written by exactly one worker.
				results[i] = BatchResult{Index: i, Response: resp, Err: err}
				c.metrics.RecordBatchJob(err == nil)
			}
		}()
	}

	for i := range requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
