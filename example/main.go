// Demonstrates the gateway client against an in-process fake provider:
// caching, middleware, retry, streaming, batching, and cost estimation.
// Swap fakeProvider for a real Transport implementation to talk to an
// actual API.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/aschepis/llmgate/client"
	"github.com/aschepis/llmgate/config"
	"github.com/aschepis/llmgate/cost"
	"github.com/aschepis/llmgate/llm"
	"github.com/aschepis/llmgate/logger"
	"github.com/aschepis/llmgate/metrics"
	"github.com/aschepis/llmgate/middleware"
)

// fakeProvider fails the first send with a 503 and succeeds afterwards,
// which lets the example show the retry path without a network.
type fakeProvider struct {
	calls int
}

func (p *fakeProvider) Send(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	p.calls++
	if p.calls == 1 {
		return nil, llm.NewTransportError(503, "provider warming up", nil)
	}
	return &llm.Response{
		Operation:  req.Operation,
		Model:      req.Model,
		Content:    "The capital of France is Paris.",
		StopReason: "stop",
		Usage:      &llm.Usage{PromptTokens: 12, CompletionTokens: 8},
	}, nil
}

func (p *fakeProvider) Stream(ctx context.Context, req *llm.Request) (*llm.RawStream, error) {
	body := `data: {"id":"e1","model":"` + req.Model + `","delta":{"content":"The capital "}}
data: {"id":"e2","model":"` + req.Model + `","delta":{"content":"of France is Paris."}}
data: {"id":"e3","model":"` + req.Model + `","delta":{"content":""},"finish_reason":"stop"}
data: [DONE]
`
	return &llm.RawStream{
		Status: http.StatusOK,
		Header: http.Header{},
		Body:   io.NopCloser(strings.NewReader(body)),
	}, nil
}

func main() {
	log := logger.NewPretty(os.Stderr)

	cfg := config.Default()
	cfg.MaxRetries = lo.ToPtr(3)
	cfg.RetryBaseDelay = lo.ToPtr(config.Duration(50 * time.Millisecond))
	cfg.RateLimitPerMinute = lo.ToPtr(120)

	c := client.New(&fakeProvider{},
		client.WithConfig(cfg),
		client.WithLogger(log),
		client.WithMetrics(metrics.NewCollector()),
	)

	c.Use(middleware.HookFunc{
		BeforeRequestFunc: func(ctx context.Context, req *llm.Request) (*llm.Request, error) {
			out := *req
			out.System = "Answer in one sentence."
			return &out, nil
		},
		AfterResponseFunc: func(ctx context.Context, req *llm.Request, resp *llm.Response) (*llm.Response, error) {
			log.Info().Str("model", resp.Model).Int64("completion_tokens", resp.Usage.CompletionTokens).Msg("Response received")
			return resp, nil
		},
	})

	ctx := context.Background()
	req := &llm.Request{
		Operation: llm.OperationChat,
		Model:     "demo-model",
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "What is the capital of France?"}},
	}

	// First call rides the retry path; second is served from cache.
	resp, err := c.Execute(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Dispatch failed")
	}
	fmt.Println("answer:", resp.Content)

	if _, err := c.Execute(ctx, req); err != nil {
		log.Fatal().Err(err).Msg("Cached dispatch failed")
	}
	fmt.Println("second call served from cache")

	// Streaming.
	stream, err := c.Stream(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Stream open failed")
	}
	fmt.Print("streamed: ")
	for stream.Next() {
		fmt.Print(stream.Event().Delta)
	}
	fmt.Println()
	if err := stream.Err(); err != nil {
		log.Fatal().Err(err).Msg("Stream failed")
	}
	stream.Close()

	// Batch with a bounded worker pool.
	batch := []*llm.Request{
		{Operation: llm.OperationChat, Model: "demo-model", Messages: []llm.Message{{Role: llm.RoleUser, Content: "one"}}},
		{Operation: llm.OperationChat, Model: "demo-model", Messages: []llm.Message{{Role: llm.RoleUser, Content: "two"}}},
		{Operation: llm.OperationChat, Model: "demo-model", Messages: []llm.Message{{Role: llm.RoleUser, Content: "three"}}},
	}
	for _, r := range c.Batch(ctx, batch, 2) {
		if r.Err != nil {
			fmt.Printf("batch[%d] failed: %v\n", r.Index, r.Err)
			continue
		}
		fmt.Printf("batch[%d] ok\n", r.Index)
	}

	// Cost estimation is pure arithmetic on pricing strings.
	est := c.EstimateCost(cost.Pricing{Prompt: "$0.002/1K", Completion: "$0.006/1K"}, 1500, 500)
	fmt.Printf("estimated cost: $%.4f\n", est.TotalCost)
}
