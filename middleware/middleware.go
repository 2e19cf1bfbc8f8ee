// Package middleware provides an ordered pre/post/error hook chain applied
// around every dispatch. Pre and post hooks both run in registration order;
// a failing hook halts the remainder of its phase.
package middleware

import (
	"context"
	"sync"

	"github.com/aschepis/llmgate/llm"
)

// Hook provides the three dispatch interception points. Any method may be a
// pass-through.
type Hook interface {
	// BeforeRequest runs before the transport call and may transform the
	// outgoing request or abort the dispatch by returning an error.
	BeforeRequest(ctx context.Context, req *llm.Request) (*llm.Request, error)

	// AfterResponse runs after a successful transport call and may transform
	// the response.
	AfterResponse(ctx context.Context, req *llm.Request, resp *llm.Response) (*llm.Response, error)

	// OnError runs when the dispatch fails and may transform the error.
	// Returning nil marks the error as handled and stops the chain.
	OnError(ctx context.Context, req *llm.Request, err error) error
}

// HookFunc adapts plain functions to the Hook interface. Nil members are
// pass-throughs.
type HookFunc struct {
	BeforeRequestFunc func(ctx context.Context, req *llm.Request) (*llm.Request, error)
	AfterResponseFunc func(ctx context.Context, req *llm.Request, resp *llm.Response) (*llm.Response, error)
	OnErrorFunc       func(ctx context.Context, req *llm.Request, err error) error
}

// BeforeRequest calls the BeforeRequestFunc if set.
func (f HookFunc) BeforeRequest(ctx context.Context, req *llm.Request) (*llm.Request, error) {
	if f.BeforeRequestFunc != nil {
		return f.BeforeRequestFunc(ctx, req)
	}
	return req, nil
}

// AfterResponse calls the AfterResponseFunc if set.
func (f HookFunc) AfterResponse(ctx context.Context, req *llm.Request, resp *llm.Response) (*llm.Response, error) {
	if f.AfterResponseFunc != nil {
		return f.AfterResponseFunc(ctx, req, resp)
	}
	return resp, nil
}

// OnError calls the OnErrorFunc if set.
func (f HookFunc) OnError(ctx context.Context, req *llm.Request, err error) error {
	if f.OnErrorFunc != nil {
		return f.OnErrorFunc(ctx, req, err)
	}
	return err
}

// Pipeline is an ordered, concurrency-safe hook chain.
type Pipeline struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Use appends a hook to the chain.
func (p *Pipeline) Use(h Hook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, h)
}

// Clear removes all registered hooks.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = nil
}

// Len reports the number of registered hooks.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hooks)
}

func (p *Pipeline) snapshot() []Hook {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hooks := make([]Hook, len(p.hooks))
	copy(hooks, p.hooks)
	return hooks
}

// ApplyBefore runs every BeforeRequest hook in registration order, threading
// the possibly transformed request through. The first failure halts the
// phase and is returned.
func (p *Pipeline) ApplyBefore(ctx context.Context, req *llm.Request) (*llm.Request, error) {
	for _, h := range p.snapshot() {
		var err error
		req, err = h.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

// ApplyAfter runs every AfterResponse hook in registration order, threading
// the possibly transformed response through. The first failure halts the
// phase and is returned.
func (p *Pipeline) ApplyAfter(ctx context.Context, req *llm.Request, resp *llm.Response) (*llm.Response, error) {
	for _, h := range p.snapshot() {
		var err error
		resp, err = h.AfterResponse(ctx, req, resp)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// ApplyError runs every OnError hook in registration order, threading the
// transformed error through. A hook returning nil marks the error as handled
// and stops the chain; otherwise the final transformation is returned.
func (p *Pipeline) ApplyError(ctx context.Context, req *llm.Request, err error) error {
	for _, h := range p.snapshot() {
		err = h.OnError(ctx, req, err)
		if err == nil {
			return nil
		}
	}
	return err
}
