package client

import (
	"context"
	"errors"

	"github.com/aschepis/llmgate/llm"
	"github.com/aschepis/llmgate/retry"
	"github.com/aschepis/llmgate/sse"
)

// Stream opens a streaming dispatch and returns the lazy event sequence.
// The request passes through validation, throttle, and pre-middleware; the
// transport open (including the pre-first-byte status check) is wrapped in
// retry. Streaming responses bypass the cache. The in-flight handle is
// released when the sequence ends or the stream is closed.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	if err := req.Validate(); err != nil {
		c.metrics.RecordError(string(llm.ErrorTypeValidation), operationLabel(req))
		return nil, c.applyError(ctx, req, err)
	}
	op := string(req.Operation)

	sreq := *req
	sreq.Stream = true

	hctx, release := c.inflight.register(ctx, c.cfg.CallTimeout())
	c.metrics.RecordRequestStart()

	fail := func(err error) (llm.Stream, error) {
		c.metrics.RecordError(errorTypeLabel(err), op)
		c.metrics.RecordRequestEnd()
		release()
		return nil, c.applyError(hctx, &sreq, err)
	}

	if err := c.limiter.Wait(hctx); err != nil {
		return fail(err)
	}

	preq, err := c.pipeline.ApplyBefore(hctx, &sreq)
	if err != nil {
		return fail(err)
	}

	dec, err := retry.Do(hctx, c.retryConfig(), func(ctx context.Context) (*sse.Decoder, error) {
		raw, terr := c.transport.Stream(ctx, preq)
		if terr != nil {
			return nil, terr
		}
		return sse.NewDecoder(raw, c.logger)
	})
	if err != nil {
		return fail(err)
	}

	return &managedStream{
		inner: dec,
		model: preq.Model,
		c:     c,
		finish: func() {
			c.metrics.RecordRequestEnd()
			release()
		},
	}, nil
}

// managedStream ties a decoder's lifecycle to the dispatch handle: the
// handle is released once the sequence ends by any path.
type managedStream struct {
	inner    llm.Stream
	model    string
	c        *Client
	finish   func()
	finished bool
}

func (s *managedStream) Next() bool {
	if s.inner.Next() {
		s.c.metrics.RecordStreamEvent(s.model)
		return true
	}
	s.conclude()
	return false
}

func (s *managedStream) Event() *llm.StreamEvent {
	return s.inner.Event()
}

func (s *managedStream) Err() error {
	return s.inner.Err()
}

func (s *managedStream) Close() error {
	err := s.inner.Close()
	s.conclude()
	return err
}

func (s *managedStream) conclude() {
	if s.finished {
		return
	}
	s.finished = true
	if d, ok := s.inner.(*sse.Decoder); ok {
		for i := 0; i < d.Skipped(); i++ {
			s.c.metrics.RecordStreamSkipped(s.model)
		}
	}
	s.finish()
}

var _ llm.Stream = (*managedStream)(nil)

func errorTypeLabel(err error) string {
	var cerr *llm.Error
	if errors.As(err, &cerr) {
		return string(cerr.Type)
	}
	return string(llm.ErrorTypeUnknown)
}
