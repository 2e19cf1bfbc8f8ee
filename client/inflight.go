package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// registry tracks every in-flight dispatch by a uuid handle so CancelAll
// can signal them. A handle is created before the first suspension point and
// released exactly once when its dispatch concludes by any path.
type registry struct {
	mu      sync.Mutex
	handles map[string]context.CancelFunc
}

func newRegistry() *registry {
	return &registry{handles: make(map[string]context.CancelFunc)}
}

// register derives the dispatch context (applying the per-call deadline when
// set), stores its cancellation token, and returns a release function that
// is safe to call multiple times but acts once.
func (r *registry) register(ctx context.Context, timeout time.Duration) (context.Context, func()) {
	var cancelTimeout context.CancelFunc = func() {}
	if timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
	}
	hctx, cancel := context.WithCancel(ctx)

	id := uuid.NewString()
	r.mu.Lock()
	r.handles[id] = cancel
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.handles, id)
			r.mu.Unlock()
			cancel()
			cancelTimeout()
		})
	}
	return hctx, release
}

// cancelAll fires every registered token. Handles stay registered until
// their owning dispatch concludes and releases them.
func (r *registry) cancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.handles))
	for _, cancel := range r.handles {
		cancels = append(cancels, cancel)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
