package client

import (
	"context"
	"sync"

	"github.com/aschepis/llmgate/llm"
)

// dedupEntry is one in-flight transport call shared between callers issuing
// an identical request.
type dedupEntry struct {
	resp *llm.Response
	err  error
	done chan struct{}
}

// wait blocks until the owning dispatch completes or the waiter's own
// context fires. Each waiter observes its own token, not the owner's.
func (e *dedupEntry) wait(ctx context.Context) (*llm.Response, error) {
	select {
	case <-e.done:
		return e.resp, e.err
	case <-ctx.Done():
		return nil, llm.FromContext(ctx)
	}
}

// dedupTracker coalesces identical concurrent dispatches onto one transport
// call.
type dedupTracker struct {
	mu      sync.Mutex
	entries map[string]*dedupEntry
}

func newDedupTracker() *dedupTracker {
	return &dedupTracker{entries: make(map[string]*dedupEntry)}
}

// claim returns the entry for key and whether the caller owns it. The owner
// performs the call and must invoke complete exactly once; non-owners wait.
func (t *dedupTracker) claim(key string) (*dedupEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.entries[key]; exists {
		return entry, false
	}
	entry := &dedupEntry{done: make(chan struct{})}
	t.entries[key] = entry
	return entry, true
}

// complete publishes the owner's outcome and releases all waiters. The key
// is retired immediately so later identical requests dispatch fresh.
func (t *dedupTracker) complete(key string, resp *llm.Response, err error) {
	t.mu.Lock()
	entry, exists := t.entries[key]
	if exists {
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if !exists {
		return
	}
	entry.resp = resp
	entry.err = err
	close(entry.done)
}
