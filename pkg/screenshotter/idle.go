package screenshotter

import (
	"context"
	"sync"
)

// idleWaiter records which document loaders reached network idle. Chrome
// reports idle for every load on the page, including the initial
// about:blank, so waits are keyed by the loader a navigation returned.
type idleWaiter struct {
	mu     sync.Mutex
	idle   map[string]bool
	notify chan struct{}
}

func newIdleWaiter() *idleWaiter {
	return &idleWaiter{
		idle:   make(map[string]bool),
		notify: make(chan struct{}),
	}
}

func (w *idleWaiter) markIdle(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.idle[id] = true
	close(w.notify)
	w.notify = make(chan struct{})
}

func (w *idleWaiter) wait(ctx context.Context, id string) error {
	for {
		w.mu.Lock()
		if w.idle[id] {
			w.mu.Unlock()
			return nil
		}
		notify := w.notify
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
		}
	}
}
