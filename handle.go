package lixcache

import (
	"context"
	"sync"
)

// Handle is the settlement record for one queued operation or one
// single-flight sequence. It settles exactly once (fulfilled with a value or
// rejected with an error) and fans the outcome out to every waiter and every
// subscribed listener. Multiple callers may share one Handle: that is how
// collapsed reads and joined flights observe a single execution.
type Handle struct {
	mu        sync.Mutex
	done      chan struct{}
	value     []byte
	err       error
	settled   bool
	listeners []func(value []byte, err error)
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Subscribe attaches a listener invoked exactly once with the settlement
// outcome. Listeners registered before settlement run in registration order
// on the settling goroutine; subscribing after settlement invokes fn
// immediately on the caller's goroutine.
func (h *Handle) Subscribe(fn func(value []byte, err error)) {
	h.mu.Lock()
	if h.settled {
		v, err := h.value, h.err
		h.mu.Unlock()
		fn(v, err)
		return
	}
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Wait blocks until the handle settles or ctx is done. Abandoning a Wait
// never cancels the underlying work; the handle still settles for everyone
// else.
func (h *Handle) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Settled reports whether the handle has an outcome.
func (h *Handle) Settled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settled
}

func (h *Handle) resolve(v []byte) { h.settle(v, nil) }
func (h *Handle) reject(err error) { h.settle(nil, err) }

// settle records the first outcome; later settlements are no-ops, the state
// is immutable once set.
func (h *Handle) settle(v []byte, err error) {
	h.mu.Lock()
	if h.settled {
		h.mu.Unlock()
		return
	}
	h.settled = true
	h.value, h.err = v, err
	ls := h.listeners
	h.listeners = nil
	close(h.done)
	h.mu.Unlock()

	for _, fn := range ls {
		fn(v, err)
	}
}
