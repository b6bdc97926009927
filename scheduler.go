package lixcache

import "sync"

// Scheduler defers an armed flush until the current burst of synchronous work
// has finished. The queue arms at most one flush per batch cycle; the
// Scheduler only decides when that flush runs.
//
// A timer-based scheduler is deliberately not provided: any positive delay
// adds latency to every batch and breaks the one-burst-one-batch contract.
type Scheduler interface {
	// Schedule arranges for fn to run exactly once, after the caller's
	// current run of synchronous work completes. Schedule itself must not
	// block and must not invoke fn inline.
	Schedule(fn func())
}

// goScheduler defers to a fresh goroutine: the finest-grained deferred
// continuation Go offers. The flush runs as soon as the enqueuing goroutine
// yields (typically when it blocks waiting on a handle).
type goScheduler struct{}

func (goScheduler) Schedule(fn func()) { go fn() }

// Manual collects armed flushes and runs them only when Fire is called. Meant
// for embedders that own their own tick (frameworks, deterministic tests).
type Manual struct {
	mu      sync.Mutex
	pending []func()
}

var _ Scheduler = (*Manual)(nil)

func (m *Manual) Schedule(fn func()) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

// Fire runs every pending flush in arm order and returns how many ran.
// Flushes armed while Fire is running are picked up by the next Fire.
func (m *Manual) Fire() int {
	m.mu.Lock()
	fns := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Pending reports how many armed flushes await Fire.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
