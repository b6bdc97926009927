package lixcache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	st "github.com/taylorpreston/lix-cache/store"
)

type pendingOp struct {
	op st.Op
	h  *Handle
}

// enqueue appends one operation to the current batch cycle and returns its
// handle. It never blocks and never performs I/O. The enqueue that turns the
// queue non-empty arms exactly one deferred flush; everything enqueued before
// the flush snapshots the queue rides in the same batch.
//
// Reads collapse: a read for a key that already has a queued, un-flushed read
// returns the existing handle instead of adding a second wire operation.
// Writes and removes are order-sensitive side effects and never collapse.
func (e *engine) enqueue(op st.Op) *Handle {
	h := newHandle()
	if !e.enabled {
		// disabled engine: reads miss, writes/removes ack, no I/O
		h.resolve(nil)
		return h
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		h.reject(ErrClosed)
		return h
	}
	if op.Kind == st.OpRead {
		if prev, ok := e.pendingReads[op.Key]; ok {
			e.mu.Unlock()
			e.hooks.ReadCollapsed(op.Key)
			return prev
		}
		e.pendingReads[op.Key] = h
	}
	e.queue = append(e.queue, pendingOp{op: op, h: h})
	arm := !e.armed
	e.armed = true
	e.mu.Unlock()

	if arm {
		e.sched.Schedule(e.flush)
	}
	return h
}

// flush atomically snapshots and clears the queue, sends the snapshot as one
// exchange in original order, and fans results out positionally. Operations
// enqueued while the exchange is in the air start a new cycle.
func (e *engine) flush() {
	e.mu.Lock()
	batch := e.queue
	e.queue = nil
	clear(e.pendingReads) // collapsing never crosses cycles
	e.armed = false
	e.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	batchID := uuid.NewString()
	ops := make([]st.Op, len(batch))
	for i, p := range batch {
		ops[i] = p.op
	}

	// In-flight work is never cancelled; transport timeouts belong to the
	// store implementation and surface as an exchange error.
	results, err := e.store.Exchange(context.Background(), ops)
	if err == nil && len(results) != len(ops) {
		err = fmt.Errorf("lixcache: store answered %d results for %d ops", len(results), len(ops))
	}
	if err != nil {
		te := &TransportError{BatchID: batchID, Ops: len(ops), Err: err}
		for _, p := range batch {
			p.h.reject(te)
		}
		e.log.Error("batch exchange failed", Fields{"batch": batchID, "ops": len(ops), "err": err})
		e.hooks.BatchFailed(batchID, len(ops), err)
		return
	}

	for i, p := range batch {
		res := results[i]
		switch {
		case res.Err != nil:
			// one bad op does not poison its batch siblings
			e.hooks.StoreOpRejected(p.op.Key, p.op.Kind)
			p.h.reject(&StoreError{Kind: p.op.Kind, Key: p.op.Key, Err: res.Err})
		case p.op.Kind == st.OpRead:
			p.h.resolve(res.Value)
		case !res.OK:
			e.hooks.StoreOpRejected(p.op.Key, p.op.Kind)
			p.h.reject(&StoreError{Kind: p.op.Kind, Key: p.op.Key})
		default:
			p.h.resolve(nil)
		}
	}

	e.log.Debug("batch flushed", Fields{"batch": batchID, "ops": len(ops)})
	e.hooks.BatchFlushed(batchID, len(ops))
}
