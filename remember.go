package lixcache

import (
	"context"
	"fmt"
	"time"
)

// Remember implements single-flight cache-aside for one key: read the cached
// value, or run producer exactly once across all concurrent callers, store
// the result with ttl, and return it. Concurrent callers for the same key
// share the first caller's sequence and outcome.
//
// The value is only reported as remembered once it is durably stored: a
// failed write fails the whole call, and a failed producer persists nothing.
func (e *engine) Remember(ctx context.Context, key string, producer Producer, ttl time.Duration) ([]byte, error) {
	if producer == nil {
		return nil, fmt.Errorf("lixcache: producer is required")
	}
	if !e.enabled {
		v, err := producer(ctx)
		if err != nil {
			return nil, &ProducerError{Key: key, Err: err}
		}
		return v, nil
	}

	e.flightMu.Lock()
	if h, ok := e.flights[key]; ok {
		e.flightMu.Unlock()
		e.hooks.FlightJoined("remember", key)
		return h.Wait(ctx)
	}
	h := newHandle()
	e.flights[key] = h
	e.flightMu.Unlock()

	e.runFlight(ctx, key, h, producer, ttl)
	return h.Wait(ctx)
}

// runFlight executes the read -> produce -> write sequence on the first
// caller's goroutine. The registry entry is removed only after the handle has
// settled, so at most one sequence is live per key and late joiners before
// the removal simply observe the settled outcome.
func (e *engine) runFlight(ctx context.Context, key string, h *Handle, producer Producer, ttl time.Duration) {
	defer func() {
		e.flightMu.Lock()
		delete(e.flights, key)
		e.flightMu.Unlock()
	}()

	// The sequence settles for every listener; one waiter's cancellation
	// must not decide the shared outcome.
	fctx := context.WithoutCancel(ctx)

	v, err := e.GetAsync(key).Wait(fctx)
	if err != nil {
		h.reject(err)
		return
	}
	if len(v) > 0 {
		e.log.Debug("remember hit", Fields{"key": key})
		h.resolve(v)
		return
	}

	produced, err := producer(fctx)
	if err != nil {
		h.reject(&ProducerError{Key: key, Err: err})
		return
	}
	if _, err := e.SetAsync(key, produced, ttl).Wait(fctx); err != nil {
		h.reject(err)
		return
	}
	e.log.Debug("remember produced", Fields{"key": key})
	h.resolve(produced)
}
