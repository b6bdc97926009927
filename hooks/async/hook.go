// Package asynchook decouples hook delivery from the engine's hot paths: raw
// hook events are queued to a small worker pool and dropped when the queue is
// full, so a slow sink can never stall a flush.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{CollapseEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	eng, _ := lixcache.New(lixcache.Options{
//	    Namespace: "app:prod:user",
//	    Store:     store,
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"time"

	lixcache "github.com/taylorpreston/lix-cache"
)

type Hooks struct {
	inner lixcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ lixcache.Hooks = (*Hooks)(nil)

func New(inner lixcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) BatchFlushed(id string, ops int) { h.try(func() { h.inner.BatchFlushed(id, ops) }) }
func (h *Hooks) ReadCollapsed(key string)        { h.try(func() { h.inner.ReadCollapsed(key) }) }
func (h *Hooks) MarkerStale(prefix string)       { h.try(func() { h.inner.MarkerStale(prefix) }) }
func (h *Hooks) BatchFailed(id string, ops int, err error) {
	h.try(func() { h.inner.BatchFailed(id, ops, err) })
}
func (h *Hooks) FlightJoined(kind, key string) {
	h.try(func() { h.inner.FlightJoined(kind, key) })
}
func (h *Hooks) MarkerFresh(prefix string, age time.Duration) {
	h.try(func() { h.inner.MarkerFresh(prefix, age) })
}
func (h *Hooks) StoreOpRejected(key string, kind lixcache.OpKind) {
	h.try(func() { h.inner.StoreOpRejected(key, kind) })
}
