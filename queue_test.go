package lixcache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	st "github.com/taylorpreston/lix-cache/store"
)

// ==============================
// Batching & collapsing tests
// ==============================

// TestReadsCollapseIntoOneOp verifies that three reads for the same key in
// one cycle produce one exchange with one read op, and that all callers see
// the identical value.
func TestReadsCollapseIntoOneOp(t *testing.T) {
	ctx := context.Background()
	mp := newMemStore()
	sched := &Manual{}
	hooks := &recHooks{}
	eng := newTestEngine(t, mp, func(o *Options) {
		o.Scheduler = sched
		o.Hooks = hooks
	})

	seed := eng.SetAsync("k", []byte("v"), 0)
	sched.Fire()
	if _, err := seed.Wait(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h1 := eng.GetAsync("k")
	h2 := eng.GetAsync("k")
	h3 := eng.GetAsync("k")
	if h1 != h2 || h2 != h3 {
		t.Fatal("collapsed reads must share one handle")
	}
	sched.Fire()

	if got := mp.exchangeCount(); got != 2 {
		t.Fatalf("exchanges = %d, want 2 (seed + reads)", got)
	}
	reads := mp.batch(1)
	if len(reads) != 1 || reads[0].Kind != st.OpRead {
		t.Fatalf("read batch = %+v, want exactly one read", reads)
	}
	for i, h := range []*Handle{h1, h2, h3} {
		v, err := h.Wait(ctx)
		if err != nil || string(v) != "v" {
			t.Fatalf("caller %d: v=%q err=%v", i, v, err)
		}
	}
	if hooks.collapsed.Load() != 2 {
		t.Fatalf("collapsed hook = %d, want 2", hooks.collapsed.Load())
	}
}

// TestBulkBatchOneExchange verifies 500 writes + 500 reads for distinct keys
// travel as one exchange of 1000 ops in original order.
func TestBulkBatchOneExchange(t *testing.T) {
	ctx := context.Background()
	mp := newMemStore()
	sched := &Manual{}
	eng := newTestEngine(t, mp, func(o *Options) { o.Scheduler = sched })

	var handles []*Handle
	for i := 0; i < 500; i++ {
		handles = append(handles, eng.SetAsync(fmt.Sprintf("w:%03d", i), []byte("x"), 0))
	}
	for i := 0; i < 500; i++ {
		handles = append(handles, eng.GetAsync(fmt.Sprintf("r:%03d", i)))
	}
	sched.Fire()

	if got := mp.exchangeCount(); got != 1 {
		t.Fatalf("exchanges = %d, want 1", got)
	}
	batch := mp.batch(0)
	if len(batch) != 1000 {
		t.Fatalf("batch size = %d, want 1000", len(batch))
	}
	for i := 0; i < 500; i++ {
		if batch[i].Kind != st.OpWrite {
			t.Fatalf("op %d kind = %v, want write", i, batch[i].Kind)
		}
		if batch[500+i].Kind != st.OpRead {
			t.Fatalf("op %d kind = %v, want read", 500+i, batch[500+i].Kind)
		}
	}
	// original relative order inside each half
	for i := 0; i < 500; i++ {
		if want := fmt.Sprintf("lix:test:w:%03d", i); batch[i].Key != want {
			t.Fatalf("op %d key = %q, want %q", i, batch[i].Key, want)
		}
	}
	for _, h := range handles {
		if _, err := h.Wait(ctx); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
}

// TestWriteThenRemoveSameCycle checks in-order application: a write followed
// by a remove for the same key leaves the key absent.
func TestWriteThenRemoveSameCycle(t *testing.T) {
	ctx := context.Background()
	mp := newMemStore()
	sched := &Manual{}
	eng := newTestEngine(t, mp, func(o *Options) { o.Scheduler = sched })

	hw := eng.SetAsync("k", []byte("v"), 0)
	hr := eng.DelAsync("k")
	sched.Fire()
	if _, err := hw.Wait(ctx); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := hr.Wait(ctx); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mp.exchangeCount() != 1 {
		t.Fatalf("exchanges = %d, want 1", mp.exchangeCount())
	}

	hg := eng.GetAsync("k")
	sched.Fire()
	if v, err := hg.Wait(ctx); err != nil || v != nil {
		t.Fatalf("key should be gone: v=%q err=%v", v, err)
	}
}

// TestCollapseDoesNotCrossCycles: a read in cycle N+1 must not reuse the
// handle of a read already flushed in cycle N.
func TestCollapseDoesNotCrossCycles(t *testing.T) {
	mp := newMemStore()
	sched := &Manual{}
	eng := newTestEngine(t, mp, func(o *Options) { o.Scheduler = sched })

	h1 := eng.GetAsync("k")
	sched.Fire()
	h2 := eng.GetAsync("k")
	sched.Fire()

	if h1 == h2 {
		t.Fatal("reads from different cycles collapsed")
	}
	if mp.exchangeCount() != 2 {
		t.Fatalf("exchanges = %d, want 2", mp.exchangeCount())
	}
}

// TestWritesNeverCollapse: two writes for one key both go on the wire.
func TestWritesNeverCollapse(t *testing.T) {
	mp := newMemStore()
	sched := &Manual{}
	eng := newTestEngine(t, mp, func(o *Options) { o.Scheduler = sched })

	eng.SetAsync("k", []byte("v1"), 0)
	eng.SetAsync("k", []byte("v2"), 0)
	sched.Fire()

	if got := len(mp.batch(0)); got != 2 {
		t.Fatalf("batch size = %d, want 2", got)
	}
}

// TestTransportFailureRejectsWholeBatch: every handle in the affected
// snapshot rejects with the same *TransportError; the next cycle is clean.
func TestTransportFailureRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	mp := newMemStore()
	mp.failNext = errors.New("connection reset")
	sched := &Manual{}
	hooks := &recHooks{}
	eng := newTestEngine(t, mp, func(o *Options) {
		o.Scheduler = sched
		o.Hooks = hooks
	})

	h1 := eng.GetAsync("a")
	h2 := eng.SetAsync("b", []byte("v"), 0)
	sched.Fire()

	var te1, te2 *TransportError
	if _, err := h1.Wait(ctx); !errors.As(err, &te1) {
		t.Fatalf("h1 err = %v, want TransportError", err)
	}
	if _, err := h2.Wait(ctx); !errors.As(err, &te2) {
		t.Fatalf("h2 err = %v, want TransportError", err)
	}
	if te1 != te2 {
		t.Fatal("batch members must share one rejection")
	}
	if hooks.failed.Load() != 1 {
		t.Fatalf("failed hook = %d, want 1", hooks.failed.Load())
	}

	// next cycle unaffected
	h3 := eng.SetAsync("b", []byte("v"), 0)
	sched.Fire()
	if _, err := h3.Wait(ctx); err != nil {
		t.Fatalf("next cycle: %v", err)
	}
}

// TestStoreOpErrorIsolated: a per-op store error rejects only the matching
// handle; batch siblings settle normally.
func TestStoreOpErrorIsolated(t *testing.T) {
	ctx := context.Background()
	mp := newMemStore()
	mp.rejectKey = map[string]error{"lix:test:bad": errors.New("oom")}
	sched := &Manual{}
	eng := newTestEngine(t, mp, func(o *Options) { o.Scheduler = sched })

	hBad := eng.SetAsync("bad", []byte("v"), 0)
	hOK := eng.SetAsync("good", []byte("v"), 0)
	sched.Fire()

	var se *StoreError
	if _, err := hBad.Wait(ctx); !errors.As(err, &se) {
		t.Fatalf("bad err = %v, want StoreError", err)
	}
	if se.Key != "lix:test:bad" || se.Kind != st.OpWrite {
		t.Fatalf("StoreError = %+v", se)
	}
	if _, err := hOK.Wait(ctx); err != nil {
		t.Fatalf("sibling rejected: %v", err)
	}
}

// TestResultCountMismatchIsTransportFailure guards the positional contract.
func TestResultCountMismatchIsTransportFailure(t *testing.T) {
	ctx := context.Background()
	mp := &truncatingStore{inner: newMemStore()}
	sched := &Manual{}
	eng := newTestEngine(t, mp, func(o *Options) { o.Scheduler = sched })

	h1 := eng.GetAsync("a")
	h2 := eng.GetAsync("b")
	sched.Fire()

	var te *TransportError
	if _, err := h1.Wait(ctx); !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if _, err := h2.Wait(ctx); !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

type truncatingStore struct{ inner *memStore }

func (s *truncatingStore) Exchange(ctx context.Context, ops []st.Op) ([]st.Result, error) {
	res, err := s.inner.Exchange(ctx, ops)
	if err != nil || len(res) == 0 {
		return res, err
	}
	return res[:len(res)-1], nil
}

func (s *truncatingStore) Scan(ctx context.Context, prefix string) ([]st.KV, error) {
	return s.inner.Scan(ctx, prefix)
}

func (s *truncatingStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

func (s *truncatingStore) Close(ctx context.Context) error { return s.inner.Close(ctx) }
