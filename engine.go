package lixcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taylorpreston/lix-cache/internal/util"
	st "github.com/taylorpreston/lix-cache/store"
)

type engine struct {
	ns    string
	store st.Store
	log   Logger
	hooks Hooks
	sched Scheduler

	enabled    bool
	defaultTTL time.Duration

	// operation queue; one batch cycle at a time
	mu           sync.Mutex
	queue        []pendingOp
	pendingReads map[string]*Handle // storage key -> queued read, current cycle only
	armed        bool
	closed       bool

	// single-flight registries, entries live only while in flight
	flightMu    sync.Mutex
	flights     map[string]*Handle
	listFlights map[string]*listFlight

	closeOnce sync.Once
	closeErr  error
}

func newEngine(opts Options) (*engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("lixcache: store is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("lixcache: namespace is required")
	}

	e := &engine{
		ns:           opts.Namespace,
		store:        opts.Store,
		enabled:      !opts.Disabled,
		pendingReads: make(map[string]*Handle),
		flights:      make(map[string]*Handle),
		listFlights:  make(map[string]*listFlight),
	}

	// defaults
	e.log = coalesce[Logger](opts.Logger, NopLogger{})
	e.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	e.sched = coalesce[Scheduler](opts.Scheduler, goScheduler{})
	e.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, 10*time.Minute)

	return e, nil
}

func (e *engine) Enabled() bool { return e.enabled }

// Close drains any still-queued operations in one final exchange, then closes
// the store. Operations enqueued afterwards reject with ErrClosed.
func (e *engine) Close(ctx context.Context) error {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		e.flush()
		if e.store != nil {
			e.closeErr = e.store.Close(ctx)
		}
	})
	return e.closeErr
}

// Get resolves to the cached bytes, or nil when key is absent. A stored
// zero-length value is indistinguishable from a miss.
func (e *engine) Get(ctx context.Context, key string) ([]byte, error) {
	return e.GetAsync(key).Wait(ctx)
}

func (e *engine) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := e.SetAsync(key, value, ttl).Wait(ctx)
	return err
}

func (e *engine) Del(ctx context.Context, key string) error {
	_, err := e.DelAsync(key).Wait(ctx)
	return err
}

func (e *engine) GetAsync(key string) *Handle {
	return e.enqueue(st.Op{Kind: st.OpRead, Key: e.storageKey(key)})
}

func (e *engine) SetAsync(key string, value []byte, ttl time.Duration) *Handle {
	if ttl == 0 {
		ttl = e.defaultTTL
	}
	return e.enqueue(st.Op{Kind: st.OpWrite, Key: e.storageKey(key), Value: value, TTL: ttl})
}

func (e *engine) DelAsync(key string) *Handle {
	return e.enqueue(st.Op{Kind: st.OpRemove, Key: e.storageKey(key)})
}

func (e *engine) storageKey(userKey string) string {
	return util.StorageKey(e.ns, userKey)
}
