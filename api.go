package lixcache

import (
	"context"
	"time"

	st "github.com/taylorpreston/lix-cache/store"
)

// OpKind re-exports the batch operation discriminator for callers that only
// import the root package.
type OpKind = st.OpKind

// Producer computes the value for a Remember miss. It runs at most once per
// in-flight key, on the first caller's goroutine.
type Producer func(ctx context.Context) ([]byte, error)

// Member is one item of a RememberAll list: the value plus the id it is
// cached under (full key = prefix + ID).
type Member struct {
	ID    string
	Value []byte
}

// ListProducer fetches the full member list for a RememberAll prefix.
type ListProducer func(ctx context.Context) ([]Member, error)

// ListOptions tune one RememberAll call.
type ListOptions struct {
	// TTL applies to each cached member. 0 => engine DefaultTTL.
	TTL time.Duration

	// ListTTL > 0 enables optimized mode: a freshness marker with this
	// expiry gates whether the producer runs at all. While the marker
	// lives, members are re-read from the store instead of refetched.
	//
	// Trade-off: the marker attests that a bulk fetch happened within
	// ListTTL, not that every member is still cached. With TTL < ListTTL a
	// marker-fresh call can return a list already missing expired members.
	// Callers that cannot tolerate a shrunken list must keep TTL >= ListTTL.
	ListTTL time.Duration
}

// Engine is the coalescing cache client. Read/write/remove calls enter an
// in-process queue and are sent to the store as one batch per burst of work;
// Remember and RememberAll add keyed single-flight on top.
type Engine interface {
	Enabled() bool
	Close(ctx context.Context) error

	// Queued surface. The async variants return the operation's handle
	// without waiting; the plain variants wait for settlement.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	GetAsync(key string) *Handle
	SetAsync(key string, value []byte, ttl time.Duration) *Handle
	DelAsync(key string) *Handle

	// Remember returns the cached value for key, or runs producer exactly
	// once across all concurrent callers, stores the result with ttl
	// (0 => DefaultTTL) and returns it. It never reports "not found".
	Remember(ctx context.Context, key string, producer Producer, ttl time.Duration) ([]byte, error)

	// RememberAll is the bulk variant, single-flighted per prefix. Each
	// produced member is cached individually under prefix + member.ID.
	RememberAll(ctx context.Context, prefix string, producer ListProducer, opts ListOptions) (*List, error)
}

// Options tune the engine.
// Only Namespace and Store are required; others have sensible defaults.
type Options struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "user", "profile", "order"
	Store     st.Store

	Logger     Logger        // if nil, NopLogger is used
	Hooks      Hooks         // if nil, NopHooks is used
	Scheduler  Scheduler     // if nil, flushes run on a fresh goroutine
	DefaultTTL time.Duration // applied when a write's ttl is 0; 0 => 10m
	Disabled   bool          // default false (enabled)
}

// New builds an Engine. Registries and the operation queue are owned by the
// returned instance; independently configured engines coexist safely.
func New(opts Options) (Engine, error) {
	return newEngine(opts)
}
