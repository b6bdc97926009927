package lixcache

import "time"

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The engine calls them on hot paths.
type Hooks interface {
	// One batch exchange completed. batchID is unique per flush.
	BatchFlushed(batchID string, ops int)

	// The whole exchange failed; every handle in it was rejected.
	BatchFailed(batchID string, ops int, err error)

	// A read joined an already-queued read for the same key instead of
	// enqueuing a second operation.
	ReadCollapsed(key string)

	// A Remember/RememberAll call joined an in-flight sequence.
	// kind ∈ {"remember", "rememberAll"}
	FlightJoined(kind, key string)

	// Optimized-mode RememberAll found a live freshness marker and skipped
	// the producer. age is time since the marked bulk fetch.
	MarkerFresh(prefix string, age time.Duration)

	// No live marker; the producer ran and the marker was (re)written.
	MarkerStale(prefix string)

	// The store rejected one op inside an otherwise successful batch.
	StoreOpRejected(key string, kind OpKind)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) BatchFlushed(string, int)          {}
func (NopHooks) BatchFailed(string, int, error)    {}
func (NopHooks) ReadCollapsed(string)              {}
func (NopHooks) FlightJoined(string, string)       {}
func (NopHooks) MarkerFresh(string, time.Duration) {}
func (NopHooks) MarkerStale(string)                {}
func (NopHooks) StoreOpRejected(string, OpKind)    {}
