// Package store defines the remote-store abstraction consumed by lixcache.
//
// A Store is a byte store with TTLs that accepts batches: Exchange carries an
// ordered list of operations in one network call and answers with results in
// the same order. Implementations MUST preserve positional correspondence
// (result i answers op i) and MUST be byte-for-byte transparent: a read must
// return exactly the []byte previously written for that key.
//
// The keyspace "lix:<ns>:" is owned by lixcache. External code MUST NOT write
// values under these prefixes; in particular any key ending in "!fresh" is
// reserved for freshness markers.
package store

import (
	"context"
	"time"
)

// OpKind discriminates the operation variants of a batch exchange.
type OpKind uint8

const (
	OpRead OpKind = iota + 1
	OpWrite
	OpRemove
)

func (k OpKind) String() string {
	switch k {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Op is one entry of an outgoing batch. Value and TTL are set for writes
// only; TTL <= 0 means no expiry.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
	TTL   time.Duration
}

// Result is one entry of an incoming batch, positionally matched to its Op.
// Reads: Value is the stored bytes, nil when the key is absent (a miss is not
// an error). Writes/removes: OK reports acceptance. Err carries a per-op
// store failure inside an otherwise successful exchange.
type Result struct {
	Kind  OpKind
	Value []byte
	OK    bool
	Err   error
}

// KV is one entry returned by a prefix scan.
type KV struct {
	Key   string
	Value []byte
}

// Store is the remote cache store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Exchange sends ops as one network exchange and returns one result per
	// op, in op order. A returned error means the whole exchange failed and
	// no per-op results are available.
	Exchange(ctx context.Context, ops []Op) ([]Result, error)

	// Scan returns all currently cached entries whose key starts with prefix.
	// Order is unspecified.
	Scan(ctx context.Context, prefix string) ([]KV, error)

	// Exists reports whether key is currently present.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases resources.
	Close(ctx context.Context) error
}
