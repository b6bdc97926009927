package lixcache

import (
	"errors"
	"fmt"
)

// ErrClosed is returned (via handle rejection) for operations enqueued after
// the engine has been closed.
var ErrClosed = errors.New("lixcache: engine closed")

// TransportError reports a failed batch exchange: the network call itself
// errored, or the store returned a response that does not line up with the
// request. Every handle in the affected batch is rejected with the same
// TransportError.
type TransportError struct {
	BatchID string
	Ops     int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("batch %s (%d ops) failed: %v", e.BatchID, e.Ops, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StoreError reports that the store rejected one operation inside an
// otherwise successful batch. Only the matching handle is rejected; sibling
// operations in the same batch settle normally.
type StoreError struct {
	Kind OpKind
	Key  string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store %s %q: %v", e.Kind, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s %q: rejected", e.Kind, e.Key)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ProducerError wraps a failure of the caller-supplied compute function in
// Remember/RememberAll. Nothing is persisted when the producer fails.
type ProducerError struct {
	Key string // cache key for Remember, list prefix for RememberAll
	Err error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("producer for %q: %v", e.Key, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }
