// Package lixcache implements a client-side coalescing engine for a remote
// key/value store. Many small, logically independent cache operations issued
// within one burst of work are sent as a single batch exchange, duplicate
// reads for the same key collapse onto one wire operation, and keyed
// single-flight primitives (Remember / RememberAll) guarantee at most one
// fetch-or-compute sequence per key (or list prefix) at a time.
//
// Components:
//   - Store: the remote byte store, consumed through one batch exchange call
//     plus a prefix scan and an existence probe (e.g. Redis, BigCache).
//   - Handle: a one-shot settlement record with listener fan-out; every
//     queued operation and every single-flight sequence settles exactly one.
//   - Scheduler: decides when an armed queue flushes. The default defers to a
//     fresh goroutine; Manual hands the flush points to the embedder.
//
// Keys:
//
//	lix:<ns>:<key>          - individual entries
//	lix:<ns>:<prefix>!fresh - freshness marker for RememberAll lists
//
// Cache-aside pattern:
//
//	v, err := eng.Remember(ctx, "user:42", loadUser, 10*time.Minute)
//
// Concurrent Remember calls for the same key share one execution, and a value
// is only reported as remembered once it is durably stored.
package lixcache
