// Package sloghooks is a ready-made Hooks implementation that reports engine
// events through log/slog, with sampling for the chatty ones.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	lixcache "github.com/taylorpreston/lix-cache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	CollapseEvery uint64 // read-collapse and flight-join events
	FlushEvery    uint64 // successful flushes
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	collapseCtr atomic.Uint64
	flushCtr    atomic.Uint64
}

var _ lixcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) BatchFlushed(batchID string, ops int) {
	if h.l == nil || !sample(h.opts.FlushEvery, &h.flushCtr) {
		return
	}
	h.l.Debug("lixcache.batch_flushed",
		"batch", batchID,
		"ops", ops)
}

func (h *Hooks) BatchFailed(batchID string, ops int, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("lixcache.batch_failed",
		"batch", batchID,
		"ops", ops,
		"err", err)
}

func (h *Hooks) ReadCollapsed(key string) {
	if h.l == nil || !sample(h.opts.CollapseEvery, &h.collapseCtr) {
		return
	}
	h.l.Debug("lixcache.read_collapsed",
		"key", h.redact(key))
}

func (h *Hooks) FlightJoined(kind, key string) {
	if h.l == nil || !sample(h.opts.CollapseEvery, &h.collapseCtr) {
		return
	}
	h.l.Debug("lixcache.flight_joined",
		"kind", kind,
		"key", h.redact(key))
}

func (h *Hooks) MarkerFresh(prefix string, age time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Debug("lixcache.marker_fresh",
		"prefix", h.redact(prefix),
		"age", age)
}

func (h *Hooks) MarkerStale(prefix string) {
	if h.l == nil {
		return
	}
	h.l.Debug("lixcache.marker_stale",
		"prefix", h.redact(prefix))
}

func (h *Hooks) StoreOpRejected(key string, kind lixcache.OpKind) {
	if h.l == nil {
		return
	}
	h.l.Warn("lixcache.store_op_rejected",
		"key", h.redact(key),
		"kind", kind.String())
}
