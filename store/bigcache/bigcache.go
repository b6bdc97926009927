// Package bigcache implements the lixcache store on an embedded
// allegro/bigcache instance. Useful for single-process deployments and
// tests that want a real eviction-capable store without a server.
//
// BigCache has no per-entry TTL: every entry lives for the configured
// LifeWindow, so the TTL carried by write operations is ignored. Freshness
// markers therefore expire on the same schedule as list members.
package bigcache

import (
	"context"
	"errors"
	"strings"
	"time"

	bc "github.com/allegro/bigcache/v3"

	st "github.com/taylorpreston/lix-cache/store"
)

type Store struct {
	c *bc.BigCache
}

var _ st.Store = (*Store)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Store, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

// Exchange applies the batch in order. There is no wire to amortize here;
// the point is contract fidelity (ordering, positional results, per-op
// errors) so the engine behaves identically on top of it.
func (s *Store) Exchange(_ context.Context, ops []st.Op) ([]st.Result, error) {
	out := make([]st.Result, len(ops))
	for i, op := range ops {
		res := st.Result{Kind: op.Kind}
		switch op.Kind {
		case st.OpRead:
			b, err := s.c.Get(op.Key)
			switch {
			case errors.Is(err, bc.ErrEntryNotFound):
				// miss
			case err != nil:
				res.Err = err
			default:
				res.Value = b
			}
		case st.OpWrite:
			if err := s.c.Set(op.Key, op.Value); err != nil {
				res.Err = err
			} else {
				res.OK = true
			}
		case st.OpRemove:
			err := s.c.Delete(op.Key)
			if err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
				res.Err = err
			} else {
				res.OK = true
			}
		}
		out[i] = res
	}
	return out, nil
}

func (s *Store) Scan(_ context.Context, prefix string) ([]st.KV, error) {
	var out []st.KV
	it := s.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			// entry evicted mid-iteration; skip
			continue
		}
		if strings.HasPrefix(e.Key(), prefix) {
			out = append(out, st.KV{Key: e.Key(), Value: e.Value()})
		}
	}
	return out, nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	_, err := s.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Close(_ context.Context) error {
	return s.c.Close()
}
