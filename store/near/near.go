// Package near decorates a remote lixcache store with an in-process
// ristretto read cache. Read hits are answered locally and stripped from the
// outgoing exchange; writes and removes invalidate the near entry and pass
// through. Concurrent scans and existence probes for the same key collapse
// onto one remote call via singleflight.
//
// Near entries live at most MaxAge regardless of the remote TTL, which
// bounds how stale a read served from the near layer can be when other
// processes write the same keys.
package near

import (
	"bytes"
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"

	st "github.com/taylorpreston/lix-cache/store"
)

type Store struct {
	inner st.Store
	c     *rc.Cache
	sf    singleflight.Group
	max   time.Duration
}

var _ st.Store = (*Store)(nil)

type Config struct {
	Inner       st.Store
	NumCounters int64         // ristretto keys-to-track hint; 0 => 1e6
	MaxCost     int64         // ristretto cost budget (bytes); 0 => 64 MiB
	MaxAge      time.Duration // upper bound on near-entry lifetime; 0 => 30s
}

func New(cfg Config) (*Store, error) {
	if cfg.Inner == nil {
		return nil, errors.New("near store: inner store is required")
	}
	counters := cfg.NumCounters
	if counters <= 0 {
		counters = 1_000_000
	}
	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = 64 << 20
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: counters,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	max := cfg.MaxAge
	if max <= 0 {
		max = 30 * time.Second
	}
	return &Store{inner: cfg.Inner, c: c, max: max}, nil
}

// Exchange answers read ops from the near cache when possible and forwards
// the rest (plus all writes/removes) in one inner exchange, then merges the
// two result streams back into op order.
func (s *Store) Exchange(ctx context.Context, ops []st.Op) ([]st.Result, error) {
	out := make([]st.Result, len(ops))
	var (
		remote    []st.Op
		remoteIdx []int
	)
	for i, op := range ops {
		if op.Kind == st.OpRead {
			if v, ok := s.c.Get(op.Key); ok {
				if b, ok := v.([]byte); ok {
					// hand out a copy; callers own the slice they get
					// and must not be able to mutate the cached entry
					out[i] = st.Result{Kind: st.OpRead, Value: bytes.Clone(b)}
					continue
				}
				s.c.Del(op.Key) // unexpected entry shape
			}
		}
		remote = append(remote, op)
		remoteIdx = append(remoteIdx, i)
	}
	if len(remote) == 0 {
		return out, nil
	}

	results, err := s.inner.Exchange(ctx, remote)
	if err != nil {
		return nil, err
	}
	if len(results) != len(remote) {
		return nil, errors.New("near store: inner result count mismatch")
	}
	for j, res := range results {
		op := remote[j]
		switch {
		case res.Err != nil:
			// no near-state change for a rejected op
		case op.Kind == st.OpRead && res.Value != nil:
			s.c.SetWithTTL(op.Key, bytes.Clone(res.Value), int64(len(res.Value)), s.nearTTL(0))
		case op.Kind == st.OpWrite, op.Kind == st.OpRemove:
			// other replicas may race us; holding our own write in the near
			// layer is safe, holding a deleted key is not
			if op.Kind == st.OpWrite {
				s.c.SetWithTTL(op.Key, bytes.Clone(op.Value), int64(len(op.Value)), s.nearTTL(op.TTL))
			} else {
				s.c.Del(op.Key)
			}
		}
		out[remoteIdx[j]] = res
	}
	return out, nil
}

func (s *Store) nearTTL(remoteTTL time.Duration) time.Duration {
	if remoteTTL > 0 && remoteTTL < s.max {
		return remoteTTL
	}
	return s.max
}

// Scan always consults the remote store (the near layer holds an arbitrary
// subset and markers must reflect remote truth); identical concurrent scans
// share one remote call.
func (s *Store) Scan(ctx context.Context, prefix string) ([]st.KV, error) {
	v, err, _ := s.sf.Do("scan\x00"+prefix, func() (any, error) {
		return s.inner.Scan(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	return v.([]st.KV), nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	v, err, _ := s.sf.Do("exists\x00"+key, func() (any, error) {
		ok, err := s.inner.Exists(ctx, key)
		return ok, err
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *Store) Close(ctx context.Context) error {
	s.c.Close()
	return s.inner.Close(ctx)
}
