// Package redis implements the lixcache store on a Redis server. A batch
// exchange maps onto one pipeline: every operation of the batch travels in a
// single round trip and answers positionally.
package redis

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	st "github.com/taylorpreston/lix-cache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	scanCount   int64
	closeClient bool
}

var _ st.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	ScanCount   int64 // COUNT hint per SCAN page; 0 => 256
	CloseClient bool  // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	count := cfg.ScanCount
	if count <= 0 {
		count = 256
	}
	return &Redis{rdb: cfg.Client, scanCount: count, closeClient: cfg.CloseClient}, nil
}

// Exchange pipelines the whole batch. A connection-level failure fails the
// exchange; per-command errors (wrong type, OOM, ...) surface as Result.Err
// on the matching position only.
func (s *Redis) Exchange(ctx context.Context, ops []st.Op) ([]st.Result, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	cmds := make([]goredis.Cmder, 0, len(ops))
	_, pipeErr := s.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, op := range ops {
			switch op.Kind {
			case st.OpRead:
				cmds = append(cmds, pipe.Get(ctx, op.Key))
			case st.OpWrite:
				ttl := op.TTL
				if ttl < 0 {
					ttl = 0
				}
				cmds = append(cmds, pipe.Set(ctx, op.Key, op.Value, ttl))
			case st.OpRemove:
				cmds = append(cmds, pipe.Del(ctx, op.Key))
			}
		}
		return nil
	})
	if pipeErr != nil && !errors.Is(pipeErr, goredis.Nil) && !reachedServer(cmds) {
		return nil, pipeErr
	}

	out := make([]st.Result, len(ops))
	for i, op := range ops {
		res := st.Result{Kind: op.Kind}
		err := cmds[i].Err()
		switch {
		case op.Kind == st.OpRead && errors.Is(err, goredis.Nil):
			// miss, not an error
		case err != nil:
			res.Err = err
		case op.Kind == st.OpRead:
			b, berr := cmds[i].(*goredis.StringCmd).Bytes()
			if berr != nil && !errors.Is(berr, goredis.Nil) {
				res.Err = berr
			} else {
				res.Value = b
			}
		default:
			res.OK = true
		}
		out[i] = res
	}
	return out, nil
}

// reachedServer reports whether at least one pipelined command completed,
// i.e. the failure was per-command rather than transport-wide.
func reachedServer(cmds []goredis.Cmder) bool {
	for _, c := range cmds {
		if err := c.Err(); err == nil || errors.Is(err, goredis.Nil) {
			return true
		}
	}
	return false
}

func (s *Redis) Scan(ctx context.Context, prefix string) ([]st.KV, error) {
	match := escapeGlob(prefix) + "*"
	var (
		out    []st.KV
		cursor uint64
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, match, s.scanCount).Result()
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			vals, err := s.rdb.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, err
			}
			for i, v := range vals {
				switch vv := v.(type) {
				case nil:
					// expired between SCAN and MGET
				case string:
					out = append(out, st.KV{Key: keys[i], Value: []byte(vv)})
				case []byte:
					out = append(out, st.KV{Key: keys[i], Value: vv})
				}
			}
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

func (s *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// escapeGlob neutralizes MATCH metacharacters so a literal prefix scans as a
// literal prefix.
func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
