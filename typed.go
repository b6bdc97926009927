package lixcache

import (
	"context"
	"time"

	c "github.com/taylorpreston/lix-cache/codec"
)

// Typed is a codec-applying view over an Engine for callers working with a
// concrete value type. It adds serialization only; the coalescing,
// collapsing and single-flight contracts are untouched.
type Typed[V any] struct {
	eng   Engine
	codec c.Codec[V]
}

func NewTyped[V any](eng Engine, codec c.Codec[V]) Typed[V] {
	return Typed[V]{eng: eng, codec: codec}
}

// Get returns the decoded value; ok is false on a miss.
func (t Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	b, err := t.eng.Get(ctx, key)
	if err != nil || len(b) == 0 {
		return zero, false, err
	}
	v, err := t.codec.Decode(b)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (t Typed[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	b, err := t.codec.Encode(value)
	if err != nil {
		return err
	}
	return t.eng.Set(ctx, key, b, ttl)
}

func (t Typed[V]) Del(ctx context.Context, key string) error {
	return t.eng.Del(ctx, key)
}

// Remember is the typed single-flight cache-aside call. Note that callers
// sharing one key should use the same codec: joiners decode whatever bytes
// the owning sequence stored.
func (t Typed[V]) Remember(ctx context.Context, key string, produce func(ctx context.Context) (V, error), ttl time.Duration) (V, error) {
	var zero V
	b, err := t.eng.Remember(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		return t.codec.Encode(v)
	}, ttl)
	if err != nil {
		return zero, err
	}
	return t.codec.Decode(b)
}

// TypedList mirrors List with decoded members.
type TypedList[V any] struct {
	Items     []V
	FetchedAt time.Time
	FromCache bool

	index map[string]V
}

// GetBy looks an item up by the id keyOf assigned to it.
func (l *TypedList[V]) GetBy(id string) (V, bool) {
	v, ok := l.index[id]
	return v, ok
}

func (l *TypedList[V]) Len() int { return len(l.Items) }

// RememberAll is the typed bulk call: produce returns the full list and keyOf
// assigns each item its cache id under prefix.
func (t Typed[V]) RememberAll(ctx context.Context, prefix string, produce func(ctx context.Context) ([]V, error), keyOf func(V) string, opts ListOptions) (*TypedList[V], error) {
	list, err := t.eng.RememberAll(ctx, prefix, func(ctx context.Context) ([]Member, error) {
		vs, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		members := make([]Member, len(vs))
		for i, v := range vs {
			b, err := t.codec.Encode(v)
			if err != nil {
				return nil, err
			}
			members[i] = Member{ID: keyOf(v), Value: b}
		}
		return members, nil
	}, opts)
	if err != nil {
		return nil, err
	}

	out := &TypedList[V]{
		Items:     make([]V, 0, list.Len()),
		FetchedAt: list.FetchedAt,
		FromCache: list.FromCache,
		index:     make(map[string]V, list.Len()),
	}
	for _, m := range list.Members {
		v, err := t.codec.Decode(m.Value)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, v)
		out.index[m.ID] = v
	}
	return out, nil
}
