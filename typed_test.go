package lixcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	c "github.com/taylorpreston/lix-cache/codec"
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, newMemStore(), nil)
	defer eng.Close(ctx)

	tc := NewTyped[user](eng, c.JSON[user]{})

	_, ok, err := tc.Get(ctx, "u:1")
	require.NoError(t, err)
	require.False(t, ok)

	in := user{ID: "1", Name: "Ada"}
	require.NoError(t, tc.Set(ctx, "u:1", in, time.Minute))

	out, ok, err := tc.Get(ctx, "u:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in, out)

	require.NoError(t, tc.Del(ctx, "u:1"))
	_, ok, err = tc.Get(ctx, "u:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTypedRemember(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, newMemStore(), nil)
	defer eng.Close(ctx)

	tc := NewTyped[user](eng, c.JSON[user]{})

	calls := 0
	load := func(context.Context) (user, error) {
		calls++
		return user{ID: "7", Name: "Grace"}, nil
	}

	v, err := tc.Remember(ctx, "u:7", load, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "Grace", v.Name)

	v, err = tc.Remember(ctx, "u:7", load, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "Grace", v.Name)
	require.Equal(t, 1, calls, "second call must hit the cache")
}

func TestTypedRememberAll(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, newMemStore(), nil)
	defer eng.Close(ctx)

	tc := NewTyped[user](eng, c.JSON[user]{})

	calls := 0
	loadAll := func(context.Context) ([]user, error) {
		calls++
		return []user{{ID: "1", Name: "Ada"}, {ID: "2", Name: "Bob"}}, nil
	}
	keyOf := func(u user) string { return u.ID }
	opts := ListOptions{TTL: time.Hour, ListTTL: time.Hour}

	first, err := tc.RememberAll(ctx, "user:", loadAll, keyOf, opts)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())
	require.False(t, first.FromCache)

	got, ok := first.GetBy("2")
	require.True(t, ok)
	require.Equal(t, "Bob", got.Name)

	second, err := tc.RememberAll(ctx, "user:", loadAll, keyOf, opts)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, 2, second.Len())
	require.Equal(t, 1, calls, "marker-fresh call must not refetch")

	// members are plain typed entries too
	u, ok, err := tc.Get(ctx, "user:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Ada", u.Name)
}

func TestTypedLimitCodec(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t, newMemStore(), nil)
	defer eng.Close(ctx)

	tc := NewTyped[user](eng, c.Limit[user]{Inner: c.JSON[user]{}, MaxDecode: 4})

	require.NoError(t, tc.Set(ctx, "u:1", user{ID: "1", Name: "Ada"}, 0))
	_, _, err := tc.Get(ctx, "u:1")
	require.ErrorContains(t, err, "payload too large")
}
