package lixcache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/taylorpreston/lix-cache/internal/util"
	"github.com/taylorpreston/lix-cache/internal/wire"
	st "github.com/taylorpreston/lix-cache/store"
)

// List is the outcome of one RememberAll call: the member sequence plus a
// disposable id index rebuilt on every call. The sequence is the source of
// truth; the index is a derived O(1) view.
type List struct {
	Members []Member

	// FetchedAt is when the backing bulk fetch ran: now for a fresh fetch,
	// the marker's timestamp when served from cache in optimized mode.
	FetchedAt time.Time

	// FromCache is true when the members were re-read from the store under a
	// live freshness marker, without running the producer.
	FromCache bool

	index map[string][]byte
}

// GetBy looks a member up by id.
func (l *List) GetBy(id string) ([]byte, bool) {
	v, ok := l.index[id]
	return v, ok
}

func (l *List) Len() int { return len(l.Members) }

func newList(members []Member, fetchedAt time.Time, fromCache bool) *List {
	idx := make(map[string][]byte, len(members))
	for _, m := range members {
		idx[m.ID] = m.Value
	}
	return &List{Members: members, FetchedAt: fetchedAt, FromCache: fromCache, index: idx}
}

// listFlight is the prefix-keyed analogue of a Handle; it settles once with a
// whole list.
type listFlight struct {
	done chan struct{}
	list *List
	err  error
}

func (f *listFlight) wait(ctx context.Context) (*List, error) {
	select {
	case <-f.done:
		return f.list, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RememberAll fetches and caches a whole list under one prefix with the same
// single-flight discipline as Remember, keyed by prefix. Without ListTTL the
// producer always runs and every member is cached individually. With ListTTL
// a freshness marker gates the producer: while the marker lives, members are
// re-read from the store via a prefix scan instead of refetched.
func (e *engine) RememberAll(ctx context.Context, prefix string, producer ListProducer, opts ListOptions) (*List, error) {
	if producer == nil {
		return nil, fmt.Errorf("lixcache: producer is required")
	}
	if !e.enabled {
		members, err := producer(ctx)
		if err != nil {
			return nil, &ProducerError{Key: prefix, Err: err}
		}
		return newList(members, time.Now(), false), nil
	}

	e.flightMu.Lock()
	if f, ok := e.listFlights[prefix]; ok {
		e.flightMu.Unlock()
		e.hooks.FlightJoined("rememberAll", prefix)
		return f.wait(ctx)
	}
	f := &listFlight{done: make(chan struct{})}
	e.listFlights[prefix] = f
	e.flightMu.Unlock()

	f.list, f.err = e.fetchList(context.WithoutCancel(ctx), prefix, producer, opts)
	close(f.done)
	e.flightMu.Lock()
	delete(e.listFlights, prefix)
	e.flightMu.Unlock()

	return f.list, f.err
}

func (e *engine) fetchList(ctx context.Context, prefix string, producer ListProducer, opts ListOptions) (*List, error) {
	if opts.ListTTL > 0 {
		ok, err := e.store.Exists(ctx, util.MarkerKey(e.ns, prefix))
		if err != nil {
			return nil, fmt.Errorf("lixcache: marker probe for %q: %w", prefix, err)
		}
		if ok {
			if list, ok := e.readCachedList(ctx, prefix); ok {
				return list, nil
			}
			// marker vanished or was corrupt between probe and scan
		}
		e.hooks.MarkerStale(prefix)
	}

	members, err := producer(ctx)
	if err != nil {
		return nil, &ProducerError{Key: prefix, Err: err}
	}

	// one batch for every member write
	ttl := coalesce(opts.TTL, e.defaultTTL)
	now := time.Now()
	handles := make([]*Handle, 0, len(members))
	for _, m := range members {
		handles = append(handles, e.SetAsync(prefix+m.ID, m.Value, ttl))
	}
	for _, h := range handles {
		if _, err := h.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// The marker rides its own cycle, armed only after every member write
	// acked. A rejected member write must fail the call with no marker left
	// behind: the marker gates the producer, and a marker attesting a fill
	// that failed would serve an incomplete list for the whole ListTTL.
	if opts.ListTTL > 0 {
		mh := e.enqueue(st.Op{
			Kind:  st.OpWrite,
			Key:   util.MarkerKey(e.ns, prefix),
			Value: wire.EncodeMarker(now, len(members)),
			TTL:   opts.ListTTL,
		})
		if _, err := mh.Wait(ctx); err != nil {
			return nil, err
		}
	}

	e.log.Debug("rememberAll fetched", Fields{"prefix": prefix, "members": len(members)})
	return newList(members, now, false), nil
}

// readCachedList serves the optimized-mode fresh path: scan everything under
// the prefix, split the marker entry out of the scan, and rebuild the member
// list from whatever is still cached. A member whose own TTL already lapsed
// is simply absent; the marker attests the bulk fetch, not each member.
func (e *engine) readCachedList(ctx context.Context, prefix string) (*List, bool) {
	kvs, err := e.store.Scan(ctx, util.StorageKey(e.ns, prefix))
	if err != nil {
		e.log.Warn("prefix scan failed; refetching", Fields{"prefix": prefix, "err": err})
		return nil, false
	}

	var fetchedAt time.Time
	members := make([]Member, 0, len(kvs))
	for _, kv := range kvs {
		if util.IsMarkerKey(kv.Key) {
			at, _, err := wire.DecodeMarker(kv.Value)
			if err != nil {
				// foreign bytes under our marker key: refetch
				return nil, false
			}
			fetchedAt = at
			continue
		}
		userKey, ok := util.TrimStorageKey(e.ns, kv.Key)
		if !ok {
			continue
		}
		members = append(members, Member{ID: strings.TrimPrefix(userKey, prefix), Value: kv.Value})
	}
	if fetchedAt.IsZero() {
		// marker expired between the existence probe and the scan
		return nil, false
	}

	// scan order is unspecified; keep the cached view deterministic
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	age := time.Since(fetchedAt)
	e.log.Debug("rememberAll served from cache", Fields{"prefix": prefix, "members": len(members), "age": age})
	e.hooks.MarkerFresh(prefix, age)
	return newList(members, fetchedAt, true), true
}
