// Package memory is an in-process implementation of store.Store.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/piresc/geoquery/internal/pkg/store"
)

type entry struct {
	value   map[string]interface{}
	sortKey string
}

// Store keeps values in a map and delivers child events synchronously to
// subscribers. Deliveries are queued and drained by one caller at a time,
// so handlers may write to the store or subscribe again without deadlock.
type Store struct {
	mu          sync.Mutex
	values      map[string]entry
	subs        map[*subscription]struct{}
	failures    map[[2]string]error
	queue       []func()
	dispatching bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]entry),
		subs:     make(map[*subscription]struct{}),
		failures: make(map[[2]string]error),
	}
}

// FailRange makes subscriptions to [start, end] report err instead of
// completing their initial load. A nil err clears the failure.
func (s *Store) FailRange(start, end string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, [2]string{start, end})
		return
	}
	s.failures[[2]string{start, end}] = err
}

// Subscriptions returns the number of live subscriptions.
func (s *Store) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) Ref(key string) store.Ref {
	return &ref{store: s, key: key}
}

func (s *Store) RangeQuery(start, end string) store.Query {
	return &query{store: s, start: start, end: end}
}

func (s *Store) enqueue(fn func()) {
	s.queue = append(s.queue, fn)
}

// drain runs queued deliveries unless another caller is already doing so.
func (s *Store) drain() {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}
	s.dispatching = false
	s.mu.Unlock()
}

// write applies a set (value != nil) or delete and queues the resulting
// child events. Callers hold s.mu.
func (s *Store) write(key string, value map[string]interface{}, sortKey string) {
	if value == nil {
		delete(s.values, key)
	} else {
		s.values[key] = entry{value: copyValue(value), sortKey: sortKey}
	}
	snap := store.Snapshot{Key: key, Value: copyValue(value)}

	for sub := range s.subs {
		_, tracked := sub.tracked[key]
		matches := value != nil && store.InRange(sortKey, sub.start, sub.end)
		switch {
		case matches && !tracked:
			sub.tracked[key] = struct{}{}
			s.deliver(sub, sub.handlers.OnChildAdded, snap)
		case matches && tracked:
			s.deliver(sub, sub.handlers.OnChildChanged, snap)
		case !matches && tracked:
			delete(sub.tracked, key)
			// Removal events carry the last value the subscription saw.
			s.deliver(sub, sub.handlers.OnChildRemoved, store.Snapshot{Key: key, Value: sub.last[key]})
		}
		if matches {
			sub.last[key] = snap.Value
		} else {
			delete(sub.last, key)
		}
	}
}

func (s *Store) deliver(sub *subscription, fn func(store.Snapshot), snap store.Snapshot) {
	if fn == nil {
		return
	}
	s.enqueue(func() {
		if !sub.closed.Load() {
			fn(snap)
		}
	})
}

type ref struct {
	store *Store
	key   string
}

func (r *ref) Key() string { return r.key }

func (r *ref) Set(ctx context.Context, value map[string]interface{}, sortKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	r.store.write(r.key, value, sortKey)
	r.store.mu.Unlock()
	r.store.drain()
	return nil
}

func (r *ref) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	if _, ok := r.store.values[r.key]; ok {
		r.store.write(r.key, nil, "")
	}
	r.store.mu.Unlock()
	r.store.drain()
	return nil
}

func (r *ref) Get(ctx context.Context) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return store.Snapshot{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.values[r.key]
	if !ok {
		return store.Snapshot{Key: r.key}, nil
	}
	return store.Snapshot{Key: r.key, Value: copyValue(e.value)}, nil
}

type query struct {
	store      *Store
	start, end string
}

type subscription struct {
	store      *Store
	start, end string
	handlers   store.ChildHandlers
	tracked    map[string]struct{}
	last       map[string]map[string]interface{}
	closed     atomic.Bool
}

func (q *query) Subscribe(handlers store.ChildHandlers) (store.Subscription, error) {
	s := q.store
	sub := &subscription{
		store:    s,
		start:    q.start,
		end:      q.end,
		handlers: handlers,
		tracked:  make(map[string]struct{}),
		last:     make(map[string]map[string]interface{}),
	}

	s.mu.Lock()
	if err, failed := s.failures[[2]string{q.start, q.end}]; failed {
		if handlers.OnError != nil {
			s.enqueue(func() {
				if !sub.closed.Load() {
					handlers.OnError(err)
				}
			})
		}
		s.mu.Unlock()
		s.drain()
		return sub, nil
	}

	type match struct {
		key     string
		sortKey string
	}
	var matches []match
	for key, e := range s.values {
		if store.InRange(e.sortKey, q.start, q.end) {
			matches = append(matches, match{key: key, sortKey: e.sortKey})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].sortKey != matches[j].sortKey {
			return matches[i].sortKey < matches[j].sortKey
		}
		return matches[i].key < matches[j].key
	})
	for _, m := range matches {
		value := copyValue(s.values[m.key].value)
		sub.tracked[m.key] = struct{}{}
		sub.last[m.key] = value
		s.deliver(sub, handlers.OnChildAdded, store.Snapshot{Key: m.key, Value: value})
	}
	if handlers.OnInitialLoad != nil {
		s.enqueue(func() {
			if !sub.closed.Load() {
				handlers.OnInitialLoad()
			}
		})
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	s.drain()
	return sub, nil
}

func (sub *subscription) Unsubscribe() {
	sub.closed.Store(true)
	sub.store.mu.Lock()
	delete(sub.store.subs, sub)
	sub.store.mu.Unlock()
}

func copyValue(v map[string]interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	out := make(map[string]interface{}, len(v))
	for k, e := range v {
		out[k] = e
	}
	return out
}
