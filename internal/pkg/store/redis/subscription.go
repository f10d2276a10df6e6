package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/store"
)

type query struct {
	store      *Store
	start, end string
}

// subscription tracks the keys currently inside its range. The initial load
// runs on its own goroutine; feed messages wait for it and are then handled
// on the NATS delivery goroutine, so handler calls never overlap.
type subscription struct {
	store      *Store
	start, end string
	handlers   store.ChildHandlers
	last       map[string][]byte
	loaded     chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	feed       *nats.Subscription
	closed     atomic.Bool
}

func (q *query) Subscribe(handlers store.ChildHandlers) (store.Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		store:    q.store,
		start:    q.start,
		end:      q.end,
		handlers: handlers,
		last:     make(map[string][]byte),
		loaded:   make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	feed, err := q.store.nats.Subscribe(q.store.subject(), sub.onMessage)
	if err != nil {
		cancel()
		return nil, err
	}
	sub.feed = feed

	go sub.load()
	return sub, nil
}

func (sub *subscription) Unsubscribe() {
	if sub.closed.Swap(true) {
		return
	}
	sub.cancel()
	if err := sub.feed.Unsubscribe(); err != nil {
		logger.Warn("Failed to unsubscribe from change feed",
			logger.Range(sub.start, sub.end),
			logger.Err(err))
	}
}

func (sub *subscription) load() {
	defer close(sub.loaded)

	ctx, cancel := context.WithTimeout(sub.ctx, sub.store.loadTimeout)
	defer cancel()

	members, err := sub.store.redis.ZRangeByLex(ctx, sub.store.indexKey(),
		"["+sub.start, "["+sub.end+constants.RangeEndSuffix)
	if err != nil {
		sub.fail(err)
		return
	}

	keys := make([]string, 0, len(members))
	recordKeys := make([]string, 0, len(members))
	for _, member := range members {
		_, key, ok := splitMember(member)
		if !ok {
			continue
		}
		keys = append(keys, key)
		recordKeys = append(recordKeys, sub.store.recordKey(key))
	}

	values, err := sub.store.redis.MGet(ctx, recordKeys...)
	if err != nil {
		sub.fail(err)
		return
	}

	for i, raw := range values {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		data := []byte(s)
		value, err := store.UnmarshalValue(data)
		if err != nil {
			logger.Warn("Skipping undecodable record", logger.Key(keys[i]), logger.Err(err))
			continue
		}
		// Index members left behind by concurrent writers are filtered by
		// the record's own sort key.
		sortKey, _ := value[store.IndexField].(string)
		if !store.InRange(sortKey, sub.start, sub.end) {
			continue
		}
		if _, seen := sub.last[keys[i]]; seen {
			continue
		}
		sub.last[keys[i]] = data
		sub.call(sub.handlers.OnChildAdded, store.Snapshot{Key: keys[i], Value: value})
	}

	if !sub.closed.Load() && sub.handlers.OnInitialLoad != nil {
		sub.handlers.OnInitialLoad()
	}
}

func (sub *subscription) fail(err error) {
	if sub.closed.Load() || sub.handlers.OnError == nil {
		return
	}
	sub.handlers.OnError(err)
}

func (sub *subscription) call(fn func(store.Snapshot), snap store.Snapshot) {
	if fn == nil || sub.closed.Load() {
		return
	}
	fn(snap)
}

func (sub *subscription) onMessage(msg *nats.Msg) {
	<-sub.loaded
	if sub.closed.Load() {
		return
	}

	var ev changeEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Warn("Invalid change event", logger.String("subject", msg.Subject), logger.Err(err))
		return
	}
	sub.apply(ev)
}

// apply turns one change of the index into the child event seen by this
// range, if any.
func (sub *subscription) apply(ev changeEvent) {
	prev, tracked := sub.last[ev.Key]
	matches := ev.Op == constants.ChangeOpSet && store.InRange(ev.SortKey, sub.start, sub.end)

	switch {
	case matches:
		if tracked && bytes.Equal(prev, ev.Value) {
			return
		}
		value, err := store.UnmarshalValue(ev.Value)
		if err != nil {
			logger.Warn("Skipping undecodable record", logger.Key(ev.Key), logger.Err(err))
			return
		}
		sub.last[ev.Key] = ev.Value
		snap := store.Snapshot{Key: ev.Key, Value: value}
		if tracked {
			sub.call(sub.handlers.OnChildChanged, snap)
		} else {
			sub.call(sub.handlers.OnChildAdded, snap)
		}
	case tracked:
		delete(sub.last, ev.Key)
		value, _ := store.UnmarshalValue(prev)
		sub.call(sub.handlers.OnChildRemoved, store.Snapshot{Key: ev.Key, Value: value})
	}
}
