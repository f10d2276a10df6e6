// Package geoquery keeps a live view of the keys inside a circular region.
//
// A Query decomposes its region into geohash range queries, subscribes to
// each of them on a store.Store and turns the resulting child events into
// entered, exited, moved and changed notifications. All state is guarded by
// one mutex; store calls and listener notifications happen outside of it.
package geoquery

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/store"
)

// KilometerToMeter converts the public radius unit to the internal one.
const KilometerToMeter = 1000

// DefaultReadTimeout bounds the read issued when a child is removed.
const DefaultReadTimeout = 10 * time.Second

// Query is a live region query. The zero value is not usable; use New.
type Query struct {
	store       store.Store
	raiser      Raiser
	readTimeout time.Duration

	mu          sync.Mutex
	center      geo.Location
	radius      float64 // meters
	listeners   []Listener
	queries     map[geo.RangeQuery]*rangeSub // nil until the first region pass
	outstanding map[geo.RangeQuery]struct{}
	locations   map[string]*locationInfo
	versions    map[string]uint64
	// carried holds the in-region keys listeners knew about before a
	// restart, until the restarted range queries report them again.
	carried map[string]*locationInfo
	seq         uint64

	pending  []func()
	draining bool
}

type rangeSub struct {
	query  geo.RangeQuery
	handle store.Subscription
	active bool
}

type locationInfo struct {
	location geo.Location
	hash     string
	inRegion bool
	snapshot store.Snapshot
}

// subscriptionPlan collects the store calls a state change requires.
type subscriptionPlan struct {
	unsubscribe []store.Subscription
	subscribe   []*rangeSub
}

// New returns a query for the circle around center. The radius is in
// kilometers and is capped at geo.MaxSupportedRadiusKm. Nothing is
// subscribed until the first listener is added.
func New(st store.Store, raiser Raiser, center geo.Location, radiusKm float64) (*Query, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is nil", geo.ErrInvalidArgument)
	}
	if !center.IsValid() {
		return nil, fmt.Errorf("%w: invalid center %s", geo.ErrInvalidArgument, center)
	}
	if raiser == nil {
		raiser = ImmediateRaiser{}
	}
	return &Query{
		store:       st,
		raiser:      raiser,
		readTimeout: DefaultReadTimeout,
		center:      center,
		radius:      capRadius(radiusKm) * KilometerToMeter,
		outstanding: make(map[geo.RangeQuery]struct{}),
		locations:   make(map[string]*locationInfo),
		versions:    make(map[string]uint64),
	}, nil
}

// SetReadTimeout changes the timeout of the read issued on child removal.
func (q *Query) SetReadTimeout(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.readTimeout = d
}

// Center returns the current center.
func (q *Query) Center() geo.Location {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.center
}

// RadiusKm returns the current radius in kilometers.
func (q *Query) RadiusKm() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.radius / KilometerToMeter
}

// RangeQueries returns the active range queries, sorted.
func (q *Query) RangeQueries() []geo.RangeQuery {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]geo.RangeQuery, 0, len(q.queries))
	for rq := range q.queries {
		out = append(out, rq)
	}
	return geo.NewRangeSet(out...).Slice()
}

// SetRegion moves the query. When listeners are attached the range queries
// are diffed against the new region and every tracked key is re-evaluated.
func (q *Query) SetRegion(center geo.Location, radiusKm float64) error {
	if !center.IsValid() {
		return fmt.Errorf("%w: invalid center %s", geo.ErrInvalidArgument, center)
	}
	q.mu.Lock()
	q.center = center
	q.radius = capRadius(radiusKm) * KilometerToMeter
	plan := q.refreshLocked()
	q.mu.Unlock()

	q.apply(plan)
	return nil
}

// SetCenter moves the center and keeps the radius.
func (q *Query) SetCenter(center geo.Location) error {
	return q.SetRegion(center, q.RadiusKm())
}

// SetRadius changes the radius and keeps the center.
func (q *Query) SetRadius(radiusKm float64) error {
	return q.SetRegion(q.Center(), radiusKm)
}

// AddListener registers l. The first listener starts the query; later ones
// are replayed an entered event per key in the region, then ready if no
// range query is still loading.
func (q *Query) AddListener(l Listener) error {
	if err := checkListener(l); err != nil {
		return err
	}
	q.mu.Lock()
	if q.indexLocked(l) >= 0 {
		q.mu.Unlock()
		return ErrAlreadyRegistered
	}
	q.listeners = append(q.listeners, l)

	var plan subscriptionPlan
	if q.queries == nil {
		plan = q.setupQueriesLocked()
	} else {
		for _, infos := range []map[string]*locationInfo{q.locations, q.carried} {
			for _, info := range infos {
				if info.inRegion {
					snap, loc := info.snapshot, info.location
					q.emitToLocked(l, func(l Listener) { l.OnDataEntered(snap, loc) })
				}
			}
		}
		if len(q.outstanding) == 0 {
			q.emitToLocked(l, func(l Listener) { l.OnQueryReady() })
		}
	}
	q.mu.Unlock()

	q.apply(plan)
	return nil
}

// AddKeyListener registers a KeyListener through a bridge.
func (q *Query) AddKeyListener(l KeyListener) error {
	if l == nil {
		return ErrNilListener
	}
	return q.AddListener(NewKeyListenerBridge(l))
}

// RemoveListener unregisters l. If other listeners remain the query
// restarts from scratch without repeating what they already know: keys
// reported again unchanged fire nothing, and keys that are not reported
// again exit before ready. Otherwise every subscription is dropped.
func (q *Query) RemoveListener(l Listener) error {
	if err := checkListener(l); err != nil {
		return err
	}
	q.mu.Lock()
	i := q.indexLocked(l)
	if i < 0 {
		q.mu.Unlock()
		return ErrNotRegistered
	}
	q.listeners = append(q.listeners[:i:i], q.listeners[i+1:]...)

	var plan subscriptionPlan
	if len(q.listeners) > 0 {
		carried := make(map[string]*locationInfo)
		for _, infos := range []map[string]*locationInfo{q.locations, q.carried} {
			for key, info := range infos {
				if info.inRegion {
					carried[key] = info
				}
			}
		}
		plan = q.resetLocked()
		q.carried = carried
		setup := q.setupQueriesLocked()
		plan.unsubscribe = append(plan.unsubscribe, setup.unsubscribe...)
		plan.subscribe = setup.subscribe
	} else {
		plan = q.resetLocked()
	}
	q.mu.Unlock()

	q.apply(plan)
	return nil
}

// RemoveKeyListener unregisters a listener added with AddKeyListener.
func (q *Query) RemoveKeyListener(l KeyListener) error {
	if l == nil {
		return ErrNilListener
	}
	return q.RemoveListener(NewKeyListenerBridge(l))
}

// RemoveAllListeners drops every listener and subscription without events.
func (q *Query) RemoveAllListeners() {
	q.mu.Lock()
	q.listeners = nil
	plan := q.resetLocked()
	q.mu.Unlock()

	q.apply(plan)
}

func (q *Query) indexLocked(l Listener) int {
	for i, existing := range q.listeners {
		if existing == l {
			return i
		}
	}
	return -1
}

func (q *Query) isRegistered(l Listener) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.indexLocked(l) >= 0
}

func (q *Query) refreshLocked() subscriptionPlan {
	if len(q.listeners) == 0 {
		return subscriptionPlan{}
	}
	return q.setupQueriesLocked()
}

// setupQueriesLocked diffs the active range queries against the current
// region and re-evaluates every tracked key.
func (q *Query) setupQueriesLocked() subscriptionPlan {
	var plan subscriptionPlan
	next := geo.QueriesForRegion(q.center, q.radius)
	if q.queries == nil {
		q.queries = make(map[geo.RangeQuery]*rangeSub)
	}

	removed := 0
	for rq, sub := range q.queries {
		if next.Has(rq) {
			continue
		}
		sub.active = false
		if sub.handle != nil {
			plan.unsubscribe = append(plan.unsubscribe, sub.handle)
		}
		delete(q.queries, rq)
		delete(q.outstanding, rq)
		removed++
	}
	for _, rq := range next.Slice() {
		if _, ok := q.queries[rq]; ok {
			continue
		}
		sub := &rangeSub{query: rq, active: true}
		q.queries[rq] = sub
		q.outstanding[rq] = struct{}{}
		plan.subscribe = append(plan.subscribe, sub)
	}
	logger.Debug("Region queries updated",
		logger.String("center", q.center.String()),
		logger.Float64("radius_m", q.radius),
		logger.Int("active", len(q.queries)),
		logger.Int("added", len(plan.subscribe)),
		logger.Int("removed", removed))

	for key, info := range q.locations {
		q.updateLocationLocked(info.snapshot, info.location)
		if !q.coveredLocked(info.hash) {
			delete(q.locations, key)
			delete(q.versions, key)
		}
	}
	q.checkReadyLocked()
	return plan
}

// resetLocked drops every subscription and all tracked keys.
func (q *Query) resetLocked() subscriptionPlan {
	var plan subscriptionPlan
	for _, sub := range q.queries {
		sub.active = false
		if sub.handle != nil {
			plan.unsubscribe = append(plan.unsubscribe, sub.handle)
		}
	}
	q.queries = nil
	q.outstanding = make(map[geo.RangeQuery]struct{})
	q.locations = make(map[string]*locationInfo)
	q.versions = make(map[string]uint64)
	q.carried = nil
	return plan
}

// apply performs the store calls of plan and delivers pending events. It
// must be called without holding q.mu.
func (q *Query) apply(plan subscriptionPlan) {
	for _, h := range plan.unsubscribe {
		h.Unsubscribe()
	}
	for _, sub := range plan.subscribe {
		handle, err := store.Range(q.store, sub.query).Subscribe(q.handlersFor(sub))

		q.mu.Lock()
		switch {
		case err != nil:
			if sub.active {
				q.queryErrorLocked(sub.query, err)
			}
		case !sub.active:
			q.mu.Unlock()
			handle.Unsubscribe()
			q.flush()
			continue
		default:
			sub.handle = handle
		}
		q.mu.Unlock()
		q.flush()
	}
	q.flush()
}

func (q *Query) handlersFor(sub *rangeSub) store.ChildHandlers {
	return store.ChildHandlers{
		OnChildAdded:   func(snap store.Snapshot) { q.onChildUpdated(sub, snap) },
		OnChildChanged: func(snap store.Snapshot) { q.onChildUpdated(sub, snap) },
		OnChildRemoved: func(snap store.Snapshot) { q.onChildRemoved(sub, snap) },
		OnInitialLoad:  func() { q.onInitialLoad(sub) },
		OnError:        func(err error) { q.onQueryError(sub, err) },
	}
}

func (q *Query) onChildUpdated(sub *rangeSub, snap store.Snapshot) {
	q.mu.Lock()
	if !sub.active {
		q.mu.Unlock()
		return
	}
	loc, err := store.DecodeLocation(snap)
	if err != nil {
		violation := &store.ProtocolViolationError{Key: snap.Key, Reason: err.Error()}
		logger.Error("Child without location in range query",
			logger.Key(snap.Key),
			logger.Range(sub.query.Start, sub.query.End),
			logger.Err(err))
		q.emitLocked(func(l Listener) { l.OnQueryError(violation) })
	} else {
		q.bumpVersionLocked(snap.Key)
		q.updateLocationLocked(snap, loc)
	}
	q.mu.Unlock()
	q.flush()
}

// onChildRemoved reads the key once more: a child leaves a range query both
// when it is deleted and when it moves to a geohash outside that range.
func (q *Query) onChildRemoved(sub *rangeSub, snap store.Snapshot) {
	q.mu.Lock()
	if !sub.active {
		q.mu.Unlock()
		return
	}
	if _, tracked := q.locations[snap.Key]; !tracked {
		q.mu.Unlock()
		return
	}
	version := q.bumpVersionLocked(snap.Key)
	timeout := q.readTimeout
	q.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	fresh, err := q.store.Ref(snap.Key).Get(ctx)
	cancel()

	q.mu.Lock()
	if q.versions[snap.Key] != version {
		// A newer event for this key has already been applied.
		q.mu.Unlock()
		return
	}
	info, ok := q.locations[snap.Key]
	if !ok {
		q.mu.Unlock()
		return
	}
	if err != nil {
		remote := &store.RemoteError{Op: "get", Key: snap.Key, Err: err}
		logger.Error("Failed to read removed child",
			logger.Key(snap.Key),
			logger.Err(err))
		q.emitLocked(func(l Listener) { l.OnQueryError(remote) })
		q.mu.Unlock()
		q.flush()
		return
	}

	stillCovered := false
	if loc, decodeErr := store.DecodeLocation(fresh); decodeErr == nil {
		if hash, hashErr := geo.NewGeoHash(loc); hashErr == nil {
			stillCovered = q.coveredLocked(hash.String())
		}
	}
	if !stillCovered {
		delete(q.locations, snap.Key)
		delete(q.versions, snap.Key)
		if info.inRegion {
			last := info.snapshot
			q.emitLocked(func(l Listener) { l.OnDataExited(last) })
		}
	}
	q.mu.Unlock()
	q.flush()
}

func (q *Query) onInitialLoad(sub *rangeSub) {
	q.mu.Lock()
	if !sub.active {
		q.mu.Unlock()
		return
	}
	if _, ok := q.outstanding[sub.query]; ok {
		delete(q.outstanding, sub.query)
		q.checkReadyLocked()
	}
	q.mu.Unlock()
	q.flush()
}

func (q *Query) onQueryError(sub *rangeSub, err error) {
	q.mu.Lock()
	if sub.active {
		q.queryErrorLocked(sub.query, err)
	}
	q.mu.Unlock()
	q.flush()
}

func (q *Query) queryErrorLocked(rq geo.RangeQuery, err error) {
	remote := &store.RemoteError{Op: "subscribe", Query: rq.String(), Err: err}
	logger.Error("Range query failed",
		logger.Range(rq.Start, rq.End),
		logger.Err(err))
	q.emitLocked(func(l Listener) { l.OnQueryError(remote) })
}

// updateLocationLocked applies the membership transition for a freshly
// observed location of snap.Key.
func (q *Query) updateLocationLocked(snap store.Snapshot, loc geo.Location) {
	key := snap.Key
	old, known := q.locations[key]
	isInRegion := q.inRegionLocked(loc)
	if !known {
		if prev, ok := q.carried[key]; ok {
			delete(q.carried, key)
			old, known = prev, true
			if isInRegion && prev.location == loc && reflect.DeepEqual(prev.snapshot.Value, snap.Value) {
				q.trackLocked(snap, loc, isInRegion)
				return
			}
		}
	}
	wasInRegion := known && old.inRegion

	switch {
	case !wasInRegion && isInRegion:
		q.emitLocked(func(l Listener) { l.OnDataEntered(snap, loc) })
	case wasInRegion && isInRegion:
		if old.location != loc {
			q.emitLocked(func(l Listener) {
				l.OnDataMoved(snap, loc)
				l.OnDataChanged(snap, loc)
			})
		} else {
			q.emitLocked(func(l Listener) { l.OnDataChanged(snap, loc) })
		}
	case wasInRegion && !isInRegion:
		q.emitLocked(func(l Listener) { l.OnDataExited(snap) })
	}

	q.trackLocked(snap, loc, isInRegion)
}

// trackLocked stores the latest location of snap.Key, or forgets the key
// when it is outside the region and no active range query covers it.
func (q *Query) trackLocked(snap store.Snapshot, loc geo.Location, isInRegion bool) {
	key := snap.Key
	hash, _ := geo.NewGeoHash(loc)
	if !isInRegion && !q.coveredLocked(hash.String()) {
		delete(q.locations, key)
		delete(q.versions, key)
		return
	}
	q.locations[key] = &locationInfo{
		location: loc,
		hash:     hash.String(),
		inRegion: isInRegion,
		snapshot: snap,
	}
}

func (q *Query) inRegionLocked(loc geo.Location) bool {
	return geo.Distance(loc, q.center) <= q.radius
}

func (q *Query) coveredLocked(hash string) bool {
	for rq := range q.queries {
		if rq.Contains(hash) {
			return true
		}
	}
	return false
}

func (q *Query) bumpVersionLocked(key string) uint64 {
	q.seq++
	q.versions[key] = q.seq
	return q.seq
}

func (q *Query) checkReadyLocked() {
	if len(q.outstanding) > 0 {
		return
	}
	for key, info := range q.carried {
		snap := info.snapshot
		q.emitLocked(func(l Listener) { l.OnDataExited(snap) })
		delete(q.carried, key)
	}
	q.emitLocked(func(l Listener) { l.OnQueryReady() })
}

// emitLocked queues fn for every registered listener.
func (q *Query) emitLocked(fn func(Listener)) {
	for _, l := range q.listeners {
		q.emitToLocked(l, fn)
	}
}

// emitToLocked queues fn for one listener. The notification is skipped if
// the listener has been removed by the time it is delivered.
func (q *Query) emitToLocked(l Listener, fn func(Listener)) {
	q.pending = append(q.pending, func() {
		q.raiser.Raise(func() {
			if q.isRegistered(l) {
				fn(l)
			}
		})
	})
}

// flush hands pending notifications to the raiser in order. Only one
// goroutine drains at a time, so a listener that calls back into the query
// from an immediate raiser just appends to the queue being drained.
func (q *Query) flush() {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	for len(q.pending) > 0 {
		fn := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
		fn()
		q.mu.Lock()
	}
	q.draining = false
	q.mu.Unlock()
}

func capRadius(km float64) float64 {
	capped := geo.CapRadius(km)
	if capped != km {
		logger.Warn("Query radius clamped",
			logger.Float64("requested_km", km),
			logger.Float64("radius_km", capped))
	}
	return capped
}
