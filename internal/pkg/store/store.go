// Package store defines the contract between the geo query engine and the
// backing key-value tree, plus the stored record codec.
package store

import (
	"context"

	"github.com/piresc/geoquery/internal/pkg/geo"
)

// IndexField is the name of the ordered field range queries run against.
const IndexField = "g"

// Snapshot is an immutable view of the value stored under Key. A nil Value
// means nothing is stored.
type Snapshot struct {
	Key   string
	Value map[string]interface{}
}

// Exists reports whether a value is stored.
func (s Snapshot) Exists() bool { return s.Value != nil }

// Field returns the named field and whether it is present.
func (s Snapshot) Field(name string) (interface{}, bool) {
	if s.Value == nil {
		return nil, false
	}
	v, ok := s.Value[name]
	return v, ok
}

// Store gives access to references and range queries of one index.
type Store interface {
	Ref(key string) Ref
	RangeQuery(start, end string) Query
}

// Ref addresses the value of a single key.
type Ref interface {
	Key() string
	// Set writes value. sortKey is the value of the indexed field.
	Set(ctx context.Context, value map[string]interface{}, sortKey string) error
	Delete(ctx context.Context) error
	Get(ctx context.Context) (Snapshot, error)
}

// Query is a range query over the indexed field, bounds inclusive. An end
// bound also matches every longer value it prefixes.
type Query interface {
	Subscribe(handlers ChildHandlers) (Subscription, error)
}

// ChildHandlers receives the events of one subscription. Calls for a single
// subscription never overlap. OnInitialLoad fires once, after every child
// that matched at subscribe time was delivered through OnChildAdded.
type ChildHandlers struct {
	OnChildAdded   func(Snapshot)
	OnChildChanged func(Snapshot)
	OnChildRemoved func(Snapshot)
	OnInitialLoad  func()
	OnError        func(error)
}

// Subscription is the handle returned by Query.Subscribe.
type Subscription interface {
	Unsubscribe()
}

// Range returns the store query for a geohash range.
func Range(s Store, q geo.RangeQuery) Query {
	return s.RangeQuery(q.Start, q.End)
}

// InRange reports whether an indexed value matches [start, end] with the
// prefix semantics of Query.
func InRange(value, start, end string) bool {
	if value < start {
		return false
	}
	if len(value) > len(end) {
		value = value[:len(end)]
	}
	return value <= end
}
