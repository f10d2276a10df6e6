// Package firestore implements store.Store on Cloud Firestore. Each index is
// a collection, each key a document holding the record fields.
package firestore

import (
	"context"
	"errors"
	"sync/atomic"

	"cloud.google.com/go/firestore"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/store"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store is a store.Store over one Firestore collection.
type Store struct {
	client     *firestore.Client
	collection string
}

// New creates a store whose documents live in collection.
func New(client *firestore.Client, collection string) *Store {
	return &Store{client: client, collection: collection}
}

func (s *Store) Ref(key string) store.Ref {
	return &ref{doc: s.client.Collection(s.collection).Doc(key)}
}

func (s *Store) RangeQuery(start, end string) store.Query {
	q := s.client.Collection(s.collection).
		Where(store.IndexField, ">=", start).
		Where(store.IndexField, "<=", end+constants.RangeEndSuffix).
		OrderBy(store.IndexField, firestore.Asc)
	return &query{query: q, start: start, end: end}
}

type ref struct {
	doc *firestore.DocumentRef
}

func (r *ref) Key() string { return r.doc.ID }

func (r *ref) Set(ctx context.Context, value map[string]interface{}, sortKey string) error {
	data := make(map[string]interface{}, len(value)+1)
	for k, v := range value {
		data[k] = v
	}
	data[store.IndexField] = sortKey
	_, err := r.doc.Set(ctx, data)
	return err
}

func (r *ref) Delete(ctx context.Context) error {
	_, err := r.doc.Delete(ctx)
	return err
}

func (r *ref) Get(ctx context.Context) (store.Snapshot, error) {
	doc, err := r.doc.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return store.Snapshot{Key: r.doc.ID}, nil
	}
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{Key: r.doc.ID, Value: doc.Data()}, nil
}

type query struct {
	query      firestore.Query
	start, end string
}

type subscription struct {
	it     *firestore.QuerySnapshotIterator
	cancel context.CancelFunc
	closed atomic.Bool
}

func (q *query) Subscribe(handlers store.ChildHandlers) (store.Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		it:     q.query.Snapshots(ctx),
		cancel: cancel,
	}
	go sub.listen(handlers, q.start, q.end)
	return sub, nil
}

// listen maps snapshot changes to child events. Changes of the first
// snapshot are the initial load.
func (sub *subscription) listen(handlers store.ChildHandlers, start, end string) {
	loaded := false
	for {
		qs, err := sub.it.Next()
		if err != nil {
			if sub.closed.Load() || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
				return
			}
			logger.Error("Firestore listener failed", logger.Range(start, end), logger.Err(err))
			if handlers.OnError != nil {
				handlers.OnError(err)
			}
			return
		}

		for _, change := range qs.Changes {
			if sub.closed.Load() {
				return
			}
			snap := store.Snapshot{Key: change.Doc.Ref.ID, Value: change.Doc.Data()}
			var fn func(store.Snapshot)
			switch change.Kind {
			case firestore.DocumentAdded:
				fn = handlers.OnChildAdded
			case firestore.DocumentModified:
				fn = handlers.OnChildChanged
			case firestore.DocumentRemoved:
				fn = handlers.OnChildRemoved
			}
			if fn != nil {
				fn(snap)
			}
		}

		if !loaded {
			loaded = true
			if !sub.closed.Load() && handlers.OnInitialLoad != nil {
				handlers.OnInitialLoad()
			}
		}
	}
}

func (sub *subscription) Unsubscribe() {
	if sub.closed.Swap(true) {
		return
	}
	sub.cancel()
	sub.it.Stop()
}
