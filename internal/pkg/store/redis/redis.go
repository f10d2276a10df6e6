// Package redis implements store.Store on Redis with a NATS change feed.
//
// Records live under geo:<index>:loc:<key> as JSON. The sorted set
// geo:<index>:idx holds one member <geohash>:<key> per record, all with score
// 0, so ZRANGEBYLEX answers geohash range queries. Every write is announced
// on geo.<index>.changes and subscriptions derive child events from it.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/database"
	natspkg "github.com/piresc/geoquery/internal/pkg/nats"
	"github.com/piresc/geoquery/internal/pkg/store"
)

// DefaultLoadTimeout bounds the initial load of a subscription.
const DefaultLoadTimeout = 10 * time.Second

// changeEvent is the payload published on the index change feed.
type changeEvent struct {
	Key     string          `json:"key"`
	Op      string          `json:"op"`
	SortKey string          `json:"sort_key,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// Store is a store.Store backed by Redis and NATS.
type Store struct {
	redis       *database.RedisClient
	nats        *natspkg.Client
	index       string
	loadTimeout time.Duration
}

// New creates a store for index.
func New(redisClient *database.RedisClient, natsClient *natspkg.Client, index string) *Store {
	return &Store{
		redis:       redisClient,
		nats:        natsClient,
		index:       index,
		loadTimeout: DefaultLoadTimeout,
	}
}

func (s *Store) Ref(key string) store.Ref {
	return &ref{store: s, key: key}
}

func (s *Store) RangeQuery(start, end string) store.Query {
	return &query{store: s, start: start, end: end}
}

func (s *Store) recordKey(key string) string {
	return fmt.Sprintf(constants.KeyLocationRecord, s.index, key)
}

func (s *Store) indexKey() string {
	return fmt.Sprintf(constants.KeyLocationIndex, s.index)
}

func (s *Store) subject() string {
	return fmt.Sprintf(constants.SubjectIndexChanges, s.index)
}

func indexMember(sortKey, key string) string {
	return sortKey + constants.IndexMemberSeparator + key
}

// splitMember separates an index member into sort key and key. Geohashes
// never contain the separator, keys may.
func splitMember(member string) (sortKey, key string, ok bool) {
	i := strings.Index(member, constants.IndexMemberSeparator)
	if i < 0 {
		return "", "", false
	}
	return member[:i], member[i+1:], true
}

// read returns the raw record of key, nil when absent.
func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.recordKey(key))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// currentMember returns the index member of the stored record of key, or
// "" when there is none.
func (s *Store) currentMember(ctx context.Context, key string) (string, error) {
	data, err := s.read(ctx, key)
	if err != nil || data == nil {
		return "", err
	}
	value, err := store.UnmarshalValue(data)
	if err != nil {
		return "", nil
	}
	sortKey, _ := value[store.IndexField].(string)
	if sortKey == "" {
		return "", nil
	}
	return indexMember(sortKey, key), nil
}

func (s *Store) publish(ev changeEvent) error {
	return s.nats.PublishJSON(s.subject(), ev)
}

type ref struct {
	store *Store
	key   string
}

func (r *ref) Key() string { return r.key }

func (r *ref) Set(ctx context.Context, value map[string]interface{}, sortKey string) error {
	data, err := store.MarshalValue(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	oldMember, err := r.store.currentMember(ctx, r.key)
	if err != nil {
		return err
	}
	newMember := indexMember(sortKey, r.key)
	if err := r.store.redis.ReplaceIndexedValue(ctx, r.store.indexKey(), oldMember, newMember, r.store.recordKey(r.key), data); err != nil {
		return err
	}
	return r.store.publish(changeEvent{
		Key:     r.key,
		Op:      constants.ChangeOpSet,
		SortKey: sortKey,
		Value:   data,
	})
}

func (r *ref) Delete(ctx context.Context) error {
	oldMember, err := r.store.currentMember(ctx, r.key)
	if err != nil {
		return err
	}
	if err := r.store.redis.ReplaceIndexedValue(ctx, r.store.indexKey(), oldMember, "", r.store.recordKey(r.key), nil); err != nil {
		return err
	}
	return r.store.publish(changeEvent{Key: r.key, Op: constants.ChangeOpDelete})
}

func (r *ref) Get(ctx context.Context) (store.Snapshot, error) {
	data, err := r.store.read(ctx, r.key)
	if err != nil {
		return store.Snapshot{}, err
	}
	if data == nil {
		return store.Snapshot{Key: r.key}, nil
	}
	value, err := store.UnmarshalValue(data)
	if err != nil {
		return store.Snapshot{}, &store.DecodeError{Key: r.key, Value: string(data), Err: err}
	}
	return store.Snapshot{Key: r.key, Value: value}, nil
}
