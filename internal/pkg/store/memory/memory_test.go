package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/piresc/geoquery/internal/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) handlers() store.ChildHandlers {
	return store.ChildHandlers{
		OnChildAdded:   func(s store.Snapshot) { r.events = append(r.events, "added:"+s.Key) },
		OnChildChanged: func(s store.Snapshot) { r.events = append(r.events, "changed:"+s.Key) },
		OnChildRemoved: func(s store.Snapshot) { r.events = append(r.events, "removed:"+s.Key) },
		OnInitialLoad:  func() { r.events = append(r.events, "ready") },
		OnError:        func(err error) { r.events = append(r.events, "error:"+err.Error()) },
	}
}

func set(t *testing.T, s *Store, key, hash string) {
	t.Helper()
	require.NoError(t, s.Ref(key).Set(context.Background(), map[string]interface{}{"g": hash}, hash))
}

func TestSubscribeInitialLoad(t *testing.T) {
	s := New()
	set(t, s, "b", "9q9")
	set(t, s, "a", "9q8")
	set(t, s, "c", "9r0")

	rec := &recorder{}
	sub, err := s.RangeQuery("9q0", "9qz").Subscribe(rec.handlers())
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Equal(t, []string{"added:a", "added:b", "ready"}, rec.events)
}

func TestLiveChildEvents(t *testing.T) {
	s := New()
	rec := &recorder{}
	sub, err := s.RangeQuery("9q0", "9qz").Subscribe(rec.handlers())
	require.NoError(t, err)

	set(t, s, "a", "9q8yy")
	set(t, s, "a", "9q8yz")
	set(t, s, "a", "9r000")
	set(t, s, "a", "9q111")
	require.NoError(t, s.Ref("a").Delete(context.Background()))
	set(t, s, "outside", "c0000")

	assert.Equal(t, []string{"ready", "added:a", "changed:a", "removed:a", "added:a", "removed:a"}, rec.events)

	sub.Unsubscribe()
	set(t, s, "b", "9q8")
	assert.Len(t, rec.events, 6)
	assert.Zero(t, s.Subscriptions())
}

func TestGet(t *testing.T) {
	s := New()
	snap, err := s.Ref("missing").Get(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Exists())
	assert.Equal(t, "missing", snap.Key)

	set(t, s, "a", "9q8")
	snap, err = s.Ref("a").Get(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Exists())
	g, ok := snap.Field("g")
	assert.True(t, ok)
	assert.Equal(t, "9q8", g)
}

func TestHandlersMayReenterStore(t *testing.T) {
	s := New()
	var events []string
	_, err := s.RangeQuery("9q0", "9qz").Subscribe(store.ChildHandlers{
		OnChildAdded: func(snap store.Snapshot) {
			events = append(events, "added:"+snap.Key)
			if snap.Key == "a" {
				require.NoError(t, s.Ref("b").Set(context.Background(), map[string]interface{}{"g": "9q9"}, "9q9"))
				events = append(events, "after-write")
			}
		},
	})
	require.NoError(t, err)

	set(t, s, "a", "9q8")
	assert.Equal(t, []string{"added:a", "after-write", "added:b"}, events)
}

func TestFailRange(t *testing.T) {
	s := New()
	s.FailRange("9q0", "9qz", errors.New("permission denied"))

	rec := &recorder{}
	_, err := s.RangeQuery("9q0", "9qz").Subscribe(rec.handlers())
	require.NoError(t, err)
	assert.Equal(t, []string{"error:permission denied"}, rec.events)
}

func TestContextCancelled(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Ref("a").Set(ctx, map[string]interface{}{"g": "0"}, "0"), context.Canceled)
	_, err := s.Ref("a").Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
