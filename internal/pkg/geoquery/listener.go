package geoquery

import (
	"fmt"
	"reflect"

	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/store"
)

// Listener receives the membership events of a Query. Listeners are
// compared by identity, so they must be of a comparable type (usually a
// pointer).
type Listener interface {
	OnDataEntered(snap store.Snapshot, loc geo.Location)
	OnDataExited(snap store.Snapshot)
	OnDataMoved(snap store.Snapshot, loc geo.Location)
	OnDataChanged(snap store.Snapshot, loc geo.Location)
	OnQueryReady()
	OnQueryError(err error)
}

// KeyListener is the key-only variant of Listener. It has no changed event.
type KeyListener interface {
	OnKeyEntered(key string, loc geo.Location)
	OnKeyExited(key string)
	OnKeyMoved(key string, loc geo.Location)
	OnQueryReady()
	OnQueryError(err error)
}

// NewKeyListenerBridge adapts a KeyListener to a Listener. Two bridges of
// the same KeyListener are equal.
func NewKeyListenerBridge(l KeyListener) Listener {
	return keyListenerBridge{listener: l}
}

type keyListenerBridge struct {
	listener KeyListener
}

func (b keyListenerBridge) OnDataEntered(snap store.Snapshot, loc geo.Location) {
	b.listener.OnKeyEntered(snap.Key, loc)
}

func (b keyListenerBridge) OnDataExited(snap store.Snapshot) {
	b.listener.OnKeyExited(snap.Key)
}

func (b keyListenerBridge) OnDataMoved(snap store.Snapshot, loc geo.Location) {
	b.listener.OnKeyMoved(snap.Key, loc)
}

func (b keyListenerBridge) OnDataChanged(store.Snapshot, geo.Location) {}

func (b keyListenerBridge) OnQueryReady() { b.listener.OnQueryReady() }

func (b keyListenerBridge) OnQueryError(err error) { b.listener.OnQueryError(err) }

// checkListener rejects listeners that cannot be compared for identity.
func checkListener(l Listener) error {
	if l == nil {
		return ErrNilListener
	}
	var target interface{} = l
	if b, ok := l.(keyListenerBridge); ok {
		if b.listener == nil {
			return ErrNilListener
		}
		target = b.listener
	}
	if !reflect.TypeOf(target).Comparable() {
		return fmt.Errorf("%w: listener of type %T is not comparable", geo.ErrInvalidArgument, target)
	}
	return nil
}
