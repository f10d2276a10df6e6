package geoquery

import (
	"sync"

	"github.com/piresc/geoquery/internal/pkg/logger"
)

// Raiser runs listener notifications one at a time in submission order.
type Raiser interface {
	Raise(fn func())
}

// ImmediateRaiser runs each notification on the calling goroutine.
type ImmediateRaiser struct{}

func (ImmediateRaiser) Raise(fn func()) { safeRun(fn) }

// SerialRaiser runs notifications on its own goroutine.
type SerialRaiser struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewSerialRaiser starts the delivery goroutine. Call Close to stop it.
func NewSerialRaiser() *SerialRaiser {
	r := &SerialRaiser{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

// Raise queues fn. It never blocks and drops fn after Close.
func (r *SerialRaiser) Raise(fn func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, fn)
	select {
	case r.wake <- struct{}{}:
	default:
	}
	r.mu.Unlock()
}

// Close stops accepting notifications. Already queued ones still run; Done
// is closed after the last of them.
func (r *SerialRaiser) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.wake)
}

// Done is closed once the delivery goroutine has exited.
func (r *SerialRaiser) Done() <-chan struct{} {
	return r.done
}

func (r *SerialRaiser) loop() {
	defer close(r.done)
	for range r.wake {
		r.runQueued()
	}
	r.runQueued()
}

func (r *SerialRaiser) runQueued() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		fn := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		safeRun(fn)
	}
}

func safeRun(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Query listener panicked", logger.Any("panic", rec))
		}
	}()
	fn()
}
