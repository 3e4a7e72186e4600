// Package eventloop runs closures one at a time on a single goroutine.
// State owned by a Loop is only touched from inside its closures.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned when work is submitted to a loop that has stopped.
var ErrStopped = errors.New("event loop stopped")

const defaultQueueSize = 64

// Loop is a single-consumer work queue.
type Loop struct {
	ops      chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// New creates a loop. Call Run to start processing.
func New() *Loop {
	return &Loop{
		ops:  make(chan func(), defaultQueueSize),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Run processes submitted closures until Stop is called or ctx is done.
// Closures still queued at that point are dropped. Only the first call runs.
func (l *Loop) Run(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	defer close(l.done)
	defer l.closeQuit()

	for {
		select {
		case <-l.quit:
			return
		case <-ctx.Done():
			return
		case fn := <-l.ops:
			fn()
		}
	}
}

// Do runs fn on the loop and waits for it to finish.
// It must not be called from inside a closure running on the same loop.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	if !l.Post(wrapped) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Post queues fn without waiting for it and reports false if the loop has
// stopped. Post blocks while the queue is full, so closures running on the
// loop must not call it.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}

	select {
	case l.ops <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Stop makes Run return without waiting for it. Safe to call repeatedly.
func (l *Loop) Stop() {
	l.closeQuit()
	if l.started.CompareAndSwap(false, true) {
		close(l.done)
	}
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) closeQuit() {
	l.stopOnce.Do(func() { close(l.quit) })
}
