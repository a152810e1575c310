// Package timer provides the engine's timer resource: a periodic
// callback whose teardown is asynchronous, matching the close
// protocol every child resource of an engine must honor (stop, then close,
// then notify on the owner's runloop).
//
// The engine only depends on this package's StopAsync/CloseAsync contract;
// how a timer actually measures time is this package's own concern.
package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tenruntime/ten-go/runloop"
)

// Timer fires onFire repeatedly, once per interval, on loop's goroutine,
// until stopped. There is no one-shot mode.
type Timer struct {
	ID   uint64
	loop *runloop.Loop

	mu       sync.Mutex
	clock    *time.Timer
	interval time.Duration
	onFire   func()

	stopped atomic.Bool
	closed  atomic.Bool
}

var idCounter atomic.Uint64

// NewInterval creates a timer that posts onFire to loop every interval,
// starting immediately.
func NewInterval(loop *runloop.Loop, interval time.Duration, onFire func()) *Timer {
	t := &Timer{
		ID:       idCounter.Add(1),
		loop:     loop,
		interval: interval,
		onFire:   onFire,
	}
	t.arm()
	return t
}

func (t *Timer) arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped.Load() || t.closed.Load() {
		return
	}
	t.clock = time.AfterFunc(t.interval, t.fire)
}

func (t *Timer) fire() {
	if t.stopped.Load() || t.closed.Load() {
		return
	}
	_ = t.loop.PostTail(func() {
		if t.stopped.Load() || t.closed.Load() {
			return
		}
		if t.onFire != nil {
			t.onFire()
		}
		t.arm()
	})
}

// StopAsync halts future firings. It does not release the timer's resources;
// call CloseAsync to do that. Safe to call more than once.
func (t *Timer) StopAsync() {
	if !t.stopped.CompareAndSwap(false, true) {
		return
	}
	t.mu.Lock()
	clock := t.clock
	t.mu.Unlock()
	if clock != nil {
		clock.Stop()
	}
}

// CloseAsync tears down the timer and, once finished, posts the closed
// callback to the timer's loop so the owning engine observes it on the
// runloop thread as required by the close protocol. Safe to call more than
// once; only the first call's onClosed is used, and it fires at most once
// (not at all if the loop has already stopped).
func (t *Timer) CloseAsync(onClosed func(*Timer)) {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}
	t.StopAsync()
	go func() {
		if err := t.loop.PostTail(func() { onClosed(t) }); err != nil {
			// Loop has already stopped; the engine is terminating by some
			// other path and no longer needs this notification.
			return
		}
	}()
}
