package engine

import "sync/atomic"

// refCount extends an engine's lifetime across a posted close task. Its
// sole purpose is to keep the Engine struct reachable while a closeTask is
// sitting in the runloop's queue; it plays no part in protecting engine
// state, which is protected purely by runloop confinement.
type refCount struct {
	n        atomic.Int64
	onZero   func()
	zeroOnce atomic.Bool
}

func newRefCount(onZero func()) *refCount {
	r := &refCount{onZero: onZero}
	r.n.Store(1)
	return r
}

// inc extends the lifetime by one. Every inc must be matched by exactly one
// dec.
func (r *refCount) inc() {
	r.n.Add(1)
}

// dec releases one reference. When the count reaches zero, onZero is
// invoked exactly once.
func (r *refCount) dec() {
	if r.n.Add(-1) == 0 {
		if r.zeroOnce.CompareAndSwap(false, true) {
			if r.onZero != nil {
				r.onZero()
			}
		}
	}
}

// load returns the current count, for diagnostics and tests only.
func (r *refCount) load() int64 {
	return r.n.Load()
}
