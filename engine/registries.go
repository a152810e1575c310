package engine

import (
	"github.com/tenruntime/ten-go/extension"
	"github.com/tenruntime/ten-go/remote"
	"github.com/tenruntime/ten-go/timer"
)

// registries holds every resource an engine owns. Every field here is
// mutated exclusively on the engine's runloop goroutine; none
// of them carries its own lock. Methods in this file assume that discipline
// and do not re-check it themselves -- callers (engine.go, close.go,
// callbacks.go) are responsible for only reaching them from the loop.
type registries struct {
	// timers is insertion-ordered, as iteration order over it is specified.
	timers []*timer.Timer

	// remotes is keyed; iteration order is unspecified but stable within a
	// single range.
	remotes map[string]*remote.Remote

	// weakRemotes is insertion-ordered, as iteration order over it is
	// specified.
	weakRemotes []*remote.Remote

	extensionContext *extension.Context

	// asyncTasks counts in-flight background operations the engine has been
	// told about via IncAsyncTask/DecAsyncTask. Modeled as a counter, not a
	// flag, so that two overlapping async operations don't let the first
	// one's completion make the engine look quiescent while the second is
	// still outstanding (see DESIGN.md for the source ambiguity this
	// resolves).
	asyncTasks int
}

func newRegistries() *registries {
	return &registries{
		remotes: make(map[string]*remote.Remote),
	}
}

func (r *registries) addTimer(t *timer.Timer) {
	r.timers = append(r.timers, t)
}

func (r *registries) removeTimer(t *timer.Timer) {
	for i, existing := range r.timers {
		if existing == t {
			r.timers = append(r.timers[:i], r.timers[i+1:]...)
			return
		}
	}
}

func (r *registries) promoteRemote(key string, rm *remote.Remote) {
	rm.Key = key
	r.remotes[key] = rm
}

func (r *registries) addWeakRemote(rm *remote.Remote) {
	r.weakRemotes = append(r.weakRemotes, rm)
}

// removeWeakRemote removes rm from the weak list, if present, reporting
// whether it was found there.
func (r *registries) removeWeakRemote(rm *remote.Remote) bool {
	for i, existing := range r.weakRemotes {
		if existing == rm {
			r.weakRemotes = append(r.weakRemotes[:i], r.weakRemotes[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registries) removePromotedRemote(key string) {
	delete(r.remotes, key)
}

func (r *registries) setExtensionContext(ctx *extension.Context) {
	r.extensionContext = ctx
}

func (r *registries) clearExtensionContext() {
	r.extensionContext = nil
}

func (r *registries) incAsyncTask() {
	r.asyncTasks++
}

func (r *registries) decAsyncTask() {
	if r.asyncTasks > 0 {
		r.asyncTasks--
	}
}

// unclosedRemoteCount counts promoted and weak remotes not yet in
// [remote.StateClosed]; both kinds count toward quiescence identically.
func (r *registries) unclosedRemoteCount() int {
	n := 0
	for _, rm := range r.remotes {
		if rm.State() != remote.StateClosed {
			n++
		}
	}
	for _, rm := range r.weakRemotes {
		if rm.State() != remote.StateClosed {
			n++
		}
	}
	return n
}

// couldBeClose is the pure quiescence predicate: no timers, no non-closed
// remote (promoted or weak), no extension context, no outstanding async
// task.
func (r *registries) couldBeClose() bool {
	return len(r.timers) == 0 &&
		r.unclosedRemoteCount() == 0 &&
		r.extensionContext == nil &&
		r.asyncTasks == 0
}
