package runloop

import (
	"sync/atomic"
)

// Phase represents the current phase of a [Loop].
//
// State machine:
//
//	PhaseCreated (0) → PhaseRunning (3)       [Run()]
//	PhaseCreated (0) → PhaseStopped (1)       [Shutdown()/Close() before Run()]
//	PhaseRunning (3) → PhaseSleeping (2)      [idle wait, CAS]
//	PhaseRunning (3) → PhaseStopping (4)      [Shutdown()/Close()]
//	PhaseSleeping (2) → PhaseRunning (3)      [wake, CAS]
//	PhaseSleeping (2) → PhaseStopping (4)     [Shutdown()/Close()]
//	PhaseStopping (4) → PhaseStopped (1)      [drain complete]
//	PhaseStopped (1) → (terminal)
//
// Every transition uses TryTransition (CAS) except the final
// PhaseStopping → PhaseStopped, which only the loop goroutine makes and which
// uses Store directly. PhaseStopping and PhaseStopped are monotonic.
type Phase uint64

const (
	// PhaseCreated indicates the loop has been constructed but Run has not been called.
	PhaseCreated Phase = 0
	// PhaseStopped indicates the loop has fully drained and will accept no further tasks.
	PhaseStopped Phase = 1
	// PhaseSleeping indicates the loop goroutine is parked waiting for a wakeup.
	PhaseSleeping Phase = 2
	// PhaseRunning indicates the loop goroutine is actively draining its queues.
	PhaseRunning Phase = 3
	// PhaseStopping indicates a stop has been requested but draining is not complete.
	PhaseStopping Phase = 4
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseRunning:
		return "running"
	case PhaseSleeping:
		return "sleeping"
	case PhaseStopping:
		return "stopping"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// phaseVar is a lock-free phase holder built on a single atomic word.
type phaseVar struct {
	v atomic.Uint64
}

func newPhaseVar() *phaseVar {
	pv := &phaseVar{}
	pv.v.Store(uint64(PhaseCreated))
	return pv
}

func (p *phaseVar) Load() Phase { return Phase(p.v.Load()) }

func (p *phaseVar) Store(phase Phase) { p.v.Store(uint64(phase)) }

// TryTransition attempts to atomically move from "from" to "to". It reports
// whether the transition took effect.
func (p *phaseVar) TryTransition(from, to Phase) bool {
	return p.v.CompareAndSwap(uint64(from), uint64(to))
}

// CanAcceptWork reports whether tasks posted now are guaranteed a chance to run.
func (p *phaseVar) CanAcceptWork() bool {
	switch p.Load() {
	case PhaseCreated, PhaseRunning, PhaseSleeping, PhaseStopping:
		return true
	default:
		return false
	}
}
