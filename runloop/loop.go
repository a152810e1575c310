package runloop

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
)

// Loop is a single-threaded task executor. Tasks posted via [Loop.PostTail]
// run, in FIFO order, on the one goroutine that calls [Loop.Run].
type Loop struct {
	id uint64

	phase *phaseVar

	external *taskQueue

	wake     chan struct{}
	woken    atomic.Bool
	loopDone chan struct{}
	stopOnce sync.Once

	goroutineID atomic.Uint64

	onOverload func(pending int)
	overload   int

	// OnTaskPanic, if set, is invoked (on the loop goroutine) whenever a
	// posted task panics. The loop always recovers the panic regardless;
	// this hook exists purely for observability.
	OnTaskPanic func(recovered any)
}

var loopIDCounter atomic.Uint64

// New constructs a Loop in PhaseCreated. Call Run to start draining it.
func New(opts ...Option) *Loop {
	cfg := resolveOptions(opts)
	l := &Loop{
		id:       loopIDCounter.Add(1),
		phase:    newPhaseVar(),
		external: newTaskQueue(),
		wake:     make(chan struct{}, 1),
		loopDone: make(chan struct{}),

		onOverload: cfg.onOverload,
		overload:   cfg.overloadThreshold,
	}
	return l
}

// ID returns a diagnostic identifier for the loop, stable for its lifetime.
func (l *Loop) ID() uint64 { return l.id }

// Phase returns the loop's current lifecycle phase.
func (l *Loop) Phase() Phase { return l.phase.Load() }

// IsLoopThread reports whether the calling goroutine is the loop's own
// goroutine. It returns false before Run has started and after the loop
// goroutine has exited.
func (l *Loop) IsLoopThread() bool {
	id := l.goroutineID.Load()
	return id != 0 && id == goroutineID()
}

// AssertLoopThread panics with [ErrWrongGoroutine] if called from any
// goroutine other than the loop's own. Callers that only need a non-fatal
// answer should use IsLoopThread instead.
func (l *Loop) AssertLoopThread() {
	if !l.IsLoopThread() {
		panic(ErrWrongGoroutine)
	}
}

// PostTail appends task to the end of the loop's FIFO queue and wakes the
// loop if it is parked. It returns ErrStopped if the loop has already fully
// stopped and cannot guarantee the task will run; the caller must then undo
// any bookkeeping performed in anticipation of the post succeeding.
func (l *Loop) PostTail(task Task) error {
	if task == nil {
		return nil
	}
	if !l.phase.CanAcceptWork() {
		return ErrStopped
	}

	l.external.push(task)

	// Re-check after pushing: a racing Shutdown may have flipped to stopped
	// between our CanAcceptWork check and the push, in which case the
	// drain loop in shutdown() is responsible for seeing this task, so no
	// special handling is required here beyond making sure a wakeup fires.
	l.doWake()
	return nil
}

func (l *Loop) doWake() {
	if l.woken.CompareAndSwap(false, true) {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}

// Run drains the loop until ctx is cancelled or Shutdown/Close is called.
// It blocks the calling goroutine for the loop's entire lifetime; run it in
// its own goroutine (`go loop.Run(ctx)`) to use the loop from elsewhere.
func (l *Loop) Run(ctx context.Context) error {
	if l.IsLoopThread() {
		return ErrReentrantRun
	}
	if !l.phase.TryTransition(PhaseCreated, PhaseRunning) {
		if l.phase.Load() == PhaseStopped {
			return ErrStopped
		}
		return ErrAlreadyRunning
	}

	l.goroutineID.Store(goroutineID())
	defer l.goroutineID.Store(0)
	defer close(l.loopDone)

	ctxDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			l.requestStop()
		case <-ctxDone:
		}
	}()
	defer close(ctxDone)

	for {
		l.drainExternal()

		phase := l.phase.Load()
		if phase == PhaseStopping {
			if l.external.length() == 0 {
				l.phase.Store(PhaseStopped)
				return ctx.Err()
			}
			continue
		}

		if !l.phase.TryTransition(PhaseRunning, PhaseSleeping) {
			continue
		}
		if l.external.length() > 0 {
			l.phase.TryTransition(PhaseSleeping, PhaseRunning)
			continue
		}

		select {
		case <-l.wake:
			l.woken.Store(false)
		case <-ctx.Done():
		}
		l.phase.TryTransition(PhaseSleeping, PhaseRunning)
	}
}

func (l *Loop) drainExternal() {
	jobs := l.external.drain()
	if l.onOverload != nil && l.overload > 0 && len(jobs) > l.overload {
		l.onOverload(len(jobs))
	}
	for i, t := range jobs {
		l.safeExecute(t)
		jobs[i] = nil
	}
}

func (l *Loop) safeExecute(t Task) {
	if t == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if l.OnTaskPanic != nil {
				l.OnTaskPanic(r)
			} else {
				log.Printf("runloop: task panicked: %v", r)
			}
		}
	}()
	t()
}

func (l *Loop) requestStop() {
	for {
		current := l.phase.Load()
		switch current {
		case PhaseStopping, PhaseStopped:
			return
		case PhaseCreated:
			if l.phase.TryTransition(current, PhaseStopped) {
				return
			}
		default:
			if l.phase.TryTransition(current, PhaseStopping) {
				l.doWake()
				return
			}
		}
	}
}

// Shutdown requests a graceful stop and blocks until the loop has drained
// its queue and stopped, or ctx is done first.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.stopOnce.Do(func() {
		l.requestStop()
	})

	// A loop stopped before Run ever started never closes loopDone; Run
	// clears goroutineID only after closing loopDone, so Stopped with no
	// loop goroutine means there is nothing left to wait for.
	if l.phase.Load() == PhaseStopped && l.goroutineID.Load() == 0 {
		return nil
	}

	select {
	case <-l.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close requests the same graceful stop as Shutdown (queued tasks are still
// drained) without waiting for it to complete. It is the fire-and-forget
// counterpart to Shutdown, matching the terminal step's
// "stop the runloop" contract when the loop owns no further resources that
// need synchronous draining.
func (l *Loop) Close() error {
	l.stopOnce.Do(func() {
		l.requestStop()
	})
	return nil
}

// Done returns a channel that is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.loopDone
}

// goroutineID extracts the calling goroutine's numeric ID from its stack
// trace header. It is used only for thread-affinity diagnostics, never for
// scheduling decisions.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
