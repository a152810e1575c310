package runloop

import "errors"

// Standard errors returned by Loop methods.
var (
	// ErrAlreadyRunning is returned when Run is called on a loop that is already running.
	ErrAlreadyRunning = errors.New("runloop: already running")

	// ErrStopped is returned when a task is posted to, or an operation is attempted
	// against, a loop that has already fully stopped.
	ErrStopped = errors.New("runloop: loop has stopped")

	// ErrReentrantRun is returned when Run is called from within the loop's own goroutine.
	ErrReentrantRun = errors.New("runloop: cannot call Run from within the loop")

	// ErrWrongGoroutine is the value AssertLoopThread panics with when the
	// calling goroutine is not the loop's own goroutine.
	ErrWrongGoroutine = errors.New("runloop: operation requires the loop goroutine")
)
