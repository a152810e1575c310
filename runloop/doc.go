// Package runloop provides a minimal single-threaded task executor: a FIFO
// queue drained by one goroutine, with thread-safe posting from any other
// goroutine.
//
// A [Loop] is the cooperative single-threaded executor that an engine (see
// the engine package) pins its mutable state to. Exactly one goroutine ever
// calls task functions; every other goroutine may only reach the loop through
// [Loop.PostTail], which is safe to call concurrently from any number of
// callers and guarantees FIFO ordering among tasks it accepts.
//
// # Execution model
//
// [Loop.Run] blocks the calling goroutine until the loop stops; callers that
// want a background loop should do `go loop.Run(ctx)`. While running, the
// loop alternates between draining its task queue and parking until the next
// wakeup signal. [Loop.PostTail] appends a task and, if the loop is parked,
// wakes it; waking is deduplicated so bursts of concurrent posts cost at most
// one wakeup signal.
//
// # Shutdown
//
// [Loop.Shutdown] requests a graceful stop: the loop keeps draining queued
// tasks (so that in-flight posts are not lost) until the queue is observed
// empty, then transitions to stopped. [Loop.Close] is the same request
// without waiting for completion. Once stopped, [Loop.PostTail] returns
// [ErrStopped] and the caller is responsible for undoing any bookkeeping
// (e.g. releasing a reference) it performed before posting.
package runloop
