package engine

// checkIntegrity validates that self is non-nil and, when requireLoopThread
// is true, that the caller is executing on the engine's own runloop
// goroutine. A violation is a caller bug: it is not recoverable, so it is
// reported as a contract violation rather than an error value.
//
// Call this at the top of every method that touches registries, isClosing,
// or the async-task count. CloseAsync, the goroutine-agnostic close entry
// point, calls it with requireLoopThread=false purely to catch a nil engine.
func (e *Engine) checkIntegrity(requireLoopThread bool) {
	if e == nil {
		contractViolation("nil engine")
	}
	if requireLoopThread && !e.loop.IsLoopThread() {
		contractViolation("operation requires the engine's runloop thread")
	}
}
