package engine

// CloseAsync requests that the engine begin closing. Safe to call from any
// goroutine and more than once; only the first call has any effect. The
// actual teardown work -- stopping timers, closing the extension context,
// closing remotes -- happens later on the runloop, and onClosed (registered
// via SetOnClosed) fires once everything has finished, also on the runloop.
//
// CloseAsync only posts a task; it never blocks and never touches engine
// state directly; that happens in closeTask once the posted closure reaches
// the runloop.
func (e *Engine) CloseAsync() {
	e.checkIntegrity(false)
	if !e.closeRequested.CompareAndSwap(false, true) {
		return
	}

	e.ref.inc()
	if err := e.loop.PostTail(e.closeTask); err != nil {
		// The loop is already gone, most likely a borrowed loop its owner
		// stopped independently of this engine. There is no runloop left to
		// run the close pass on, so the request is simply dropped rather
		// than force-completing: declaring the engine closed here would
		// abandon whatever timers/remotes/extension context it still owns
		// while reporting success.
		e.ref.dec()
		return
	}
}

// closeTask runs on the runloop. It marks the engine closing, then performs
// one pass of the close algorithm: ask every owned resource to start
// closing (if it hasn't already been asked), then check whether the engine
// is already quiescent.
func (e *Engine) closeTask() {
	defer e.ref.dec()
	e.checkIntegrity(true)
	e.isClosing.Store(true)

	e.logInfo("start to close engine", map[string]any{"id": e.id})

	e.closeAllTimers()
	e.closeExtensionContext()
	e.closeAllRemotes()

	e.onClose()
}

// onClose is the re-entrant "can we finish now" check: it's invoked once
// after closeTask's first pass, and again every time a child reports it has
// finished closing or an async task completes. It must only ever run on the
// runloop.
func (e *Engine) onClose() {
	e.checkIntegrity(true)

	if !e.reg.couldBeClose() {
		e.logDebug("could not close engine with alive resources", map[string]any{
			"id":         e.id,
			"timers":     len(e.reg.timers),
			"remotes":    e.reg.unclosedRemoteCount(),
			"extContext": e.reg.extensionContext != nil,
			"asyncTasks": e.reg.asyncTasks,
		})
		return
	}

	if !e.closedOnce.CompareAndSwap(false, true) {
		return
	}

	e.logInfo("engine can be closed now", map[string]any{"id": e.id})
	e.finishClose()
}

// finishClose is the terminal step: stop the runloop if the engine owns it,
// then invoke the registered completion callback. If the engine borrowed
// its loop (WithRunloop), the loop is left running for its owner and
// onClosed is invoked immediately instead.
func (e *Engine) finishClose() {
	if e.onClosedSet.Load() && e.onClosed != nil {
		cb, data := e.onClosed, e.onClosedData
		defer cb(e, data)
	}

	if e.hasOwnLoop {
		_ = e.loop.Close()
	}
}

// onRefZero is wired as refCount's completion hook and does nothing. The
// count starts at 1 for the engine itself and that reference is never
// released, so the close protocol never depends on the count reaching zero.
func (e *Engine) onRefZero() {}
