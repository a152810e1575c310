package engine

import (
	"github.com/tenruntime/ten-go/extension"
	"github.com/tenruntime/ten-go/remote"
	"github.com/tenruntime/ten-go/timer"
)

// closeAllTimers asks every owned timer to stop and close. Each timer's
// closed-callback removes it from the registry and re-checks quiescence;
// the registry is mutated only from those callbacks, which always run on
// the runloop as separate tasks posted by the timer.
func (e *Engine) closeAllTimers() {
	// Copy first: onTimerClosed mutates e.reg.timers. CloseAsync never
	// invokes it synchronously, so the copy is only defensive.
	timers := append([]*timer.Timer(nil), e.reg.timers...)
	for _, t := range timers {
		t.CloseAsync(e.onTimerClosed)
	}
}

func (e *Engine) onTimerClosed(t *timer.Timer) {
	e.checkIntegrity(true)
	e.reg.removeTimer(t)
	e.logDebug("timer closed", map[string]any{"id": e.id, "timer": t.ID})
	if e.isClosing.Load() {
		e.onClose()
	}
}

// closeExtensionContext asks the extension context (if any) to close.
func (e *Engine) closeExtensionContext() {
	ctx := e.reg.extensionContext
	if ctx == nil {
		return
	}
	ctx.Close(e.onExtensionContextClosed)
}

func (e *Engine) onExtensionContextClosed(ctx *extension.Context) {
	e.checkIntegrity(true)
	if e.reg.extensionContext == ctx {
		e.reg.clearExtensionContext()
	}
	e.logDebug("extension context closed", map[string]any{"id": e.id})
	if e.isClosing.Load() {
		e.onClose()
	}
}

// closeAllRemotes asks every promoted and weak remote to close. Promoted
// remotes are closed before weak ones; since both feed the same quiescence
// predicate, the ordering only affects the sequence of log lines, not the
// outcome.
func (e *Engine) closeAllRemotes() {
	promoted := make([]*remote.Remote, 0, len(e.reg.remotes))
	for _, rm := range e.reg.remotes {
		promoted = append(promoted, rm)
	}
	for _, rm := range promoted {
		rm.Close(e.onRemoteClosed)
	}

	weak := append([]*remote.Remote(nil), e.reg.weakRemotes...)
	for _, rm := range weak {
		rm.Close(e.onRemoteClosed)
	}
}

func (e *Engine) onRemoteClosed(rm *remote.Remote) {
	e.checkIntegrity(true)
	if rm.Key != "" {
		e.reg.removePromotedRemote(rm.Key)
	}
	e.reg.removeWeakRemote(rm)
	e.logDebug("remote closed", map[string]any{"id": e.id, "remote": rm.Key})
	e.onClose()
}
