// Package engine implements the shutdown coordinator at the center of a
// single message-routing engine instance: the timers, remotes and extension
// context it owns, and the async close protocol that waits for all of them
// to quiesce before declaring the engine terminated.
//
// Every mutable field on Engine is confined to its runloop goroutine;
// nothing in this package takes a lock around engine state. Cross-goroutine
// entry points exist only as the async-request half of CloseAsync, the send
// surface, and SetOnClosed: the first two post onto the runloop rather than
// touching state directly, and SetOnClosed only stores the completion
// callback, before any close has been requested.
package engine

import (
	"context"
	"sync/atomic"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/tenruntime/ten-go/extension"
	"github.com/tenruntime/ten-go/remote"
	"github.com/tenruntime/ten-go/runloop"
	"github.com/tenruntime/ten-go/timer"
)

// Event is the structured log record type this package's logger emits. A
// nil *Logger disables logging entirely.
type Event = stumpy.Event

// Logger is the structured logger type accepted by [WithLogger].
type Logger = logiface.Logger[*Event]

var idCounter atomic.Uint64

// Engine coordinates the lifecycle of everything that keeps a single
// message-routing runloop alive: timers, remote peer connections, and an
// optional extension context. Close is always asynchronous: CloseAsync
// posts a close task that marks the engine closing on the runloop and lets
// already-owned children wind down on their own schedule, calling back onto
// the runloop as each finishes.
type Engine struct {
	id uint64

	loop       *runloop.Loop
	hasOwnLoop bool

	reg *registries

	// isClosing is set exactly once, from closeTask on the runloop goroutine.
	// Reading it from any goroutine is fine (it's just an atomic load); only
	// the write is confined.
	isClosing atomic.Bool

	// closeRequested gates CloseAsync itself so only the first call posts a
	// closeTask; it is set synchronously from whichever goroutine calls
	// CloseAsync first, before isClosing has necessarily been set.
	closeRequested atomic.Bool

	ref *refCount

	onClosed     func(e *Engine, data any)
	onClosedData any
	onClosedSet  atomic.Bool

	logger      *Logger
	sendLimiter *catrate.Limiter

	closedOnce atomic.Bool
}

// New constructs an Engine. By default it creates and starts its own
// runloop on a fresh goroutine; pass [WithRunloop] to share a loop another
// engine already owns and runs, mirroring how a borrowed runloop never gets
// stopped by the close protocol.
func New(opts ...Option) *Engine {
	o := resolveOptions(opts)

	e := &Engine{
		id:  idCounter.Add(1),
		reg: newRegistries(),

		logger:      o.logger,
		sendLimiter: o.sendLimiter,
	}

	if o.loop != nil {
		e.loop = o.loop
		e.hasOwnLoop = false
	} else {
		e.loop = runloop.New(o.loopOpts...)
		e.hasOwnLoop = true
		go func() { _ = e.loop.Run(context.Background()) }()
	}

	e.ref = newRefCount(e.onRefZero)

	return e
}

// ID returns the engine's process-local identity, useful only for logging
// and tests.
func (e *Engine) ID() uint64 {
	return e.id
}

// Loop returns the runloop this engine is pinned to.
func (e *Engine) Loop() *runloop.Loop {
	return e.loop
}

// HasOwnLoop reports whether the engine owns (and will stop) its runloop,
// as opposed to sharing one supplied via [WithRunloop].
func (e *Engine) HasOwnLoop() bool {
	return e.hasOwnLoop
}

// IsClosing reports whether the engine has begun closing. Safe from any
// goroutine.
func (e *Engine) IsClosing() bool {
	return e.isClosing.Load()
}

func (e *Engine) logDebug(msg string, fields map[string]any) {
	if e.logger == nil {
		return
	}
	ev := e.logger.Debug()
	for k, v := range fields {
		ev = logAny(ev, k, v)
	}
	ev.Log(msg)
}

func (e *Engine) logInfo(msg string, fields map[string]any) {
	if e.logger == nil {
		return
	}
	ev := e.logger.Info()
	for k, v := range fields {
		ev = logAny(ev, k, v)
	}
	ev.Log(msg)
}

// logAny adapts an arbitrary field value onto a logiface builder. logiface's
// fluent builders are strongly typed per value kind; this keeps the
// call-sites in close.go/callbacks.go free of type switches.
func logAny(b *logiface.Builder[*Event], key string, v any) *logiface.Builder[*Event] {
	switch val := v.(type) {
	case string:
		return b.Str(key, val)
	case int:
		return b.Int(key, val)
	case int64:
		return b.Int64(key, val)
	case uint64:
		return b.Uint64(key, val)
	case bool:
		return b.Bool(key, val)
	case error:
		return b.Err(val)
	default:
		return b
	}
}

// AddTimer registers a timer the engine owns. Rejected once the engine has
// begun closing: no new resources are admitted once shutdown starts.
// Must be called on the runloop goroutine.
func (e *Engine) AddTimer(t *timer.Timer) {
	e.checkIntegrity(true)
	if e.isClosing.Load() {
		contractViolation("cannot add a timer to a closing engine")
	}
	e.reg.addTimer(t)
}

// PromoteRemote keys rm into the engine's remote table under key. Rejected
// once the engine has begun closing. Must be called on the runloop
// goroutine.
func (e *Engine) PromoteRemote(key string, rm *remote.Remote) {
	e.checkIntegrity(true)
	if e.isClosing.Load() {
		contractViolation("cannot promote a remote on a closing engine")
	}
	e.reg.promoteRemote(key, rm)
}

// AddWeakRemote registers rm as not-yet-promoted. Rejected once the engine
// has begun closing. Must be called on the runloop goroutine.
func (e *Engine) AddWeakRemote(rm *remote.Remote) {
	e.checkIntegrity(true)
	if e.isClosing.Load() {
		contractViolation("cannot add a weak remote to a closing engine")
	}
	e.reg.addWeakRemote(rm)
}

// RemoveWeakRemote drops rm from the weak list without closing it,
// typically because it was just promoted. Must be called on the runloop
// goroutine.
func (e *Engine) RemoveWeakRemote(rm *remote.Remote) bool {
	e.checkIntegrity(true)
	return e.reg.removeWeakRemote(rm)
}

// SetExtensionContext attaches the engine's extension context. Rejected
// once the engine has begun closing. Must be called on the runloop
// goroutine.
func (e *Engine) SetExtensionContext(ctx *extension.Context) {
	e.checkIntegrity(true)
	if e.isClosing.Load() {
		contractViolation("cannot attach an extension context to a closing engine")
	}
	e.reg.setExtensionContext(ctx)
}

// IncAsyncTask records one outstanding asynchronous operation the engine
// must wait for before it can close. Must be paired with exactly one
// DecAsyncTask. Must be called on the runloop goroutine.
func (e *Engine) IncAsyncTask() {
	e.checkIntegrity(true)
	e.reg.incAsyncTask()
}

// DecAsyncTask reports that one previously-counted asynchronous operation
// has finished. If this is the operation the close protocol was waiting on,
// it re-evaluates whether the engine can now terminate. Must be called on
// the runloop goroutine.
func (e *Engine) DecAsyncTask() {
	e.checkIntegrity(true)
	e.reg.decAsyncTask()
	if e.isClosing.Load() {
		e.onClose()
	}
}

// SetOnClosed registers the callback fired once the engine has fully
// terminated, along with an opaque value passed back unchanged. Returns
// ErrAlreadyClosed if a close has already been requested: registering a
// completion callback after that point can race the close protocol's own
// internal completion check, so it is rejected outright rather than
// accepted with a best-effort race.
func (e *Engine) SetOnClosed(onClosed func(e *Engine, data any), data any) error {
	if e.closeRequested.Load() {
		return ErrAlreadyClosed
	}
	e.onClosed = onClosed
	e.onClosedData = data
	e.onClosedSet.Store(true)
	return nil
}
