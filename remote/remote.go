// Package remote models an engine's connection to a peer engine or app.
// A Remote may be promoted (keyed into the engine's remote table) or weak
// (pending promotion); the engine's close protocol treats both the same
// way, waiting for each to reach [StateClosed] before it can terminate.
//
// The underlying transport is a [grpc.ClientConn]; how protocols are
// negotiated and messages are framed over it is out of scope here, only
// the close contract is.
package remote

import (
	"sync/atomic"

	"google.golang.org/grpc"

	"github.com/tenruntime/ten-go/runloop"
)

// State is the remote's connection lifecycle, mirroring the states a real
// protocol adaptor would report.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateClosing
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Remote is a single connection to a peer. Key identifies it once promoted
// into an engine's keyed remote table; weak (not-yet-promoted) remotes
// carry a zero Key.
type Remote struct {
	Key  string
	conn *grpc.ClientConn
	loop *runloop.Loop

	state atomic.Int32
}

// New wraps an established (or establishing) connection, delivering its
// closed-callback on loop's goroutine. conn may be nil for a remote backed
// by something other than a real gRPC transport (e.g. during tests); Close
// degrades to a no-op dial teardown in that case.
func New(loop *runloop.Loop, key string, conn *grpc.ClientConn) *Remote {
	r := &Remote{Key: key, conn: conn, loop: loop}
	r.state.Store(int32(StateConnecting))
	return r
}

// MarkConnected transitions the remote to StateConnected. It is a no-op if
// the remote is already closing or closed.
func (r *Remote) MarkConnected() {
	r.state.CompareAndSwap(int32(StateConnecting), int32(StateConnected))
}

// State returns the remote's current state.
func (r *Remote) State() State {
	return State(r.state.Load())
}

// Close asynchronously tears down the underlying connection and posts
// onClosed to loop once the transport has finished closing, so the owning
// engine observes it on its runloop thread. Safe to call more than once;
// only the first call's onClosed is used, and it fires at most once (not at
// all if the loop has already stopped).
func (r *Remote) Close(onClosed func(*Remote)) {
	for {
		current := r.state.Load()
		if State(current) == StateClosing || State(current) == StateClosed {
			return
		}
		if r.state.CompareAndSwap(current, int32(StateClosing)) {
			break
		}
	}

	go func() {
		if r.conn != nil {
			_ = r.conn.Close()
		}
		r.state.Store(int32(StateClosed))
		if err := r.loop.PostTail(func() { onClosed(r) }); err != nil {
			return
		}
	}()
}
