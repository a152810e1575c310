package remote

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tenruntime/ten-go/runloop"
)

func runInBackground(t *testing.T, l *runloop.Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not stop in time")
		}
	})
}

func TestRemote_MarkConnectedTransitionsFromConnecting(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	r := New(l, "peer-1", nil)
	require.Equal(t, StateConnecting, r.State())
	r.MarkConnected()
	require.Equal(t, StateConnected, r.State())
}

func TestRemote_CloseReportsClosedOnLoopThread(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	r := New(l, "peer-1", nil)
	r.MarkConnected()

	done := make(chan struct{})
	var sawLoopThread atomic.Bool
	r.Close(func(*Remote) {
		sawLoopThread.Store(l.IsLoopThread())
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("remote never closed")
	}
	require.Equal(t, StateClosed, r.State())
	require.True(t, sawLoopThread.Load())
}

func TestRemote_CloseIsIdempotent(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	r := New(l, "peer-1", nil)

	var calls atomic.Int32
	done := make(chan struct{})
	onClosed := func(*Remote) {
		calls.Add(1)
		close(done)
	}
	r.Close(onClosed)
	r.Close(onClosed)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("remote never closed")
	}
	require.EqualValues(t, 1, calls.Load())
}
