package timer

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

func TestTimer_FiresRepeatedlyOnLoopThread(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	var fires atomic.Int32
	var sawLoopThread atomic.Bool
	tm := NewInterval(l, 5*time.Millisecond, func() {
		fires.Add(1)
		sawLoopThread.Store(l.IsLoopThread())
	})

	require.Eventually(t, func() bool { return fires.Load() >= 3 }, time.Second, time.Millisecond)
	require.True(t, sawLoopThread.Load())

	done := make(chan struct{})
	tm.CloseAsync(func(*Timer) { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never closed")
	}
}

func TestTimer_CloseAsyncIsIdempotent(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	tm := NewInterval(l, time.Hour, func() {})

	var calls atomic.Int32
	done := make(chan struct{})
	onClosed := func(*Timer) {
		calls.Add(1)
		close(done)
	}
	tm.CloseAsync(onClosed)
	tm.CloseAsync(onClosed)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never closed")
	}
	require.EqualValues(t, 1, calls.Load())
}

func TestTimer_StopAsyncHaltsFiring(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	var fires atomic.Int32
	tm := NewInterval(l, 5*time.Millisecond, func() { fires.Add(1) })
	time.Sleep(20 * time.Millisecond)
	tm.StopAsync()
	seen := fires.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, seen, fires.Load())
}
