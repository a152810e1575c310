package runloop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func runInBackground(t *testing.T, l *Loop) context.CancelFunc {
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
	return cancel
}

func TestLoop_PostTailExecutesOnLoopGoroutine(t *testing.T) {
	l := New()
	runInBackground(t, l)

	var sawLoopThread atomic.Bool
	done := make(chan struct{})
	require.NoError(t, l.PostTail(func() {
		sawLoopThread.Store(l.IsLoopThread())
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	require.True(t, sawLoopThread.Load())
}

func TestLoop_FIFOOrdering(t *testing.T) {
	l := New()
	runInBackground(t, l)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, l.PostTail(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestLoop_PostTailAfterStopReturnsErrStopped(t *testing.T) {
	l := New()
	runInBackground(t, l)

	require.NoError(t, l.Shutdown(context.Background()))
	require.ErrorIs(t, l.PostTail(func() {}), ErrStopped)
}

func TestLoop_ShutdownDrainsQueuedTasks(t *testing.T) {
	l := New()
	runInBackground(t, l)

	var ran atomic.Int32
	for i := 0; i < 50; i++ {
		require.NoError(t, l.PostTail(func() { ran.Add(1) }))
	}
	require.NoError(t, l.Shutdown(context.Background()))
	require.EqualValues(t, 50, ran.Load())
}

func TestLoop_RunFromLoopThreadIsReentrantError(t *testing.T) {
	l := New()
	runInBackground(t, l)

	errCh := make(chan error, 1)
	require.NoError(t, l.PostTail(func() {
		errCh <- l.Run(context.Background())
	}))
	require.ErrorIs(t, <-errCh, ErrReentrantRun)
}

func TestLoop_CloseWithoutRunTransitionsToStopped(t *testing.T) {
	l := New()
	require.NoError(t, l.Close())
	require.Equal(t, PhaseStopped, l.Phase())
	require.ErrorIs(t, l.Run(context.Background()), ErrStopped)
}

func TestLoop_AssertLoopThreadPanicsOffLoop(t *testing.T) {
	l := New()
	runInBackground(t, l)
	require.Panics(t, func() { l.AssertLoopThread() })
}
