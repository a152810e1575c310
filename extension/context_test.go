package extension

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tenruntime/ten-go/runloop"
)

type fakeExtension struct {
	closed atomic.Bool
}

func (f *fakeExtension) Close() error {
	f.closed.Store(true)
	return nil
}

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

func TestContext_CloseClosesHostedExtensions(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	c := New(l)
	ext := &fakeExtension{}
	c.AddExtension("alpha", ext)

	done := make(chan struct{})
	var sawLoopThread atomic.Bool
	c.Close(func(*Context) {
		sawLoopThread.Store(l.IsLoopThread())
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("context never closed")
	}
	require.True(t, ext.closed.Load())
	require.True(t, sawLoopThread.Load())
}

func TestContext_AddExtensionAfterClosePanics(t *testing.T) {
	l := runloop.New()
	runInBackground(t, l)

	c := New(l)
	done := make(chan struct{})
	c.Close(func(*Context) { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("context never closed")
	}

	require.Panics(t, func() { c.AddExtension("late", &fakeExtension{}) })
}
