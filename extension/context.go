// Package extension provides the extension-context: the container an engine
// holds for the user-defined extensions it hosts. The engine's close
// protocol depends only on Context.Close's async-then-callback contract;
// how extensions are loaded, graphed, and addressed is out of scope here.
package extension

import (
	"sync"
	"sync/atomic"

	"github.com/tenruntime/ten-go/runloop"
)

// Context is the at-most-one-per-engine container of user extensions.
type Context struct {
	loop *runloop.Loop

	mu         sync.Mutex
	extensions map[string]any

	closed atomic.Bool
}

// New creates an empty extension context bound to loop, on which its
// Close callback will be delivered.
func New(loop *runloop.Loop) *Context {
	return &Context{
		loop:       loop,
		extensions: make(map[string]any),
	}
}

// AddExtension registers an extension by name. It panics if called after
// Close has been requested; extensions may only be added while the hosting
// engine is running.
func (c *Context) AddExtension(name string, ext any) {
	if c.closed.Load() {
		panic("extension: cannot add extension to a closing context")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extensions[name] = ext
}

// Extension returns the named extension, if any.
func (c *Context) Extension(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ext, ok := c.extensions[name]
	return ext, ok
}

// Close asynchronously tears down every hosted extension and then posts
// onClosed to loop. Safe to call more than once; only the first call's
// onClosed is used, and it fires at most once (not at all if the loop has
// already stopped).
func (c *Context) Close(onClosed func(*Context)) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	go func() {
		c.mu.Lock()
		exts := make([]any, 0, len(c.extensions))
		for _, ext := range c.extensions {
			exts = append(exts, ext)
		}
		c.mu.Unlock()

		for _, ext := range exts {
			if closer, ok := ext.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
		}

		if err := c.loop.PostTail(func() { onClosed(c) }); err != nil {
			return
		}
	}()
}
