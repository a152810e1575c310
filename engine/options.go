package engine

import (
	"github.com/joeycumines/go-catrate"

	"github.com/tenruntime/ten-go/runloop"
)

// Option configures an Engine at construction time.
type Option interface {
	apply(*options)
}

type options struct {
	loop        *runloop.Loop
	loopOpts    []runloop.Option
	logger      *Logger
	sendLimiter *catrate.Limiter
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithRunloop shares an already-running (or not-yet-started) loop owned by
// another part of the system, instead of letting the engine create and own
// one. The close protocol never stops a borrowed loop: once
// quiescent, it calls onClosed directly rather than shutting the loop down.
func WithRunloop(loop *runloop.Loop) Option {
	return optionFunc(func(o *options) {
		o.loop = loop
	})
}

// WithLoopOptions forwards options to the runloop.New call the engine makes
// when it owns its loop. Ignored if combined with WithRunloop.
func WithLoopOptions(opts ...runloop.Option) Option {
	return optionFunc(func(o *options) {
		o.loopOpts = append(o.loopOpts, opts...)
	})
}

// WithLogger attaches a structured logger for the close protocol's
// lifecycle events. Omit to disable logging.
func WithLogger(logger *Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = logger
	})
}

// WithSendRateLimiter attaches a rate limiter consulted by the message-send
// surface, keyed per remote. Omit to disable send-side rate limiting.
func WithSendRateLimiter(limiter *catrate.Limiter) Option {
	return optionFunc(func(o *options) {
		o.sendLimiter = limiter
	})
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}
